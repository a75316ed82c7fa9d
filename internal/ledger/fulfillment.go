package ledger

import (
	"foodbridge/pkg/types"
)

// RecomputeDonation derives the donation's fulfillment status from its
// current remaining quantities. Pure and idempotent; called after every
// committed mutation.
func RecomputeDonation(d *types.Donation) types.EntityStatus {
	if d.Category == types.CategoryPreparedMeals {
		return mealStatus(d.NumberOfMeals, d.OriginalMeals)
	}
	return lineStatus(d.Products)
}

// RecomputeRequest derives the request's fulfillment status.
func RecomputeRequest(r *types.RequestNeed) types.EntityStatus {
	if r.Category == types.CategoryPreparedMeals {
		return mealStatus(r.NumberOfMeals, r.OriginalMeals)
	}
	return lineStatus(r.RequestedProducts)
}

func lineStatus(lines types.LineItems) types.EntityStatus {
	if len(lines) == 0 {
		return types.StatusOpen
	}

	allZero := true
	anyConsumed := false
	for _, line := range lines {
		if line.Remaining > 0 {
			allZero = false
		}
		if line.Remaining < line.Quantity {
			anyConsumed = true
		}
	}

	if allZero {
		return types.StatusFulfilled
	}
	if anyConsumed {
		return types.StatusPartiallyFulfilled
	}
	return types.StatusOpen
}

func mealStatus(remaining, original int) types.EntityStatus {
	if original == 0 {
		return types.StatusOpen
	}
	if remaining == 0 {
		return types.StatusFulfilled
	}
	if remaining < original {
		return types.StatusPartiallyFulfilled
	}
	return types.StatusOpen
}
