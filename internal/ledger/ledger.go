// Package ledger holds the remaining-quantity arithmetic for donations and
// requests. Everything here is pure: callers are responsible for loading
// current state under an appropriate lock and for persisting the result
// atomically.
package ledger

import (
	"foodbridge/pkg/types"
)

// ValidateCommit re-checks every allocated line of a pending transaction
// against the live remaining quantities on both parents. Any line whose
// allocated quantity exceeds current remaining supply or demand fails the
// whole commit with an AllocationStaleError; nothing may be applied.
func ValidateCommit(d *types.Donation, r *types.RequestNeed, txn *types.DonationTransaction) error {
	supply := d.Lines()
	demand := r.Lines()

	for _, line := range txn.AllocatedLines() {
		s := supply.Find(line.Ref)
		dm := demand.Find(line.Ref)
		if s == nil || dm == nil {
			return &types.AllocationStaleError{Ref: line.Ref, Allocated: line.Quantity}
		}
		if line.Quantity > s.Remaining || line.Quantity > dm.Remaining {
			return &types.AllocationStaleError{
				Ref:             line.Ref,
				Allocated:       line.Quantity,
				SupplyRemaining: s.Remaining,
				DemandRemaining: dm.Remaining,
			}
		}
	}

	if txn.Category == types.CategoryPreparedMeals {
		total := txn.AllocatedMeals.Total()
		if total > d.NumberOfMeals || total > r.NumberOfMeals {
			return &types.AllocationStaleError{
				Ref:             "total_meals",
				Allocated:       total,
				SupplyRemaining: d.NumberOfMeals,
				DemandRemaining: r.NumberOfMeals,
			}
		}
	}

	return nil
}

// Apply decrements both sides' remaining quantities by the transaction's
// allocated amounts and rederives the parents' fulfillment status. The
// caller must have validated first; Apply never produces a negative counter
// on validated input.
func Apply(d *types.Donation, r *types.RequestNeed, txn *types.DonationTransaction) {
	supply := d.Lines()
	demand := r.Lines()

	for _, line := range txn.AllocatedLines() {
		if s := supply.Find(line.Ref); s != nil {
			s.Remaining -= line.Quantity
		}
		if dm := demand.Find(line.Ref); dm != nil {
			dm.Remaining -= line.Quantity
		}
	}

	if txn.Category == types.CategoryPreparedMeals {
		total := txn.AllocatedMeals.Total()
		d.NumberOfMeals -= total
		r.NumberOfMeals -= total
	}

	d.Status = RecomputeDonation(d)
	r.Status = RecomputeRequest(r)
}
