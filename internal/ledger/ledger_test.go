package ledger

import (
	"testing"

	"foodbridge/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productPair(supply, demand int) (*types.Donation, *types.RequestNeed) {
	d := &types.Donation{
		ID:       "donation-1",
		Category: types.CategoryPackagedProducts,
		Products: types.LineItems{{Ref: "rice", Quantity: supply, Remaining: supply}},
		Status:   types.StatusOpen,
	}
	r := &types.RequestNeed{
		ID:                "request-1",
		Category:          types.CategoryPackagedProducts,
		RequestedProducts: types.LineItems{{Ref: "rice", Quantity: demand, Remaining: demand}},
		Status:            types.StatusOpen,
	}
	return d, r
}

func productTxn(qty int) *types.DonationTransaction {
	return &types.DonationTransaction{
		ID:                "txn-1",
		Category:          types.CategoryPackagedProducts,
		AllocatedProducts: types.AllocationLines{{Ref: "rice", Quantity: qty}},
		Status:            types.TransactionStatusPending,
	}
}

func TestValidateCommitWithinBounds(t *testing.T) {
	d, r := productPair(10, 8)
	assert.NoError(t, ValidateCommit(d, r, productTxn(8)))
}

func TestValidateCommitStaleSupply(t *testing.T) {
	d, r := productPair(10, 10)
	d.Products[0].Remaining = 3

	err := ValidateCommit(d, r, productTxn(5))
	require.Error(t, err)

	var stale *types.AllocationStaleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "rice", stale.Ref)
	assert.Equal(t, 5, stale.Allocated)
	assert.Equal(t, 3, stale.SupplyRemaining)
	assert.Equal(t, 10, stale.DemandRemaining)
}

func TestValidateCommitStaleDemand(t *testing.T) {
	d, r := productPair(10, 10)
	r.RequestedProducts[0].Remaining = 2

	var stale *types.AllocationStaleError
	require.ErrorAs(t, ValidateCommit(d, r, productTxn(5)), &stale)
	assert.Equal(t, 2, stale.DemandRemaining)
}

func TestValidateCommitMissingLine(t *testing.T) {
	d, r := productPair(10, 10)
	txn := &types.DonationTransaction{
		Category:          types.CategoryPackagedProducts,
		AllocatedProducts: types.AllocationLines{{Ref: "pasta", Quantity: 1}},
	}

	var stale *types.AllocationStaleError
	require.ErrorAs(t, ValidateCommit(d, r, txn), &stale)
	assert.Equal(t, "pasta", stale.Ref)
}

func TestValidateCommitMealTotals(t *testing.T) {
	d := &types.Donation{
		Category:      types.CategoryPreparedMeals,
		Meals:         types.LineItems{{Ref: "soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals: 4, // counter behind the lines, simulating drift
		OriginalMeals: 10,
	}
	r := &types.RequestNeed{
		Category:       types.CategoryPreparedMeals,
		RequestedMeals: types.LineItems{{Ref: "soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals:  10,
		OriginalMeals:  10,
	}
	txn := &types.DonationTransaction{
		Category:       types.CategoryPreparedMeals,
		AllocatedMeals: types.AllocationLines{{Ref: "soup", Quantity: 6}},
	}

	var stale *types.AllocationStaleError
	require.ErrorAs(t, ValidateCommit(d, r, txn), &stale)
	assert.Equal(t, "total_meals", stale.Ref)
}

func TestApplyDecrementsBothSides(t *testing.T) {
	d, r := productPair(10, 8)

	Apply(d, r, productTxn(6))

	assert.Equal(t, 4, d.Products[0].Remaining)
	assert.Equal(t, 2, r.RequestedProducts[0].Remaining)
	assert.Equal(t, types.StatusPartiallyFulfilled, d.Status)
	assert.Equal(t, types.StatusPartiallyFulfilled, r.Status)
}

func TestApplyMealsAdjustsTotals(t *testing.T) {
	d := &types.Donation{
		Category:      types.CategoryPreparedMeals,
		Meals:         types.LineItems{{Ref: "soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals: 10,
		OriginalMeals: 10,
	}
	r := &types.RequestNeed{
		Category:       types.CategoryPreparedMeals,
		RequestedMeals: types.LineItems{{Ref: "soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals:  10,
		OriginalMeals:  10,
	}
	txn := &types.DonationTransaction{
		Category:       types.CategoryPreparedMeals,
		AllocatedMeals: types.AllocationLines{{Ref: "soup", Quantity: 10}},
		TotalMeals:     10,
	}

	require.NoError(t, ValidateCommit(d, r, txn))
	Apply(d, r, txn)

	assert.Equal(t, 0, d.NumberOfMeals)
	assert.Equal(t, 0, r.NumberOfMeals)
	assert.Equal(t, types.StatusFulfilled, d.Status)
	assert.Equal(t, types.StatusFulfilled, r.Status)
}

// Conservation: after a set of validated commits allocating q1..qn against a
// line of quantity Q, remaining = Q - sum(qi) and never goes negative.
func TestConservationAcrossCommits(t *testing.T) {
	d, r := productPair(10, 10)

	allocations := []int{3, 2, 4}
	total := 0
	for _, q := range allocations {
		txn := productTxn(q)
		require.NoError(t, ValidateCommit(d, r, txn))
		Apply(d, r, txn)
		total += q

		assert.Equal(t, 10-total, d.Products[0].Remaining)
		assert.GreaterOrEqual(t, d.Products[0].Remaining, 0)
	}

	// 1 remains; 2 more must be refused, nothing applied
	var stale *types.AllocationStaleError
	require.ErrorAs(t, ValidateCommit(d, r, productTxn(2)), &stale)
	assert.Equal(t, 1, d.Products[0].Remaining)
}
