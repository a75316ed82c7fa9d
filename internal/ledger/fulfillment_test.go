package ledger

import (
	"testing"

	"foodbridge/pkg/types"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeDonationPackagedProducts(t *testing.T) {
	cases := []struct {
		name      string
		remaining []int
		want      types.EntityStatus
	}{
		{name: "untouched", remaining: []int{5, 3}, want: types.StatusOpen},
		{name: "one line drained", remaining: []int{0, 3}, want: types.StatusPartiallyFulfilled},
		{name: "all lines partially drained", remaining: []int{2, 1}, want: types.StatusPartiallyFulfilled},
		{name: "everything drained", remaining: []int{0, 0}, want: types.StatusFulfilled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &types.Donation{
				Category: types.CategoryPackagedProducts,
				Products: types.LineItems{
					{Ref: "rice", Quantity: 5, Remaining: tc.remaining[0]},
					{Ref: "beans", Quantity: 3, Remaining: tc.remaining[1]},
				},
			}
			assert.Equal(t, tc.want, RecomputeDonation(d))
		})
	}
}

func TestRecomputeDonationPreparedMeals(t *testing.T) {
	cases := []struct {
		name      string
		remaining int
		original  int
		want      types.EntityStatus
	}{
		{name: "untouched", remaining: 10, original: 10, want: types.StatusOpen},
		{name: "partially served", remaining: 4, original: 10, want: types.StatusPartiallyFulfilled},
		{name: "fully served", remaining: 0, original: 10, want: types.StatusFulfilled},
		{name: "no meals declared", remaining: 0, original: 0, want: types.StatusOpen},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &types.Donation{
				Category:      types.CategoryPreparedMeals,
				NumberOfMeals: tc.remaining,
				OriginalMeals: tc.original,
			}
			assert.Equal(t, tc.want, RecomputeDonation(d))
		})
	}
}

func TestRecomputeRequestMirrorsDonation(t *testing.T) {
	r := &types.RequestNeed{
		Category: types.CategoryPackagedProducts,
		RequestedProducts: types.LineItems{
			{Ref: "rice", Quantity: 5, Remaining: 0},
			{Ref: "beans", Quantity: 3, Remaining: 0},
		},
	}
	assert.Equal(t, types.StatusFulfilled, RecomputeRequest(r))

	r.RequestedProducts[1].Remaining = 3
	assert.Equal(t, types.StatusPartiallyFulfilled, RecomputeRequest(r))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	d := &types.Donation{
		Category: types.CategoryPackagedProducts,
		Products: types.LineItems{{Ref: "rice", Quantity: 5, Remaining: 2}},
	}

	first := RecomputeDonation(d)
	second := RecomputeDonation(d)
	assert.Equal(t, first, second)
}
