package engine

import (
	"foodbridge/pkg/types"
)

// LineRequest is one (ref, quantity) pair submitted by a caller building an
// allocation.
type LineRequest struct {
	Ref      string `json:"ref" form:"ref"`
	Quantity int    `json:"quantity" form:"quantity"`
}

// BuildAllocation validates the requested lines against the donation's
// remaining supply and the request's remaining demand and constructs an
// Allocation. Lines are matched by product/meal identity, never by index.
// Pure; no side effects, safe to call repeatedly.
func BuildAllocation(d *types.Donation, r *types.RequestNeed, lines []LineRequest) (*types.Allocation, error) {
	if d.Category != r.Category {
		return nil, types.ErrCategoryMismatch
	}
	if len(lines) == 0 {
		return nil, types.ErrEmptyAllocation
	}

	supply := d.Lines()
	demand := r.Lines()

	allocated := make(types.AllocationLines, 0, len(lines))
	for _, req := range lines {
		if req.Quantity <= 0 {
			return nil, &types.QuantityExceedsAvailableError{Ref: req.Ref, Requested: req.Quantity}
		}

		s := supply.Find(req.Ref)
		if s == nil {
			return nil, &types.LineNotFoundError{Ref: req.Ref, Side: "donation"}
		}
		dm := demand.Find(req.Ref)
		if dm == nil {
			return nil, &types.LineNotFoundError{Ref: req.Ref, Side: "request"}
		}

		if req.Quantity > s.Remaining || req.Quantity > dm.Remaining {
			return nil, &types.QuantityExceedsAvailableError{
				Ref:             req.Ref,
				Requested:       req.Quantity,
				SupplyRemaining: s.Remaining,
				DemandRemaining: dm.Remaining,
			}
		}

		allocated = append(allocated, types.AllocationLine{
			Ref:      req.Ref,
			Name:     s.Name,
			Quantity: req.Quantity,
		})
	}

	return newAllocation(d.Category, allocated, d, r)
}

// BuildFullAllocation is the "donate all" / "request all" convenience mode:
// one line per item available on both sides, at the full quantity both sides
// can still bear. Built from live state, so it is inherently bound-safe, but
// the totals check below still guards against an inconsistent meal counter.
func BuildFullAllocation(d *types.Donation, r *types.RequestNeed) (*types.Allocation, error) {
	if d.Category != r.Category {
		return nil, types.ErrCategoryMismatch
	}

	demand := r.Lines()

	allocated := make(types.AllocationLines, 0, len(d.Lines()))
	for _, s := range d.Lines() {
		dm := demand.Find(s.Ref)
		if dm == nil {
			continue
		}
		qty := min(s.Remaining, dm.Remaining)
		if qty <= 0 {
			continue
		}
		allocated = append(allocated, types.AllocationLine{
			Ref:      s.Ref,
			Name:     s.Name,
			Quantity: qty,
		})
	}

	if len(allocated) == 0 {
		return nil, types.ErrEmptyAllocation
	}

	return newAllocation(d.Category, allocated, d, r)
}

func newAllocation(category types.Category, lines types.AllocationLines, d *types.Donation, r *types.RequestNeed) (*types.Allocation, error) {
	alloc := &types.Allocation{Category: category}

	if category == types.CategoryPreparedMeals {
		alloc.Meals = lines
		alloc.TotalMeals = lines.Total()

		// The per-line checks above imply this when the running totals are
		// consistent with the lines; a stale client cannot rely on that.
		if alloc.TotalMeals > d.NumberOfMeals || alloc.TotalMeals > r.NumberOfMeals {
			return nil, &types.QuantityExceedsAvailableError{
				Ref:             "total_meals",
				Requested:       alloc.TotalMeals,
				SupplyRemaining: d.NumberOfMeals,
				DemandRemaining: r.NumberOfMeals,
			}
		}
		return alloc, nil
	}

	alloc.Products = lines
	return alloc, nil
}
