package types

import (
	"errors"
	"fmt"
)

var (
	ErrDonationNotFound    = errors.New("donation not found")
	ErrRequestNotFound     = errors.New("request not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidState is returned when a transition is attempted on a
	// transaction that is no longer pending.
	ErrInvalidState = errors.New("transaction is not pending")

	ErrMissingReason = errors.New("rejection requires a reason")
	ErrUnauthorized  = errors.New("user is not entitled to perform this action")

	ErrCategoryMismatch = errors.New("donation and request categories do not match")
	ErrEmptyAllocation  = errors.New("allocation contains no lines")
)

// LineNotFoundError reports an allocation line whose ref does not exist on
// the donation's supply lines or the request's demand lines.
type LineNotFoundError struct {
	Ref  string
	Side string // "donation" or "request"
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("line %q does not exist on the %s", e.Ref, e.Side)
}

// QuantityExceedsAvailableError reports a build-time bound violation: the
// caller asked for more than the remaining supply or demand on a line.
type QuantityExceedsAvailableError struct {
	Ref             string
	Requested       int
	SupplyRemaining int
	DemandRemaining int
}

func (e *QuantityExceedsAvailableError) Error() string {
	return fmt.Sprintf(
		"quantity %d on line %q exceeds available (supply remaining %d, demand remaining %d)",
		e.Requested, e.Ref, e.SupplyRemaining, e.DemandRemaining,
	)
}

// AllocationStaleError reports an approval-time re-validation failure: the
// allocated quantity no longer fits the live remaining quantities because a
// competing transaction committed first. Distinct from
// QuantityExceedsAvailableError so callers can tell a bad request from a
// lost race.
type AllocationStaleError struct {
	Ref             string
	Allocated       int
	SupplyRemaining int
	DemandRemaining int
}

func (e *AllocationStaleError) Error() string {
	return fmt.Sprintf(
		"allocation is stale: line %q allocates %d but supply remaining is %d and demand remaining is %d",
		e.Ref, e.Allocated, e.SupplyRemaining, e.DemandRemaining,
	)
}
