package types

import (
	"time"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// Allocation is a validated, not-yet-persisted proposal of quantities drawn
// from a donation's supply lines to satisfy a request's demand lines.
type Allocation struct {
	Category   Category        `json:"category"`
	Products   AllocationLines `json:"products,omitempty"`
	Meals      AllocationLines `json:"meals,omitempty"`
	TotalMeals int             `json:"total_meals,omitempty"`
}

// Lines returns the allocation lines for its category.
func (a *Allocation) Lines() AllocationLines {
	if a.Category == CategoryPreparedMeals {
		return a.Meals
	}
	return a.Products
}

// DonationTransaction links one Donation and one RequestNeed via an
// allocation. The allocation is a snapshot request only; it becomes binding
// when the transaction is approved and the quantities are committed.
type DonationTransaction struct {
	ID         string `db:"id" json:"id"`
	DonationID string `db:"donation_id" json:"donation_id"`
	RequestID  string `db:"request_id" json:"request_id"`

	DonorID     string `db:"donor_id" json:"donor_id"`
	RecipientID string `db:"recipient_id" json:"recipient_id"`
	InitiatorID string `db:"initiator_id" json:"initiator_id"`

	Category          Category        `db:"category" json:"category"`
	AllocatedProducts AllocationLines `db:"allocated_products" json:"allocated_products,omitempty"`
	AllocatedMeals    AllocationLines `db:"allocated_meals" json:"allocated_meals,omitempty"`
	TotalMeals        int             `db:"total_meals" json:"total_meals,omitempty"`

	Status          TransactionStatus `db:"status" json:"status"`
	RejectionReason *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CounterpartID returns the party that did not initiate the transaction.
// Mutation rights on a pending transaction belong to this user.
func (t *DonationTransaction) CounterpartID() string {
	if t.InitiatorID == t.DonorID {
		return t.RecipientID
	}
	return t.DonorID
}

// AllocatedLines returns the allocation lines for the transaction's category.
func (t *DonationTransaction) AllocatedLines() AllocationLines {
	if t.Category == CategoryPreparedMeals {
		return t.AllocatedMeals
	}
	return t.AllocatedProducts
}

// CommitResult carries the post-commit snapshots returned by an approval.
type CommitResult struct {
	Transaction *DonationTransaction `json:"transaction"`
	Donation    *Donation            `json:"donation"`
	Request     *RequestNeed         `json:"request"`
}

// TransactionEvent is one append-only audit row in a transaction's history.
type TransactionEvent struct {
	ID            string    `db:"id" json:"id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	Kind          string    `db:"kind" json:"kind"`
	ActorID       string    `db:"actor_id" json:"actor_id"`
	Detail        *string   `db:"detail" json:"detail,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

const (
	EventKindCreated     = "created"
	EventKindApproved    = "approved"
	EventKindRejected    = "rejected"
	EventKindInvalidated = "invalidated"
)
