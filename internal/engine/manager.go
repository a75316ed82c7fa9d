package engine

import (
	"context"
	"fmt"
	"time"

	"foodbridge/internal/metrics"
	"foodbridge/pkg/types"

	"github.com/sirupsen/logrus"
)

// DonationStore is the slice of the donation repository the engine needs.
type DonationStore interface {
	Donation(ctx context.Context, donationID string) (*types.Donation, error)
}

// RequestStore is the slice of the request repository the engine needs.
type RequestStore interface {
	Request(ctx context.Context, requestID string) (*types.RequestNeed, error)
}

// TransactionStore persists transactions and applies terminal transitions.
// CommitApproval must re-validate the allocation against live quantities and
// apply the decrements, the status flip and the audit event as one atomic
// unit, returning types.AllocationStaleError when the allocation no longer
// fits.
type TransactionStore interface {
	Transaction(ctx context.Context, transactionID string) (*types.DonationTransaction, error)
	CreateTransaction(ctx context.Context, txn *types.DonationTransaction) error
	CommitApproval(ctx context.Context, transactionID, actorID string) (*types.CommitResult, error)
	MarkRejected(ctx context.Context, transactionID, reason, actorID, kind string) error
	PendingByEntity(ctx context.Context, entityID string) ([]*types.DonationTransaction, error)
}

// UserStore resolves display names for notification messages. Best effort.
type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
}

// Notifier publishes a notification event to the counterpart user.
// Publishing is fire-and-forget: the manager logs failures and never
// propagates them.
type Notifier interface {
	PublishTransactionEvent(ctx context.Context, ev types.NotificationEvent) error
}

// Manager is the transaction state machine: it creates pending transactions
// from validated allocations and drives them to approved or rejected,
// committing quantities through the store on approval.
type Manager struct {
	logger       *logrus.Logger
	donations    DonationStore
	requests     RequestStore
	transactions TransactionStore
	users        UserStore
	notifier     Notifier

	locks *entityLocks
}

func NewManager(
	logger *logrus.Logger,
	donations DonationStore,
	requests RequestStore,
	transactions TransactionStore,
	users UserStore,
	notifier Notifier,
) *Manager {
	return &Manager{
		logger:       logger,
		donations:    donations,
		requests:     requests,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		locks:        newEntityLocks(),
	}
}

// CreateInput describes a new transaction. Either party may initiate: a
// donor offering against an existing request, or a recipient requesting
// against an existing donation. When All is set the allocation covers every
// line available on both sides and Lines is ignored.
type CreateInput struct {
	DonationID  string `json:"donation_id"`
	RequestID   string `json:"request_id"`
	ActingUser  string `json:"-"`
	Lines       []LineRequest `json:"lines"`
	All         bool   `json:"all"`
}

// Create validates the allocation and persists a pending transaction.
// Reservation is optimistic: no remaining quantity is touched until
// approval, so multiple pending transactions may reference overlapping
// lines.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*types.DonationTransaction, error) {

	donation, err := m.donations.Donation(ctx, in.DonationID)
	if err != nil {
		return nil, err
	}

	request, err := m.requests.Request(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}

	if in.ActingUser != donation.DonorID && in.ActingUser != request.RecipientID {
		return nil, types.ErrUnauthorized
	}

	var alloc *types.Allocation
	if in.All {
		alloc, err = BuildFullAllocation(donation, request)
	} else {
		alloc, err = BuildAllocation(donation, request, in.Lines)
	}
	if err != nil {
		return nil, err
	}

	txn := &types.DonationTransaction{
		DonationID:        donation.ID,
		RequestID:         request.ID,
		DonorID:           donation.DonorID,
		RecipientID:       request.RecipientID,
		InitiatorID:       in.ActingUser,
		Category:          alloc.Category,
		AllocatedProducts: alloc.Products,
		AllocatedMeals:    alloc.Meals,
		TotalMeals:        alloc.TotalMeals,
		Status:            types.TransactionStatusPending,
	}

	if err := m.transactions.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	metrics.TransactionsCreated.Inc()

	m.notify(ctx, types.NotificationEvent{
		Kind:          types.EventKindCreated,
		SenderID:      in.ActingUser,
		ReceiverID:    txn.CounterpartID(),
		TransactionID: txn.ID,
		DonationID:    txn.DonationID,
		RequestID:     txn.RequestID,
		Message:       fmt.Sprintf("%s proposed a donation match", m.displayName(ctx, in.ActingUser)),
	})

	return txn, nil
}

// Approve drives a pending transaction to approved, committing the
// allocation to both parents. Approvals touching the same donation or
// request are serialized; the second of two conflicting approvals observes
// the first's committed quantities and fails with AllocationStaleError.
// Nothing is committed on failure and the transaction stays pending.
func (m *Manager) Approve(ctx context.Context, transactionID, actingUserID string) (*types.CommitResult, error) {

	txn, err := m.transactions.Transaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status.Terminal() {
		return nil, types.ErrInvalidState
	}

	// Only the party that did not initiate may accept the offer.
	if actingUserID != txn.CounterpartID() {
		return nil, types.ErrUnauthorized
	}

	unlock := m.locks.LockPair(txn.DonationID, txn.RequestID)
	defer unlock()

	result, err := m.transactions.CommitApproval(ctx, txn.ID, actingUserID)
	if err != nil {
		metrics.ApprovalConflicts.Inc()
		return nil, err
	}

	metrics.TransactionsApproved.Inc()

	m.notify(ctx, types.NotificationEvent{
		Kind:          types.EventKindApproved,
		SenderID:      actingUserID,
		ReceiverID:    txn.InitiatorID,
		TransactionID: txn.ID,
		DonationID:    txn.DonationID,
		RequestID:     txn.RequestID,
		Message:       fmt.Sprintf("%s accepted the donation match", m.displayName(ctx, actingUserID)),
	})

	return result, nil
}

// Reject drives a pending transaction to rejected, recording the reason.
// No quantity mutation: nothing was ever reserved.
func (m *Manager) Reject(ctx context.Context, transactionID, reason, actingUserID string) (*types.DonationTransaction, error) {

	txn, err := m.transactions.Transaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status.Terminal() {
		return nil, types.ErrInvalidState
	}

	if reason == "" {
		return nil, types.ErrMissingReason
	}

	if actingUserID != txn.CounterpartID() {
		return nil, types.ErrUnauthorized
	}

	err = m.transactions.MarkRejected(ctx, txn.ID, reason, actingUserID, types.EventKindRejected)
	if err != nil {
		return nil, err
	}

	txn.Status = types.TransactionStatusRejected
	txn.RejectionReason = &reason
	txn.UpdatedAt = time.Now()

	metrics.TransactionsRejected.Inc()

	m.notify(ctx, types.NotificationEvent{
		Kind:          types.EventKindRejected,
		SenderID:      actingUserID,
		ReceiverID:    txn.InitiatorID,
		TransactionID: txn.ID,
		DonationID:    txn.DonationID,
		RequestID:     txn.RequestID,
		Message:       fmt.Sprintf("%s declined the donation match: %s", m.displayName(ctx, actingUserID), reason),
	})

	return txn, nil
}

// InvalidateForEntity rejects every outstanding pending transaction that
// references the given donation or request. Called before the owner deletes
// the parent entity.
func (m *Manager) InvalidateForEntity(ctx context.Context, entityID, reason, actorID string) error {

	pending, err := m.transactions.PendingByEntity(ctx, entityID)
	if err != nil {
		return fmt.Errorf("failed to list pending transactions: %w", err)
	}

	for _, txn := range pending {
		err := m.transactions.MarkRejected(ctx, txn.ID, reason, actorID, types.EventKindInvalidated)
		if err != nil {
			return fmt.Errorf("failed to invalidate transaction %s: %w", txn.ID, err)
		}

		m.notify(ctx, types.NotificationEvent{
			Kind:          types.EventKindInvalidated,
			SenderID:      actorID,
			ReceiverID:    txn.CounterpartID(),
			TransactionID: txn.ID,
			DonationID:    txn.DonationID,
			RequestID:     txn.RequestID,
			Message:       reason,
		})
	}

	return nil
}

// notify publishes a notification event to the counterpart. Failures are
// logged and swallowed; delivery is not part of the ledger's correctness
// contract.
func (m *Manager) notify(ctx context.Context, ev types.NotificationEvent) {
	ev.Timestamp = time.Now()

	if err := m.notifier.PublishTransactionEvent(ctx, ev); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"transaction_id": ev.TransactionID,
			"kind":           ev.Kind,
		}).Warn("failed to publish notification event")
	}
}

func (m *Manager) displayName(ctx context.Context, userID string) string {
	if m.users == nil {
		return userID
	}

	user, err := m.users.User(ctx, userID)
	if err != nil {
		return userID
	}
	return user.DisplayName
}
