package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"foodbridge/internal/ledger"
	"foodbridge/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the postgres repositories. Its
// CommitApproval mirrors the store contract: validate against live
// quantities and apply everything or nothing, atomically.
type memStore struct {
	mu        sync.Mutex
	seq       int
	donations map[string]*types.Donation
	requests  map[string]*types.RequestNeed
	txns      map[string]*types.DonationTransaction
	events    []*types.TransactionEvent
}

func newMemStore() *memStore {
	return &memStore{
		donations: make(map[string]*types.Donation),
		requests:  make(map[string]*types.RequestNeed),
		txns:      make(map[string]*types.DonationTransaction),
	}
}

func (s *memStore) Donation(ctx context.Context, id string) (*types.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, types.ErrDonationNotFound
	}
	return d, nil
}

func (s *memStore) Request(ctx context.Context, id string) (*types.RequestNeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	return r, nil
}

func (s *memStore) Transaction(ctx context.Context, id string) (*types.DonationTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.txns[id]
	if !ok {
		return nil, types.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (s *memStore) CreateTransaction(ctx context.Context, txn *types.DonationTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	txn.ID = fmt.Sprintf("txn-%d", s.seq)
	txn.Status = types.TransactionStatusPending
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	stored := *txn
	s.txns[txn.ID] = &stored
	s.recordEvent(txn.ID, types.EventKindCreated, txn.InitiatorID, nil)
	return nil
}

func (s *memStore) CommitApproval(ctx context.Context, transactionID, actorID string) (*types.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[transactionID]
	if !ok {
		return nil, types.ErrTransactionNotFound
	}
	if txn.Status.Terminal() {
		return nil, types.ErrInvalidState
	}

	d := s.donations[txn.DonationID]
	r := s.requests[txn.RequestID]
	if d == nil {
		return nil, types.ErrDonationNotFound
	}
	if r == nil {
		return nil, types.ErrRequestNotFound
	}

	if err := ledger.ValidateCommit(d, r, txn); err != nil {
		return nil, err
	}

	ledger.Apply(d, r, txn)
	d.Version++
	r.Version++
	txn.Status = types.TransactionStatusApproved
	txn.UpdatedAt = time.Now()
	s.recordEvent(txn.ID, types.EventKindApproved, actorID, nil)

	return &types.CommitResult{Transaction: txn, Donation: d, Request: r}, nil
}

func (s *memStore) MarkRejected(ctx context.Context, transactionID, reason, actorID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.txns[transactionID]
	if !ok {
		return types.ErrTransactionNotFound
	}
	if txn.Status.Terminal() {
		return types.ErrInvalidState
	}

	txn.Status = types.TransactionStatusRejected
	txn.RejectionReason = &reason
	txn.UpdatedAt = time.Now()
	s.recordEvent(txn.ID, kind, actorID, &reason)
	return nil
}

func (s *memStore) PendingByEntity(ctx context.Context, entityID string) ([]*types.DonationTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*types.DonationTransaction
	for _, txn := range s.txns {
		if txn.Status != types.TransactionStatusPending {
			continue
		}
		if txn.DonationID == entityID || txn.RequestID == entityID {
			copied := *txn
			pending = append(pending, &copied)
		}
	}
	return pending, nil
}

func (s *memStore) recordEvent(transactionID, kind, actorID string, detail *string) {
	s.events = append(s.events, &types.TransactionEvent{
		ID:            fmt.Sprintf("evt-%d", len(s.events)+1),
		TransactionID: transactionID,
		Kind:          kind,
		ActorID:       actorID,
		Detail:        detail,
		CreatedAt:     time.Now(),
	})
}

type stubNotifier struct {
	mu     sync.Mutex
	events []types.NotificationEvent
	err    error
}

func (n *stubNotifier) PublishTransactionEvent(ctx context.Context, ev types.NotificationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *stubNotifier) published() []types.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.NotificationEvent(nil), n.events...)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&discard{})
	return logger
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func mealFixture(store *memStore) {
	store.donations["donation-m"] = &types.Donation{
		ID:            "donation-m",
		DonorID:       "donor-1",
		Category:      types.CategoryPreparedMeals,
		Meals:         types.LineItems{{Ref: "soup", Name: "Soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals: 10,
		OriginalMeals: 10,
		Status:        types.StatusOpen,
	}
	store.requests["request-m"] = &types.RequestNeed{
		ID:             "request-m",
		RecipientID:    "recipient-1",
		Category:       types.CategoryPreparedMeals,
		RequestedMeals: types.LineItems{{Ref: "soup", Name: "Soup", Quantity: 10, Remaining: 10}},
		NumberOfMeals:  10,
		OriginalMeals:  10,
		Status:         types.StatusOpen,
	}
}

func productFixture(store *memStore) {
	store.donations["donation-p"] = testProductDonation()
	store.donations["donation-p"].ID = "donation-p"
	store.requests["request-p"] = testProductRequest()
	store.requests["request-p"].ID = "request-p"
}

func newTestManager(store *memStore, notifier *stubNotifier) *Manager {
	return NewManager(testLogger(), store, store, store, nil, notifier)
}

func TestCreateTransactionPending(t *testing.T) {
	store := newMemStore()
	notifier := &stubNotifier{}
	mealFixture(store)
	m := newTestManager(store, notifier)

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m",
		RequestID:  "request-m",
		ActingUser: "recipient-1",
		Lines:      []LineRequest{{Ref: "soup", Quantity: 10}},
	})
	require.NoError(t, err)

	assert.Equal(t, types.TransactionStatusPending, txn.Status)
	assert.Equal(t, 10, txn.TotalMeals)
	assert.Equal(t, "recipient-1", txn.InitiatorID)
	assert.Equal(t, "donor-1", txn.CounterpartID())

	// reservation is optimistic, nothing decremented yet
	assert.Equal(t, 10, store.donations["donation-m"].NumberOfMeals)
	assert.Equal(t, 10, store.requests["request-m"].NumberOfMeals)

	events := notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, types.EventKindCreated, events[0].Kind)
	assert.Equal(t, "donor-1", events[0].ReceiverID)
}

func TestCreateTransactionRequiresParticipant(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	_, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m",
		RequestID:  "request-m",
		ActingUser: "somebody-else",
		All:        true,
	})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestCreateTransactionUnknownDonation(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	_, err := m.Create(context.Background(), CreateInput{
		DonationID: "missing",
		RequestID:  "request-m",
		ActingUser: "recipient-1",
		All:        true,
	})
	assert.ErrorIs(t, err, types.ErrDonationNotFound)
}

// Scenario: prepared_meals donation and request of 10 meals each; a full
// allocation approved by the donor fulfills both sides.
func TestApproveFullMealAllocation(t *testing.T) {
	store := newMemStore()
	notifier := &stubNotifier{}
	mealFixture(store)
	m := newTestManager(store, notifier)

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m",
		RequestID:  "request-m",
		ActingUser: "recipient-1",
		Lines:      []LineRequest{{Ref: "soup", Quantity: 10}},
	})
	require.NoError(t, err)

	result, err := m.Approve(context.Background(), txn.ID, "donor-1")
	require.NoError(t, err)

	assert.Equal(t, types.TransactionStatusApproved, result.Transaction.Status)
	assert.Equal(t, 0, result.Donation.NumberOfMeals)
	assert.Equal(t, 0, result.Request.NumberOfMeals)
	assert.Equal(t, types.StatusFulfilled, result.Donation.Status)
	assert.Equal(t, types.StatusFulfilled, result.Request.Status)

	events := notifier.published()
	require.Len(t, events, 2)
	assert.Equal(t, types.EventKindApproved, events[1].Kind)
	assert.Equal(t, "recipient-1", events[1].ReceiverID)
}

func TestApproveOnlyCounterpart(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m",
		RequestID:  "request-m",
		ActingUser: "recipient-1",
		All:        true,
	})
	require.NoError(t, err)

	// the initiator cannot accept their own offer
	_, err = m.Approve(context.Background(), txn.ID, "recipient-1")
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	// neither can a stranger
	_, err = m.Approve(context.Background(), txn.ID, "somebody-else")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestApproveTerminalIsInvalidState(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m",
		RequestID:  "request-m",
		ActingUser: "recipient-1",
		All:        true,
	})
	require.NoError(t, err)

	_, err = m.Approve(context.Background(), txn.ID, "donor-1")
	require.NoError(t, err)

	// second approval must fail and must not decrement again
	_, err = m.Approve(context.Background(), txn.ID, "donor-1")
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.Equal(t, 0, store.donations["donation-m"].NumberOfMeals)

	_, err = m.Reject(context.Background(), txn.ID, "changed my mind", "donor-1")
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestApproveMissingTransaction(t *testing.T) {
	store := newMemStore()
	m := newTestManager(store, &stubNotifier{})

	_, err := m.Approve(context.Background(), "missing", "donor-1")
	assert.ErrorIs(t, err, types.ErrTransactionNotFound)
}

// Two pending transactions against the same line, each wanting more than
// half of it: the first approval consumes the inventory, the second must
// fail with a stale allocation and leave quantities alone.
func TestSequentialConflictingApprovals(t *testing.T) {
	store := newMemStore()
	productFixture(store)
	// shrink the rice line so both transactions oversubscribe it
	store.donations["donation-p"].Products[0].Remaining = 10
	store.donations["donation-p"].Products[0].Quantity = 10
	m := newTestManager(store, &stubNotifier{})

	t1, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-p", RequestID: "request-p", ActingUser: "recipient-1",
		Lines: []LineRequest{{Ref: "rice", Quantity: 6}},
	})
	require.NoError(t, err)

	t2, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-p", RequestID: "request-p", ActingUser: "recipient-1",
		Lines: []LineRequest{{Ref: "rice", Quantity: 6}},
	})
	require.NoError(t, err)

	_, err = m.Approve(context.Background(), t1.ID, "donor-1")
	require.NoError(t, err)
	assert.Equal(t, 4, store.donations["donation-p"].Products[0].Remaining)

	_, err = m.Approve(context.Background(), t2.ID, "donor-1")
	var stale *types.AllocationStaleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "rice", stale.Ref)

	// loser stays pending, nothing applied
	kept, err := store.Transaction(context.Background(), t2.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusPending, kept.Status)
	assert.Equal(t, 4, store.donations["donation-p"].Products[0].Remaining)
}

// Same conflict, approved concurrently: exactly one wins.
func TestConcurrentConflictingApprovals(t *testing.T) {
	store := newMemStore()
	productFixture(store)
	store.donations["donation-p"].Products[0].Remaining = 10
	store.donations["donation-p"].Products[0].Quantity = 10
	m := newTestManager(store, &stubNotifier{})

	ids := make([]string, 2)
	for i := range ids {
		txn, err := m.Create(context.Background(), CreateInput{
			DonationID: "donation-p", RequestID: "request-p", ActingUser: "recipient-1",
			Lines: []LineRequest{{Ref: "rice", Quantity: 6}},
		})
		require.NoError(t, err)
		ids[i] = txn.ID
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(transactionID string) {
			defer wg.Done()
			_, err := m.Approve(context.Background(), transactionID, "donor-1")
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var succeeded, staled int
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var stale *types.AllocationStaleError
		require.ErrorAs(t, err, &stale)
		staled++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, staled)
	assert.Equal(t, 4, store.donations["donation-p"].Products[0].Remaining)
	assert.GreaterOrEqual(t, store.donations["donation-p"].Products[0].Remaining, 0)
}

func TestRejectRequiresReason(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m", RequestID: "request-m", ActingUser: "recipient-1", All: true,
	})
	require.NoError(t, err)

	_, err = m.Reject(context.Background(), txn.ID, "", "donor-1")
	assert.ErrorIs(t, err, types.ErrMissingReason)

	rejected, err := m.Reject(context.Background(), txn.ID, "out of stock", "donor-1")
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "out of stock", *rejected.RejectionReason)

	// nothing was ever reserved, parents untouched
	assert.Equal(t, 10, store.donations["donation-m"].NumberOfMeals)
	assert.Equal(t, 10, store.requests["request-m"].NumberOfMeals)
	assert.Equal(t, types.StatusOpen, store.donations["donation-m"].Status)
}

func TestRejectOnlyCounterpart(t *testing.T) {
	store := newMemStore()
	mealFixture(store)
	m := newTestManager(store, &stubNotifier{})

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m", RequestID: "request-m", ActingUser: "donor-1", All: true,
	})
	require.NoError(t, err)

	_, err = m.Reject(context.Background(), txn.ID, "no", "donor-1")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	notifier := &stubNotifier{err: fmt.Errorf("broker down")}
	mealFixture(store)
	m := newTestManager(store, notifier)

	txn, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m", RequestID: "request-m", ActingUser: "recipient-1", All: true,
	})
	require.NoError(t, err)
	require.NotNil(t, txn)

	_, err = m.Approve(context.Background(), txn.ID, "donor-1")
	assert.NoError(t, err)
}

func TestInvalidateForEntity(t *testing.T) {
	store := newMemStore()
	notifier := &stubNotifier{}
	mealFixture(store)
	productFixture(store)
	m := newTestManager(store, notifier)

	t1, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-m", RequestID: "request-m", ActingUser: "recipient-1", All: true,
	})
	require.NoError(t, err)

	t2, err := m.Create(context.Background(), CreateInput{
		DonationID: "donation-p", RequestID: "request-p", ActingUser: "recipient-1",
		Lines: []LineRequest{{Ref: "rice", Quantity: 2}},
	})
	require.NoError(t, err)

	err = m.InvalidateForEntity(context.Background(), "donation-m", "donation was deleted by its owner", "donor-1")
	require.NoError(t, err)

	gone, err := store.Transaction(context.Background(), t1.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusRejected, gone.Status)

	// unrelated pending transaction untouched
	kept, err := store.Transaction(context.Background(), t2.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TransactionStatusPending, kept.Status)
}
