package store

import (
	"context"
	"fmt"
	"time"

	"foodbridge/internal/ledger"
	"foodbridge/internal/utils"
	"foodbridge/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// CommitApproval applies a pending transaction's allocation as a single
// atomic unit: re-validate against live quantities, decrement both parents,
// flip the transaction to approved and record the audit event. Row locks are
// taken in a fixed order (transaction, donation, request) so concurrent
// approvals touching the same pair serialize instead of deadlocking; the
// second one observes the first's committed quantities and fails with
// AllocationStaleError.
func (r *TransactionRepository) CommitApproval(ctx context.Context, transactionID, actorID string) (*types.CommitResult, error) {

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin approval transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txn, err := lockTransaction(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	if txn.Status.Terminal() {
		return nil, types.ErrInvalidState
	}

	donation, err := lockDonation(ctx, tx, txn.DonationID)
	if err != nil {
		return nil, err
	}

	request, err := lockRequest(ctx, tx, txn.RequestID)
	if err != nil {
		return nil, err
	}

	// Phase 1: validate against current state, abort if stale.
	if err := ledger.ValidateCommit(donation, request, txn); err != nil {
		return nil, err
	}

	// Phase 2: commit.
	ledger.Apply(donation, request, txn)

	now := time.Now()
	donation.Version++
	donation.UpdatedAt = now
	request.Version++
	request.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`UPDATE `+donationTableName+`
		 SET products = $1, meals = $2, number_of_meals = $3, status = $4, version = $5, updated_at = $6
		 WHERE id = $7`,
		donation.Products, donation.Meals, donation.NumberOfMeals, donation.Status,
		donation.Version, donation.UpdatedAt, donation.ID,
	)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to commit donation quantities")
	}

	_, err = tx.Exec(ctx,
		`UPDATE `+requestTableName+`
		 SET requested_products = $1, requested_meals = $2, number_of_meals = $3, status = $4, version = $5, updated_at = $6
		 WHERE id = $7`,
		request.RequestedProducts, request.RequestedMeals, request.NumberOfMeals, request.Status,
		request.Version, request.UpdatedAt, request.ID,
	)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to commit request quantities")
	}

	txn.Status = types.TransactionStatusApproved
	txn.UpdatedAt = now

	_, err = tx.Exec(ctx,
		`UPDATE `+transactionTableName+` SET status = $1, updated_at = $2 WHERE id = $3`,
		txn.Status, txn.UpdatedAt, txn.ID,
	)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to flip transaction status")
	}

	if err = insertEvent(ctx, tx, txn.ID, types.EventKindApproved, actorID, nil); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	return &types.CommitResult{Transaction: txn, Donation: donation, Request: request}, nil
}

func lockTransaction(ctx context.Context, tx pgx.Tx, transactionID string) (*types.DonationTransaction, error) {

	query, args, err := psql().Select(transactionColumns...).From(transactionTableName).
		Where(sq.Eq{"id": transactionID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction lock query: %w", err)
	}

	var txn = new(types.DonationTransaction)
	err = pgxscan.Get(ctx, tx, txn, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, types.ErrTransactionNotFound
	}

	return txn, nil
}

func lockDonation(ctx context.Context, tx pgx.Tx, donationID string) (*types.Donation, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation lock query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, tx, donation, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, types.ErrDonationNotFound
	}

	return donation, nil
}

func lockRequest(ctx context.Context, tx pgx.Tx, requestID string) (*types.RequestNeed, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request lock query: %w", err)
	}

	var request = new(types.RequestNeed)
	err = pgxscan.Get(ctx, tx, request, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}
	if err != nil {
		return nil, types.ErrRequestNotFound
	}

	return request, nil
}
