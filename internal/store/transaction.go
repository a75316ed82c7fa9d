package store

import (
	"context"
	"fmt"
	"time"

	"foodbridge/internal/utils"
	"foodbridge/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	transactionTableName = "foodbridge.donation_transactions"
	eventTableName       = "foodbridge.transaction_events"
)

var transactionColumns = utils.StructTagValues(types.DonationTransaction{})

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) Transaction(ctx context.Context, transactionID string) (*types.DonationTransaction, error) {

	query, args, err := psql().Select(transactionColumns...).From(transactionTableName).
		Where(sq.Eq{"id": transactionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction query: %w", err)
	}

	var txn = new(types.DonationTransaction)
	err = pgxscan.Get(ctx, r.pool, txn, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrTransactionNotFound
	}

	return txn, nil
}

// TransactionFilter narrows a transaction listing. Zero-valued fields are
// ignored.
type TransactionFilter struct {
	DonationID  string `form:"donation_id"`
	RequestID   string `form:"request_id"`
	DonorID     string `form:"donor_id"`
	RecipientID string `form:"recipient_id"`
	Status      string `form:"status"`
}

func (r *TransactionRepository) Transactions(ctx context.Context, filter TransactionFilter) ([]*types.DonationTransaction, error) {

	builder := psql().Select(transactionColumns...).From(transactionTableName)

	if filter.DonationID != "" {
		builder = builder.Where(sq.Eq{"donation_id": filter.DonationID})
	}
	if filter.RequestID != "" {
		builder = builder.Where(sq.Eq{"request_id": filter.RequestID})
	}
	if filter.DonorID != "" {
		builder = builder.Where(sq.Eq{"donor_id": filter.DonorID})
	}
	if filter.RecipientID != "" {
		builder = builder.Where(sq.Eq{"recipient_id": filter.RecipientID})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	query, args, err := builder.OrderBy("created_at desc").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transactions query: %w", err)
	}

	var txns = make([]*types.DonationTransaction, 0)
	err = pgxscan.Select(ctx, r.pool, &txns, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch transactions")
	}

	return txns, nil
}

func (r *TransactionRepository) PendingByEntity(ctx context.Context, entityID string) ([]*types.DonationTransaction, error) {

	query, args, err := psql().Select(transactionColumns...).From(transactionTableName).
		Where(sq.Eq{"status": types.TransactionStatusPending}).
		Where(sq.Or{sq.Eq{"donation_id": entityID}, sq.Eq{"request_id": entityID}}).
		OrderBy("created_at asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pending transactions query: %w", err)
	}

	var txns = make([]*types.DonationTransaction, 0)
	err = pgxscan.Select(ctx, r.pool, &txns, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch pending transactions")
	}

	return txns, nil
}

// CreateTransaction persists a pending transaction and its audit event in
// one database transaction.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, txn *types.DonationTransaction) error {

	now := time.Now()
	txn.ID = utils.NanoID()
	txn.Status = types.TransactionStatusPending
	txn.CreatedAt = now
	txn.UpdatedAt = now

	txnMap := utils.StructToMap(txn)

	query, args, err := psql().Insert(transactionTableName).SetMap(txnMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert transaction query: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, query, args...); err != nil {
		return utils.ErrorWrapOrNil(err, "failed to create transaction")
	}

	if err = insertEvent(ctx, tx, txn.ID, types.EventKindCreated, txn.InitiatorID, nil); err != nil {
		return err
	}

	return utils.ErrorWrapOrNil(tx.Commit(ctx), "failed to commit transaction insert")
}

// MarkRejected flips a pending transaction to rejected with its reason. The
// state check and the flip are one statement, so a concurrent approval and
// rejection cannot both land.
func (r *TransactionRepository) MarkRejected(ctx context.Context, transactionID, reason, actorID, kind string) error {

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE `+transactionTableName+`
		 SET status = $1, rejection_reason = $2, updated_at = $3
		 WHERE id = $4 AND status = $5`,
		types.TransactionStatusRejected, reason, time.Now(), transactionID, types.TransactionStatusPending,
	)
	if err != nil {
		return utils.ErrorWrapOrNil(err, "failed to reject transaction")
	}

	if ct.RowsAffected() == 0 {
		// Either missing or already terminal; look once more to tell which.
		var exists bool
		err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+transactionTableName+` WHERE id = $1)`, transactionID).Scan(&exists)
		if err != nil {
			return utils.ErrorWrapOrNil(err, "failed to check transaction existence")
		}
		if !exists {
			return types.ErrTransactionNotFound
		}
		return types.ErrInvalidState
	}

	if err = insertEvent(ctx, tx, transactionID, kind, actorID, &reason); err != nil {
		return err
	}

	return utils.ErrorWrapOrNil(tx.Commit(ctx), "failed to commit rejection")
}

func insertEvent(ctx context.Context, tx pgx.Tx, transactionID, kind, actorID string, detail *string) error {

	query, args, err := psql().Insert(eventTableName).
		Columns("id", "transaction_id", "kind", "actor_id", "detail", "created_at").
		Values(utils.NanoID(), transactionID, kind, actorID, detail, time.Now()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert event query: %w", err)
	}

	_, err = tx.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record transaction event")
}
