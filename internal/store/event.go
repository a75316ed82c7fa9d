package store

import (
	"context"
	"fmt"

	"foodbridge/internal/utils"
	"foodbridge/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

var eventColumns = utils.StructTagValues(types.TransactionEvent{})

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// EventsByTransaction returns the audit trail for a transaction, ordered
// chronologically.
func (r *EventRepository) EventsByTransaction(ctx context.Context, transactionID string) ([]*types.TransactionEvent, error) {

	query, args, err := psql().
		Select(eventColumns...).
		From(eventTableName).
		Where(sq.Eq{"transaction_id": transactionID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate get events query: %w", err)
	}

	var events []*types.TransactionEvent
	err = pgxscan.Select(ctx, r.pool, &events, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to get transaction events")
	}

	return events, nil
}
