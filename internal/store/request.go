package store

import (
	"context"
	"fmt"
	"time"

	"foodbridge/internal/utils"
	"foodbridge/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestTableName = "foodbridge.request_needs"

var requestColumns = utils.StructTagValues(types.RequestNeed{})

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.RequestNeed, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request = new(types.RequestNeed)
	err = pgxscan.Get(ctx, r.pool, request, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrRequestNotFound
	}

	return request, nil
}

func (r *RequestRepository) RequestsByRecipient(ctx context.Context, recipientID string) ([]*types.RequestNeed, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"recipient_id": recipientID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by recipient query: %w", err)
	}

	var requests = make([]*types.RequestNeed, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch requests")
	}

	return requests, nil
}

func (r *RequestRepository) RequestsByStatus(ctx context.Context, status types.EntityStatus) ([]*types.RequestNeed, error) {

	query, args, err := psql().Select(requestColumns...).From(requestTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests by status query: %w", err)
	}

	var requests = make([]*types.RequestNeed, 0)
	err = pgxscan.Select(ctx, r.pool, &requests, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch requests")
	}

	return requests, nil
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.RequestNeed) error {

	now := time.Now()
	request.ID = utils.NanoID()
	request.Status = types.StatusOpen
	request.Version = 1
	request.CreatedAt = now
	request.UpdatedAt = now

	requestMap := utils.StructToMap(request)

	query, args, err := psql().Insert(requestTableName).SetMap(requestMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert request query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")
}

func (r *RequestRepository) UpdateRequest(ctx context.Context, requestID string, request *types.RequestNeed) error {

	request.ID = requestID
	request.UpdatedAt = time.Now()

	requestMap := utils.StructToMap(request)
	delete(requestMap, "version")

	query, args, err := psql().Update(requestTableName).SetMap(requestMap).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": requestID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update request query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update request")
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, requestID string) error {

	query, args, err := psql().Delete(requestTableName).Where(sq.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete request query for request %s: %w", requestID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete request")
}
