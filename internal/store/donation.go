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

const donationTableName = "foodbridge.donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.Donation, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, r.pool, donation, query, args...)
	if err != nil && !pgxscan.NotFound(err) {
		return nil, err
	}

	if err != nil {
		return nil, types.ErrDonationNotFound
	}

	return donation, nil
}

func (r *DonationRepository) DonationsByDonor(ctx context.Context, donorID string) ([]*types.Donation, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"donor_id": donorID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations by donor query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, r.pool, &donations, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch donations")
	}

	return donations, nil
}

func (r *DonationRepository) DonationsByStatus(ctx context.Context, status types.EntityStatus) ([]*types.Donation, error) {

	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"status": status}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations by status query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, r.pool, &donations, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch donations")
	}

	return donations, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {

	now := time.Now()
	donation.ID = utils.NanoID()
	donation.Status = types.StatusOpen
	donation.Version = 1
	donation.CreatedAt = now
	donation.UpdatedAt = now

	donationMap := utils.StructToMap(donation)

	query, args, err := psql().Insert(donationTableName).SetMap(donationMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create donation")
}

func (r *DonationRepository) UpdateDonation(ctx context.Context, donationID string, donation *types.Donation) error {

	donation.ID = donationID
	donation.UpdatedAt = time.Now()

	donationMap := utils.StructToMap(donation)
	delete(donationMap, "version")

	query, args, err := psql().Update(donationTableName).SetMap(donationMap).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": donationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update donation query for donation %s: %w", donationID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update donation")
}

func (r *DonationRepository) DeleteDonation(ctx context.Context, donationID string) error {

	query, args, err := psql().Delete(donationTableName).Where(sq.Eq{"id": donationID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete donation query for donation %s: %w", donationID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to delete donation")
}
