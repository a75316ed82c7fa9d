package store

import (
	"context"
	"fmt"
	"time"

	"foodbridge/internal/utils"
	"foodbridge/pkg/types"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	productTableName = "foodbridge.products"
	mealTableName    = "foodbridge.meals"
)

var (
	productColumns = utils.StructTagValues(types.Product{})
	mealColumns    = utils.StructTagValues(types.Meal{})
)

// CatalogRepository resolves line identity (name, unit, serving) for
// display. Read-only at request time; writes exist only for seeding.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) Products(ctx context.Context) ([]*types.Product, error) {

	query, args, err := psql().Select(productColumns...).From(productTableName).
		OrderBy("name asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate products query: %w", err)
	}

	var products = make([]*types.Product, 0)
	err = pgxscan.Select(ctx, r.pool, &products, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch products")
	}

	return products, nil
}

func (r *CatalogRepository) Meals(ctx context.Context) ([]*types.Meal, error) {

	query, args, err := psql().Select(mealColumns...).From(mealTableName).
		OrderBy("name asc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate meals query: %w", err)
	}

	var meals = make([]*types.Meal, 0)
	err = pgxscan.Select(ctx, r.pool, &meals, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch meals")
	}

	return meals, nil
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *types.Product) error {

	if product.ID == "" {
		product.ID = utils.NanoID()
	}
	product.CreatedAt = time.Now()

	query, args, err := psql().Insert(productTableName).SetMap(utils.StructToMap(product)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert product query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create product")
}

func (r *CatalogRepository) CreateMeal(ctx context.Context, meal *types.Meal) error {

	if meal.ID == "" {
		meal.ID = utils.NanoID()
	}
	meal.CreatedAt = time.Now()

	query, args, err := psql().Insert(mealTableName).SetMap(utils.StructToMap(meal)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert meal query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create meal")
}
