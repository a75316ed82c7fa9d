package seed

import (
	"context"

	"foodbridge/internal/store"
	"foodbridge/internal/utils"
	"foodbridge/pkg/types"
)

const (
	ProductRiceID  = "seedProductRice00000000000000001"
	ProductPastaID = "seedProductPasta0000000000000002"
	ProductBeansID = "seedProductBeans0000000000000003"

	MealSoupID = "seedMealSoup00000000000000000001"
	MealStewID = "seedMealStew00000000000000000002"
)

func SeedCatalog(ctx context.Context, repo *store.CatalogRepository) error {

	products := []*types.Product{
		{ID: ProductRiceID, Name: "Rice (1kg bag)", Unit: "bag", WeightGrams: utils.IntPtr(1000)},
		{ID: ProductPastaID, Name: "Pasta (500g box)", Unit: "box", WeightGrams: utils.IntPtr(500)},
		{ID: ProductBeansID, Name: "Canned beans", Unit: "can", WeightGrams: utils.IntPtr(400)},
	}

	for _, product := range products {
		if err := repo.CreateProduct(ctx, product); err != nil {
			return err
		}
	}

	meals := []*types.Meal{
		{ID: MealSoupID, Name: "Vegetable soup", ServingSize: utils.StringPtr("400ml")},
		{ID: MealStewID, Name: "Lentil stew", ServingSize: utils.StringPtr("450ml")},
	}

	for _, meal := range meals {
		if err := repo.CreateMeal(ctx, meal); err != nil {
			return err
		}
	}

	return nil
}
