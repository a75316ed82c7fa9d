package seed

import (
	"context"

	"foodbridge/internal/store"
	"foodbridge/internal/utils"
	"foodbridge/pkg/types"
)

func SeedRequests(ctx context.Context, repo *store.RequestRepository) error {

	requests := []*types.RequestNeed{
		{
			RecipientID: RecipientUserID,
			Category:    types.CategoryPackagedProducts,
			Description: utils.StringPtr("Restocking the shelter pantry"),
			RequestedProducts: types.LineItems{
				{Ref: ProductRiceID, Name: "Rice (1kg bag)", Quantity: 12, Remaining: 12},
				{Ref: ProductPastaID, Name: "Pasta (500g box)", Quantity: 24, Remaining: 24},
			},
		},
		{
			RecipientID:   RecipientUserID,
			Category:      types.CategoryPreparedMeals,
			Description:   utils.StringPtr("Evening meal service"),
			NumberOfMeals: 25,
			OriginalMeals: 25,
			RequestedMeals: types.LineItems{
				{Ref: MealSoupID, Name: "Vegetable soup", Quantity: 15, Remaining: 15},
				{Ref: MealStewID, Name: "Lentil stew", Quantity: 10, Remaining: 10},
			},
		},
	}

	for _, request := range requests {
		if err := repo.CreateRequest(ctx, request); err != nil {
			return err
		}
	}

	return nil
}
