package seed

import (
	"context"

	"foodbridge/internal/store"
	"foodbridge/internal/utils"
	"foodbridge/pkg/types"
)

func SeedDonations(ctx context.Context, repo *store.DonationRepository) error {

	donations := []*types.Donation{
		{
			DonorID:     DonorUserID,
			Category:    types.CategoryPackagedProducts,
			Description: utils.StringPtr("Surplus dry goods from weekend drive"),
			Products: types.LineItems{
				{Ref: ProductRiceID, Name: "Rice (1kg bag)", Quantity: 20, Remaining: 20},
				{Ref: ProductBeansID, Name: "Canned beans", Quantity: 48, Remaining: 48},
			},
		},
		{
			DonorID:       DonorUserID,
			Category:      types.CategoryPreparedMeals,
			Description:   utils.StringPtr("Friday community kitchen batch"),
			NumberOfMeals: 30,
			OriginalMeals: 30,
			Meals: types.LineItems{
				{Ref: MealSoupID, Name: "Vegetable soup", Quantity: 18, Remaining: 18},
				{Ref: MealStewID, Name: "Lentil stew", Quantity: 12, Remaining: 12},
			},
		},
	}

	for _, donation := range donations {
		if err := repo.CreateDonation(ctx, donation); err != nil {
			return err
		}
	}

	return nil
}
