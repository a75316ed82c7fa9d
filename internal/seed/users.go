package seed

import (
	"context"

	"foodbridge/internal/store"
	"foodbridge/pkg/types"
)

// Stable ids so donations and requests can reference their owners across
// repeated seeding runs.
const (
	DonorUserID     = "seedDonorPantry0000000000000000a"
	RecipientUserID = "seedRecipientShelter00000000000b"
)

func SeedUsers(ctx context.Context, repo *store.UserRepository) error {

	users := []*types.User{
		{ID: DonorUserID, DisplayName: "Harvest Lane Pantry", Role: types.UserRoleDonor},
		{ID: RecipientUserID, DisplayName: "Northside Shelter", Role: types.UserRoleRecipient},
	}

	for _, user := range users {
		if err := repo.CreateUser(ctx, user); err != nil {
			return err
		}
	}

	return nil
}
