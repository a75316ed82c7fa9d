package main

import (
	"context"
	"fmt"

	"foodbridge/internal/db"
	"foodbridge/internal/seed"
	"foodbridge/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with initial data",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		userRepo := store.NewUserRepository(pool)
		catalogRepo := store.NewCatalogRepository(pool)
		donationRepo := store.NewDonationRepository(pool)
		requestRepo := store.NewRequestRepository(pool)

		logrus.Info("Seeding users...")
		if err := seed.SeedUsers(ctx, userRepo); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		logrus.Info("Seeding catalog...")
		if err := seed.SeedCatalog(ctx, catalogRepo); err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}

		logrus.Info("Seeding donations...")
		if err := seed.SeedDonations(ctx, donationRepo); err != nil {
			return fmt.Errorf("failed to seed donations: %w", err)
		}

		logrus.Info("Seeding requests...")
		if err := seed.SeedRequests(ctx, requestRepo); err != nil {
			return fmt.Errorf("failed to seed requests: %w", err)
		}

		donations, err := donationRepo.DonationsByDonor(ctx, seed.DonorUserID)
		if err != nil {
			return err
		}
		pp.Println(donations)

		logrus.Info("Seed data created successfully")

		return nil
	},
}
