package main

import (
	"storefront/internal/db"
	"storefront/internal/repository"
	"storefront/internal/seed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.NewGorm(a.cfg, a.log)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database.DB); err != nil {
				return err
			}
			a.log.Info("✓ Migrations applied")
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo accounts and starter catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.NewGorm(a.cfg, a.log)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database.DB); err != nil {
				return err
			}

			seeder := seed.NewSeeder(
				database.DB,
				repository.NewUserRepository(database.DB),
				repository.NewProductRepository(database.DB),
				a.log,
			)
			if err := seeder.Run(cmd.Context(), reset); err != nil {
				return err
			}

			a.log.Info("🚀 Database seeded successfully",
				zap.String("admin", seed.AdminEmail),
				zap.String("customer", seed.DemoEmail))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing users, products, carts, orders and analytics first")
	return cmd
}
