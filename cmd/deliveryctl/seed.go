package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/delivery/internal/app"
)

const seedTimeout = time.Minute

func newSeedCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo restaurants, customers, products and orders",
		Long: "Load demo data into the configured storage. Existing records are kept, " +
			"so running the command twice creates nothing new.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dsn != "" {
				cfg.StorageDriver = app.StorageDriverPostgres
				cfg.PostgresDSN = dsn
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, cancel := context.WithTimeout(parent, seedTimeout)
			defer cancel()

			summary, err := app.SeedStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seed ok: restaurants=%d customers=%d products=%d orders=%d\n",
				summary.Restaurants, summary.Customers, summary.Products, summary.Orders)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN; selects postgres storage")
	return cmd
}
