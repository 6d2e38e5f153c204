package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/delivery/internal/storage/postgres"
)

const migrateTimeout = 30 * time.Second

func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage PostgreSQL schema migrations",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: DELIVERY_POSTGRES_DSN)")

	var upSteps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), dsn, func(ctx context.Context, store *postgres.Store) error {
				applied, err := store.MigrateUp(ctx, upSteps)
				if err != nil {
					return fmt.Errorf("migrate up failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrate up ok: applied=%d\n", applied)
				return nil
			})
		},
	}
	up.Flags().IntVar(&upSteps, "steps", 0, "number of migrations to apply (0 = all)")

	var downSteps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), dsn, func(ctx context.Context, store *postgres.Store) error {
				reverted, err := store.MigrateDown(ctx, downSteps)
				if err != nil {
					return fmt.Errorf("migrate down failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrate down ok: reverted=%d\n", reverted)
				return nil
			})
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), dsn, func(ctx context.Context, store *postgres.Store) error {
				infos, err := store.MigrationStatus(ctx)
				if err != nil {
					return fmt.Errorf("migration status failed: %w", err)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
				for _, info := range infos {
					state, appliedAt := "pending", "-"
					if info.Applied {
						state, appliedAt = "applied", info.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%04d\t%s\t%s\t%s\n", info.Version, info.Name, state, appliedAt)
				}
				return w.Flush()
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func resolveDSN(flagDSN string) (string, error) {
	if dsn := strings.TrimSpace(flagDSN); dsn != "" {
		return dsn, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.PostgresDSN == "" {
		return "", fmt.Errorf("DELIVERY_POSTGRES_DSN (or --dsn) is required")
	}
	return cfg.PostgresDSN, nil
}

func withStore(parent context.Context, flagDSN string, fn func(ctx context.Context, store *postgres.Store) error) error {
	dsn, err := resolveDSN(flagDSN)
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, migrateTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	return fn(ctx, store)
}
