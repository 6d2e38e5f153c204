package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/delivery/internal/app"
	"github.com/vladislavdragonenkov/delivery/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deliveryctl",
		Short:         "Operational CLI for the delivery service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.LoadDotEnv(); err != nil {
				return err
			}
			level, _ := cmd.Flags().GetString("log-level")
			return app.ConfigureLogging(level)
		},
	}
	root.PersistentFlags().String("log-level", "warn", "logrus level")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newEventsCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Current().String())
		},
	})
	return root
}

// loadConfig читает конфигурацию сервиса из окружения.
func loadConfig() (app.Config, error) {
	return app.ConfigFromEnv()
}
