package main

import (
	"fmt"

	"github.com/margem-saas/margem-backend/internal/config"
	"github.com/margem-saas/margem-backend/internal/repository/postgres"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		pool, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(cmd.Context(), pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("Schema is up to date")
		return nil
	},
}
