package main

import (
	"errors"

	pg "pet-records/internal/adapters/storage/postgres"
	"pet-records/internal/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica el schema de Postgres (idempotente)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is required")
		}

		db, err := pg.Open(cfg.Database.DSN, 2, 1)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := pg.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		cmd.Println("schema up to date")
		return nil
	},
}
