package main

import (
	"context"
	"fmt"
	"time"

	"shift-match/internal/config"
	"shift-match/internal/database/migration"
	dbpostgres "shift-match/internal/database/postgres"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if cfg.Store.Driver != config.StorePostgres {
			return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StorePostgres)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		r := migration.Runner{Dir: cfg.Database.MigrationsDir, Logger: log.Named("migration")}
		return r.Run(ctx, db.SQLDB())
	},
}
