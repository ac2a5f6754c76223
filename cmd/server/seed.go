package main

import (
	"context"
	"fmt"
	"time"

	"shift-match/internal/config"
	dbpostgres "shift-match/internal/database/postgres"
	"shift-match/internal/database/seeder"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo jobs and workers into Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if cfg.Store.Driver != config.StorePostgres {
			return fmt.Errorf("seed requires STORE_DRIVER=%s; use serve --seed-demo for the memory store", config.StorePostgres)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db, err := dbpostgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		r := seeder.Runner{Seeders: seeder.Defaults(seeder.DemoData(time.Now())), Logger: log.Named("seed")}
		return r.Run(ctx, db)
	},
}
