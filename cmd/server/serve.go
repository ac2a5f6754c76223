package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"shift-match/internal/app"
	"shift-match/internal/config"
	"shift-match/internal/database/migration"
	"shift-match/internal/database/seeder"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	migrateOnStart bool
	seedDemo       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, websocket notifications and the expiration sweeper",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := cleanup(); err != nil {
				log.Warn("cleanup", zap.Error(err))
			}
		}()

		if migrateOnStart && cfg.Store.Driver == config.StorePostgres {
			r := migration.Runner{Dir: cfg.Database.MigrationsDir, Logger: log.Named("migration")}
			if err := r.Run(ctx, bootstrap.Container.DB.SQLDB()); err != nil {
				return err
			}
		}

		if seedDemo && bootstrap.Container.Memory != nil {
			seeder.SeedMemory(bootstrap.Container.Memory, seeder.DemoData(time.Now()))
			log.Info("demo data loaded into memory store")
		}

		addr, err := app.ListenAddr(cfg.App.HTTPPort)
		if err != nil {
			return err
		}

		bootstrap.Start(ctx)

		errCh := make(chan error, 1)
		go func() {
			errCh <- bootstrap.Fiber.Listen(addr)
		}()
		log.Info("listening", zap.String("addr", addr), zap.String("store", cfg.Store.Driver))

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
				log.Warn("shutdown", zap.Error(err))
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	serveCmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "load demo jobs and workers when running on the memory store")
}
