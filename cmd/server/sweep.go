package main

import (
	"context"
	"fmt"
	"time"

	"shift-match/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue proposals once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		c, err := app.NewContainer(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		n, err := c.Sweeper.Sweep(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		log.Info("sweep finished", zap.Int("expired", n))
		fmt.Fprintf(cmd.OutOrStdout(), "expired %d matches\n", n)
		return nil
	},
}
