package main

import (
	"fmt"

	"shift-match/internal/config"
	"shift-match/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appName = "shift-match"

var (
	cfgFile string
	v       = viper.New()

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "shift-match proposes nearby workers for part-time jobs and manages the lead lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a YAML config file; environment variables take precedence")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	cobra.CheckErr(v.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug")))
	cobra.CheckErr(v.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json")))

	rootCmd.AddCommand(serveCmd, sweepCmd, migrateCmd, seedCmd)
}

// setup loads the configuration and builds the process logger.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	l, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, l.With(zap.String("env", cfg.App.Environment)), nil
}
