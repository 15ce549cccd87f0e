// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/app"
	"github.com/relabs-tech/tremor_detector/internal/config"
)

var (
	flagConfig  string
	flagMock    bool
	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Run the detector in-process and print every window",
		Long: `console runs the same pipeline as detector but prints each calibration
and window to the terminal. Use --mock to try it without hardware.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultPath, "path to configuration file (empty for defaults)")
	rootCmd.Flags().BoolVar(&flagMock, "mock", false, "use the synthetic sensor")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print per-channel features")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := app.Setup(flagConfig, "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	if flagMock {
		if err := cfg.Set("SENSOR_KIND", "mock"); err != nil {
			return err
		}
	}
	logger.Info("starting console", zap.String("sensor", cfg.SensorKind))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunConsole(ctx, cfg, logger, os.Stdout, flagVerbose)
}
