// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/app"
	"github.com/relabs-tech/tremor_detector/internal/config"
)

var (
	flagConfig string
	flagSensor string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "detector",
		Short: "Tremor and dyskinesia detector (IMU -> indicators, MQTT, history)",
		Long: `detector samples the wrist IMU, calibrates a resting baseline and then
classifies every window as tremor, dyskinesia or no motion. Decisions
drive the indicator LEDs and are published to MQTT and the history
database when those are configured.

Keep the sensor still for the first seconds while it calibrates.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultPath, "path to configuration file (empty for defaults)")
	rootCmd.Flags().StringVar(&flagSensor, "sensor", "", "override SENSOR_KIND (lsm6dsl, mpu9250, serial, mock)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := app.Setup(flagConfig, "detector")
	if err != nil {
		return err
	}
	defer logger.Sync()

	if flagSensor != "" {
		if err := cfg.Set("SENSOR_KIND", flagSensor); err != nil {
			return fmt.Errorf("--sensor: %w", err)
		}
	}
	logger.Info("starting tremor detector", zap.String("sensor", cfg.SensorKind), zap.String("actuation", cfg.ActuationMode))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunDetector(ctx, cfg, logger); err != nil {
		logger.Error("detector stopped", zap.Error(err))
		return err
	}
	logger.Info("detector stopped")
	return nil
}
