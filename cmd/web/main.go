// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/tremor_detector/internal/app"
	"github.com/relabs-tech/tremor_detector/internal/config"
)

var (
	flagConfig string
	flagPort   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the live dashboard (MQTT subscriber)",
		Long: `web subscribes to the detector topics and serves the dashboard, the
JSON API and a websocket feed. History comes from HISTORY_DB when set.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultPath, "path to configuration file (empty for defaults)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "override WEB_SERVER_PORT")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := app.Setup(flagConfig, "web")
	if err != nil {
		return err
	}
	defer logger.Sync()

	if flagPort != 0 {
		cfg.WebServerPort = flagPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunWeb(ctx, cfg, logger)
}
