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

var flagConfig string

func main() {
	rootCmd := &cobra.Command{
		Use:          "console_mqtt",
		Short:        "Print detector events from the MQTT broker",
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultPath, "path to configuration file (empty for defaults)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := app.Setup(flagConfig, "console_mqtt")
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunConsoleMQTT(ctx, cfg, logger)
}
