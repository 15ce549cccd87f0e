// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"io"
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
	flagAddr   string
	flagDump   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "register_debug",
		Short: "Inspect and poke IMU registers (standalone, talks to the sensor directly)",
		Long: `register_debug opens the configured sensor and serves a page to read,
write and export its registers. Writes are limited to registers the
register map marks writable. Stop the detector first, both want the bus.

With --dump it prints every readable register and exits.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", config.DefaultPath, "path to configuration file (empty for defaults)")
	rootCmd.Flags().StringVar(&flagAddr, "addr", ":8081", "listen address")
	rootCmd.Flags().BoolVar(&flagDump, "dump", false, "print all registers and exit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := app.Setup(flagConfig, "register_debug")
	if err != nil {
		return err
	}
	defer logger.Sync()

	var out io.Writer
	if flagDump {
		out = os.Stdout
	} else {
		logger.Info("register debug tool", zap.String("addr", flagAddr))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunRegisterDebug(ctx, cfg, logger, flagAddr, out)
}
