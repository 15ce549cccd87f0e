// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app holds the entry points behind the cmd binaries: the detector
// itself and the tools that watch it over MQTT.
package app

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/logging"
)

// ErrNoBroker is returned by the tools that only read the detector's MQTT feed
// when no broker is configured.
var ErrNoBroker = errors.New("MQTT_BROKER is required")

// Setup loads the global configuration and builds the service logger.
// An empty path runs on defaults. The returned config is a private copy, so
// flag overrides never reach the global one.
func Setup(configPath, service string) (*config.Config, *zap.Logger, error) {
	var cfg *config.Config
	if configPath == "" {
		cfg = config.Default()
	} else {
		if err := config.InitGlobal(configPath); err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = config.Get().Clone()
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, service)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func requireBroker(cfg *config.Config, tool string) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("%w for %s: set it in the config file", ErrNoBroker, tool)
	}
	return nil
}
