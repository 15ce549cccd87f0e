// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the sample sources the detector reads from:
// an LSM6DSL over I2C, an MPU9250 over SPI, a serial RAW line stream and a
// synthetic mock.
package sensors

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/imu"
)

const i2cSpeed = 400 * physic.KiloHertz

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the sample source selected by cfg.SensorKind. The returned
// closer releases the bus or port.
func Open(cfg *config.Config, logger *zap.Logger) (imu.AxisReader, io.Closer, error) {
	logger = logger.With(zap.String("sensor", cfg.SensorKind))

	switch cfg.SensorKind {
	case "mock":
		logger.Info("using synthetic samples")
		return NewMockSource(cfg.SampleRateHz, DefaultMockTones()...), nopCloser{}, nil

	case "serial":
		src, err := OpenSerial(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("reading RAW lines", zap.String("port", cfg.SerialPort), zap.Int("baud", cfg.SerialBaud))
		return src, src, nil

	case "mpu9250":
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		src, err := NewMPU9250(cfg.IMUSPIDevice, cfg.IMUCSPin, logger)
		if err != nil {
			return nil, nil, err
		}
		return src, nopCloser{}, nil

	case "lsm6dsl", "":
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph host init: %w", err)
		}
		bus, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return nil, nil, fmt.Errorf("open I2C bus %q: %w", cfg.I2CBus, err)
		}
		if err := bus.SetSpeed(i2cSpeed); err != nil {
			logger.Warn("could not set I2C speed", zap.Error(err))
		}
		src, err := NewLSM6DSL(bus, cfg.I2CAddr, logger)
		if err != nil {
			bus.Close()
			return nil, nil, err
		}
		return src, bus, nil
	}

	return nil, nil, fmt.Errorf("unknown sensor kind %q", cfg.SensorKind)
}
