// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// MPU9250 full-scale selections giving the same counts-per-unit as the
// LSM6DSL at ±2 g. The gyro is ±250 dps, so GYR_LSB should be 0.00763.
const (
	mpuAccelRange2G    = 0
	mpuGyroRange250DPS = 0
)

type mpu9250Source struct {
	imu *mpu9250.MPU9250
}

// NewMPU9250 initializes an MPU9250 over SPI. The caller has already run
// host.Init.
func NewMPU9250(spiDev, csPin string, logger *zap.Logger) (imu.AxisReader, error) {
	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("mpu9250: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: SPI transport (%s): %w", spiDev, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("mpu9250: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("mpu9250: initialization: %w", err)
	}
	if err := dev.SetAccelRange(mpuAccelRange2G); err != nil {
		return nil, fmt.Errorf("mpu9250: set accel range: %w", err)
	}
	if err := dev.SetGyroRange(mpuGyroRange250DPS); err != nil {
		return nil, fmt.Errorf("mpu9250: set gyro range: %w", err)
	}
	logger.Info("mpu9250 ready", zap.String("spi", spiDev), zap.String("cs", csPin))

	return &mpu9250Source{imu: dev}, nil
}

func (s *mpu9250Source) ReadAxes(g imu.Group) (x, y, z int16, err error) {
	if g == imu.Gyro {
		if x, err = s.imu.GetRotationX(); err != nil {
			return 0, 0, 0, fmt.Errorf("mpu9250 gyro X: %w", err)
		}
		if y, err = s.imu.GetRotationY(); err != nil {
			return 0, 0, 0, fmt.Errorf("mpu9250 gyro Y: %w", err)
		}
		if z, err = s.imu.GetRotationZ(); err != nil {
			return 0, 0, 0, fmt.Errorf("mpu9250 gyro Z: %w", err)
		}
		return x, y, z, nil
	}

	if x, err = s.imu.GetAccelerationX(); err != nil {
		return 0, 0, 0, fmt.Errorf("mpu9250 accel X: %w", err)
	}
	if y, err = s.imu.GetAccelerationY(); err != nil {
		return 0, 0, 0, fmt.Errorf("mpu9250 accel Y: %w", err)
	}
	if z, err = s.imu.GetAccelerationZ(); err != nil {
		return 0, 0, 0, fmt.Errorf("mpu9250 accel Z: %w", err)
	}
	return x, y, z, nil
}
