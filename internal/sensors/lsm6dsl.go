// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// LSM6DSL register addresses.
const (
	lsmWhoAmI  = 0x0F
	lsmCtrl1XL = 0x10
	lsmCtrl2G  = 0x11
	lsmCtrl3C  = 0x12
	lsmOutGL   = 0x22
	lsmOutXLL  = 0x28

	lsmWhoAmIValue = 0x6A
)

// Register values written at startup.
const (
	lsmCtrl1XLValue = 0x40 // 104 Hz, ±2 g
	lsmCtrl2GValue  = 0x40 // 104 Hz, ±250 dps
	lsmCtrl3CValue  = 0x44 // BDU, IF_INC
)

// LSM6DSLAddrs are probed in order when no address is configured.
var LSM6DSLAddrs = []uint16{0x6A, 0x6B}

// ErrNoDevice is returned when no probed address answers WHO_AM_I correctly.
var ErrNoDevice = errors.New("lsm6dsl: no device found")

// LSM6DSL reads accelerometer and gyroscope counts over I2C.
type LSM6DSL struct {
	dev    *i2c.Dev
	logger *zap.Logger
}

// NewLSM6DSL finds the sensor on bus and configures it for 104 Hz sampling.
// addr 0 probes LSM6DSLAddrs.
func NewLSM6DSL(bus i2c.Bus, addr uint16, logger *zap.Logger) (*LSM6DSL, error) {
	addrs := LSM6DSLAddrs
	if addr != 0 {
		addrs = []uint16{addr}
	}

	var found *i2c.Dev
	for _, a := range addrs {
		d := &i2c.Dev{Bus: bus, Addr: a}
		id, err := readReg(d, lsmWhoAmI)
		if err != nil {
			logger.Debug("lsm6dsl probe failed", zap.String("addr", fmt.Sprintf("0x%02X", a)), zap.Error(err))
			continue
		}
		if id == lsmWhoAmIValue {
			found = d
			break
		}
		logger.Debug("lsm6dsl unexpected WHO_AM_I",
			zap.String("addr", fmt.Sprintf("0x%02X", a)),
			zap.String("who_am_i", fmt.Sprintf("0x%02X", id)))
	}
	if found == nil {
		return nil, fmt.Errorf("%w at %v", ErrNoDevice, addrs)
	}
	logger.Info("found LSM6DSL", zap.String("addr", fmt.Sprintf("0x%02X", found.Addr)))

	s := &LSM6DSL{dev: found, logger: logger}
	if err := s.configure(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LSM6DSL) configure() error {
	writes := []struct{ reg, val byte }{
		{lsmCtrl1XL, lsmCtrl1XLValue},
		{lsmCtrl2G, lsmCtrl2GValue},
		{lsmCtrl3C, lsmCtrl3CValue},
	}
	for _, w := range writes {
		if err := s.WriteRegister(w.reg, w.val); err != nil {
			return fmt.Errorf("lsm6dsl: configure 0x%02X: %w", w.reg, err)
		}
	}

	var back [3]byte
	for i, w := range writes {
		v, err := s.ReadRegister(w.reg)
		if err != nil {
			return fmt.Errorf("lsm6dsl: read back 0x%02X: %w", w.reg, err)
		}
		back[i] = v
	}
	s.logger.Info("lsm6dsl configured",
		zap.String("ctrl1_xl", fmt.Sprintf("%02X", back[0])),
		zap.String("ctrl2_g", fmt.Sprintf("%02X", back[1])),
		zap.String("ctrl3_c", fmt.Sprintf("%02X", back[2])))
	return nil
}

// Addr returns the bus address the sensor answered on.
func (s *LSM6DSL) Addr() uint16 { return s.dev.Addr }

// ReadAxes burst-reads the six output bytes of one group.
func (s *LSM6DSL) ReadAxes(g imu.Group) (x, y, z int16, err error) {
	reg := byte(lsmOutXLL)
	if g == imu.Gyro {
		reg = lsmOutGL
	}
	var buf [6]byte
	if err := s.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("lsm6dsl: read %s: %w", g, err)
	}
	return int16(binary.LittleEndian.Uint16(buf[0:])),
		int16(binary.LittleEndian.Uint16(buf[2:])),
		int16(binary.LittleEndian.Uint16(buf[4:])),
		nil
}

// ReadRegister reads a single register.
func (s *LSM6DSL) ReadRegister(reg byte) (byte, error) {
	return readReg(s.dev, reg)
}

// WriteRegister writes a single register.
func (s *LSM6DSL) WriteRegister(reg, value byte) error {
	return s.dev.Tx([]byte{reg, value}, nil)
}

// RegisterMap returns the LSM6DSL register descriptions.
func (s *LSM6DSL) RegisterMap() []RegisterInfo { return lsm6dslRegisterMap() }

func readReg(d *i2c.Dev, reg byte) (byte, error) {
	var v [1]byte
	if err := d.Tx([]byte{reg}, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}
