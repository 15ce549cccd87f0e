// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuation

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
)

// Driver applies one command per window. Tick is called for every sample
// tick of the following window.
type Driver interface {
	Apply(c Command) error
	Tick(i int) error
	Off() error
}

// IndependentDriver lights a dedicated indicator per condition.
type IndependentDriver struct {
	Tremor     Indicator
	Dyskinesia Indicator
	Status     Indicator
}

// Apply resets both condition indicators, then lights the active one.
func (d *IndependentDriver) Apply(c Command) error {
	err := errors.Join(d.Tremor.Set(0, 0), d.Dyskinesia.Set(0, 0))

	switch c.Action {
	case classifier.ActionTremor:
		err = errors.Join(err, d.Tremor.Set(c.Intensity, Hz(c.BlinkHz)))
	case classifier.ActionDyskinesia:
		err = errors.Join(err, d.Dyskinesia.Set(c.Intensity, Hz(c.BlinkHz)))
	}
	return errors.Join(err, setStatus(d.Status, c.Status))
}

func (d *IndependentDriver) Tick(int) error { return nil }

func (d *IndependentDriver) Off() error {
	return d.Apply(Command{})
}

// MultiplexedDriver shows both conditions on one indicator by toggling it
// every half blink period, counted in sample ticks.
type MultiplexedDriver struct {
	Shared Indicator
	Status Indicator
	Fs     int

	cmd  Command
	half int
	on   bool
}

// Apply latches the command for the next window and starts in the on phase.
func (d *MultiplexedDriver) Apply(c Command) error {
	d.cmd = c
	d.half = HalfPeriodTicks(d.Fs, c.BlinkHz)
	d.on = !c.Off() && c.Intensity > 0

	duty := 0.0
	if d.on {
		duty = c.Intensity
	}
	return errors.Join(d.Shared.Set(duty, 0), setStatus(d.Status, c.Status))
}

// Tick updates the shared indicator on phase changes only.
func (d *MultiplexedDriver) Tick(i int) error {
	if d.cmd.Off() || d.cmd.Intensity <= 0 {
		return nil
	}
	on := (i/d.half)%2 == 0
	if on == d.on {
		return nil
	}
	d.on = on
	if on {
		return d.Shared.Set(d.cmd.Intensity, 0)
	}
	return d.Shared.Set(0, 0)
}

func (d *MultiplexedDriver) Off() error {
	return d.Apply(Command{})
}

func setStatus(ind Indicator, on bool) error {
	if on {
		return ind.Set(1, 0)
	}
	return ind.Set(0, 0)
}

// New builds the driver selected by cfg.ActuationMode. periph's host must
// already be initialized when any pin name is set.
func New(cfg *config.Config) (Driver, error) {
	mode, err := ParseMode(cfg.ActuationMode)
	if err != nil {
		return nil, err
	}
	status, err := OpenPin(cfg.LEDStatusPin)
	if err != nil {
		return nil, err
	}

	if mode == Multiplexed {
		shared, err := OpenPin(cfg.LEDSharedPin)
		if err != nil {
			return nil, err
		}
		return &MultiplexedDriver{Shared: shared, Status: status, Fs: cfg.SampleRateHz}, nil
	}

	tremor, err := OpenPin(cfg.LEDTremorPin)
	if err != nil {
		return nil, fmt.Errorf("tremor indicator: %w", err)
	}
	dysk, err := OpenPin(cfg.LEDDyskPin)
	if err != nil {
		return nil, fmt.Errorf("dyskinesia indicator: %w", err)
	}
	return &IndependentDriver{Tremor: tremor, Dyskinesia: dysk, Status: status}, nil
}
