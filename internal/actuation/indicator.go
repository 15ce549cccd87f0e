// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuation

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// Indicator is one output the driver can light. A blink of 0 is steady.
type Indicator interface {
	Set(duty float64, blink physic.Frequency) error
}

// Nop is an indicator with no hardware behind it.
type Nop struct{}

func (Nop) Set(float64, physic.Frequency) error { return nil }

// PinIndicator drives a GPIO. Steady output is digital; blinking uses the
// pin's PWM at the blink frequency with the given duty.
type PinIndicator struct {
	pin gpio.PinOut
}

// NewPinIndicator wraps an output pin.
func NewPinIndicator(pin gpio.PinOut) *PinIndicator {
	return &PinIndicator{pin: pin}
}

func (p *PinIndicator) Set(duty float64, blink physic.Frequency) error {
	duty = clamp01(duty)
	switch {
	case duty == 0:
		return p.pin.Out(gpio.Low)
	case blink == 0:
		return p.pin.Out(gpio.High)
	}
	d := gpio.Duty(duty * float64(gpio.DutyMax))
	if err := p.pin.PWM(d, blink); err != nil {
		return fmt.Errorf("pwm %s: %w", p.pin, err)
	}
	return nil
}

// OpenPin looks up a pin by name. An empty name gives Nop.
func OpenPin(name string) (Indicator, error) {
	if name == "" {
		return Nop{}, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("actuation: pin %q not found", name)
	}
	return NewPinIndicator(pin), nil
}

// Hz converts a blink rate to a periph frequency.
func Hz(hz float64) physic.Frequency {
	return physic.Frequency(hz * float64(physic.Hertz))
}
