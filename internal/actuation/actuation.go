// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package actuation maps classifier actions onto indicator LEDs.
package actuation

import (
	"fmt"
	"math"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
)

// Mode selects how tremor and dyskinesia share the indicators.
type Mode int

const (
	// Independent drives a dedicated PWM indicator per condition.
	Independent Mode = iota
	// Multiplexed square-wave modulates one shared indicator in software.
	Multiplexed
)

// ParseMode accepts "independent" and "multiplexed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "independent", "":
		return Independent, nil
	case "multiplexed":
		return Multiplexed, nil
	}
	return 0, fmt.Errorf("actuation: unknown mode %q", s)
}

func (m Mode) String() string {
	if m == Multiplexed {
		return "multiplexed"
	}
	return "independent"
}

// Frequencies are the blink rates that tell the conditions apart.
type Frequencies struct {
	TremorHz     float64
	DyskinesiaHz float64
}

// Command is the indicator state for one window.
type Command struct {
	Action    classifier.Action `json:"action"`
	Intensity float64           `json:"intensity"`
	BlinkHz   float64           `json:"blink_hz"`
	Status    bool              `json:"status"`
}

// Off reports whether the command shows nothing.
func (c Command) Off() bool { return c.Action == classifier.ActionNone }

// Map turns a stable action and the window's levels into a command.
// Intensity is the level of the shown condition, clamped to [0,1].
func Map(a classifier.Action, levelT, levelD float64, f Frequencies) Command {
	switch a {
	case classifier.ActionTremor:
		return Command{Action: a, Intensity: clamp01(levelT), BlinkHz: f.TremorHz, Status: true}
	case classifier.ActionDyskinesia:
		return Command{Action: a, Intensity: clamp01(levelD), BlinkHz: f.DyskinesiaHz, Status: true}
	}
	return Command{Action: classifier.ActionNone}
}

// HalfPeriodTicks is the number of sample ticks per half blink period,
// at least one.
func HalfPeriodTicks(fs int, hz float64) int {
	if hz <= 0 {
		return 1
	}
	n := int(math.Round(float64(fs) / (2 * hz)))
	if n < 1 {
		return 1
	}
	return n
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
