// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry carries detector events to the log, the MQTT bus and
// the history database.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/tremor_detector/internal/actuation"
	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/dsp"
	"github.com/relabs-tech/tremor_detector/internal/orientation"
)

// CalibrationEvent is emitted once per session when the baseline is fixed.
type CalibrationEvent struct {
	Session  string              `json:"session"`
	Time     time.Time           `json:"time"`
	Sensor   string              `json:"sensor"`
	Bands    dsp.Bands           `json:"bands"`
	Baseline classifier.Baseline `json:"baseline"`
	Mount    orientation.Pose    `json:"mount"`
}

// WindowEvent is emitted for every classified window.
type WindowEvent struct {
	Session     string            `json:"session"`
	Time        time.Time         `json:"time"`
	Report      classifier.Report `json:"report"`
	Command     actuation.Command `json:"command"`
	MissedTicks uint64            `json:"missed_ticks"`
}

// Publisher receives detector events. Implementations must not block the
// detector loop for longer than a window.
type Publisher interface {
	PublishCalibration(ctx context.Context, ev CalibrationEvent) error
	PublishWindow(ctx context.Context, ev WindowEvent) error
	Close() error
}

// Multi fans events out to several publishers. Every publisher sees every
// event; errors are joined.
type Multi []Publisher

func (m Multi) PublishCalibration(ctx context.Context, ev CalibrationEvent) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishCalibration(ctx, ev))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishWindow(ctx context.Context, ev WindowEvent) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishWindow(ctx, ev))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

// DecodeWindow parses a window event payload.
func DecodeWindow(payload []byte) (WindowEvent, error) {
	var ev WindowEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return WindowEvent{}, fmt.Errorf("decode window event: %w", err)
	}
	return ev, nil
}

// DecodeCalibration parses a calibration event payload.
func DecodeCalibration(payload []byte) (CalibrationEvent, error) {
	var ev CalibrationEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return CalibrationEvent{}, fmt.Errorf("decode calibration event: %w", err)
	}
	return ev, nil
}
