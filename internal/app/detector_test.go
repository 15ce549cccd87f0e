// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/tremor_detector/internal/actuation"
	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/sensors"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
	"github.com/relabs-tech/tremor_detector/internal/tick"
)

type fakeDriver struct {
	applied []actuation.Command
	ticks   int
	off     bool
}

func (d *fakeDriver) Apply(c actuation.Command) error {
	d.applied = append(d.applied, c)
	return nil
}

func (d *fakeDriver) Tick(int) error {
	d.ticks++
	return nil
}

func (d *fakeDriver) Off() error {
	d.off = true
	return nil
}

// stopAfter records events and cancels the run once enough windows arrived.
type stopAfter struct {
	mu      sync.Mutex
	n       int
	cancel  context.CancelFunc
	cals    []telemetry.CalibrationEvent
	windows []telemetry.WindowEvent
	failing bool
}

func (p *stopAfter) PublishCalibration(_ context.Context, ev telemetry.CalibrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cals = append(p.cals, ev)
	return nil
}

func (p *stopAfter) PublishWindow(_ context.Context, ev telemetry.WindowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.windows = append(p.windows, ev)
	if len(p.windows) == p.n {
		p.cancel()
	}
	if p.failing {
		return errors.New("broker gone")
	}
	return nil
}

func (p *stopAfter) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SensorKind = "mock"
	cfg.CalibrationPauseMS = 0
	return cfg
}

func TestDetectorFlagsTremorFromMock(t *testing.T) {
	cfg := testConfig()
	// 0.01 g at 4 Hz on AX: four whole cycles per window.
	src := sensors.NewMockSource(cfg.SampleRateHz, sensors.Tone{Channel: 0, Amplitude: 164, Hz: 4})

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	pub := &stopAfter{n: 3, cancel: cancel}
	drv := &fakeDriver{}

	d, err := NewDetector(cfg, src, tick.Free{}, drv, pub, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, d.Run(ctx))

	require.Len(t, pub.cals, 1)
	assert.Equal(t, d.Session(), pub.cals[0].Session)
	assert.Equal(t, "mock", pub.cals[0].Sensor)
	assert.Equal(t, 7, pub.cals[0].Bands.I3)
	assert.True(t, pub.cals[0].Mount.GravityOK(0.05))
	assert.InDelta(t, 0, pub.cals[0].Mount.Pitch, 1)

	require.Len(t, pub.windows, 3)
	for i, ev := range pub.windows {
		assert.Equal(t, d.Session(), ev.Session)
		assert.Equal(t, uint64(i+1), ev.Report.Window)
		assert.Equal(t, classifier.ActionTremor, ev.Report.Action)
		assert.Equal(t, classifier.ActionTremor, ev.Command.Action)
		assert.Equal(t, cfg.TremorBlinkHz, ev.Command.BlinkHz)
		assert.Zero(t, ev.MissedTicks)
	}

	require.Len(t, drv.applied, 3)
	assert.Equal(t, pub.windows[0].Command, drv.applied[0])
	// calibration plus three windows, one tick per sample
	assert.Equal(t, (cfg.CalibrationWindows+3)*cfg.WindowSamples, drv.ticks)
}

func TestDetectorQuietSensor(t *testing.T) {
	cfg := testConfig()
	src := sensors.NewMockSource(cfg.SampleRateHz)

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()
	pub := &stopAfter{n: 2, cancel: cancel, failing: true}
	drv := &fakeDriver{}

	d, err := NewDetector(cfg, src, tick.Free{}, drv, pub, zaptest.NewLogger(t))
	require.NoError(t, err)
	// publish errors are logged, not fatal
	require.NoError(t, d.Run(ctx))

	require.Len(t, pub.windows, 2)
	for _, ev := range pub.windows {
		assert.Equal(t, classifier.ActionNone, ev.Report.Action)
		assert.True(t, ev.Command.Off())
	}
}

func TestDetectorCancelDuringCalibration(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	pub := &stopAfter{cancel: cancel}
	d, err := NewDetector(cfg, sensors.NewMockSource(cfg.SampleRateHz), tick.NewFlag(), &fakeDriver{}, pub, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, d.Run(ctx))
	assert.Empty(t, pub.cals)
}

func TestDetectorStopsWhenSerialStreamEnds(t *testing.T) {
	cfg := testConfig()
	cfg.SensorKind = "serial"
	src := sensors.NewLineSource(strings.NewReader("RAW 0 0 16393 0 0 0\nRAW 0 0 16393 0 0 0\n"))

	ctx, cancel := context.WithTimeout(testContext(t), 5*time.Second)
	defer cancel()
	pub := &stopAfter{cancel: cancel}

	d, err := NewDetector(cfg, src, tick.Free{}, &fakeDriver{}, pub, zaptest.NewLogger(t))
	require.NoError(t, err)
	err = d.Run(ctx)
	require.ErrorIs(t, err, io.EOF)
	assert.NoError(t, ctx.Err())
	assert.Empty(t, pub.cals)
}

func TestNewDetectorRejectsBadFFTSize(t *testing.T) {
	cfg := testConfig()
	cfg.FFTSize = 100
	_, err := NewDetector(cfg, sensors.NewMockSource(cfg.SampleRateHz), tick.Free{}, &fakeDriver{}, &stopAfter{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
