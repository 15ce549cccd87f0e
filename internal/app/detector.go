// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tremor_detector/internal/actuation"
	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/dsp"
	"github.com/relabs-tech/tremor_detector/internal/imu"
	"github.com/relabs-tech/tremor_detector/internal/orientation"
	"github.com/relabs-tech/tremor_detector/internal/sensors"
	"github.com/relabs-tech/tremor_detector/internal/telemetry"
	"github.com/relabs-tech/tremor_detector/internal/tick"
)

const gravityTolerance = 0.15 // g

// Detector runs the calibrate-then-classify loop and forwards every
// window to the indicators and publishers.
type Detector struct {
	cls      *classifier.Classifier
	driver   actuation.Driver
	pub      telemetry.Publisher
	logger   *zap.Logger
	freqs    actuation.Frequencies
	sensor   string
	session  string
	rawEvery int
	missed   func() uint64
	now      func() time.Time
}

// NewDetector wires a classifier around src. w paces the collector; pass a
// *tick.Flag to have missed ticks reported with every window.
func NewDetector(cfg *config.Config, src imu.AxisReader, w tick.Waiter, driver actuation.Driver, pub telemetry.Publisher, logger *zap.Logger) (*Detector, error) {
	params := classifier.ParamsFromConfig(cfg)
	fft, err := dsp.NewFFT(params.FFTSize)
	if err != nil {
		return nil, err
	}
	cls, err := classifier.New(params, src, w, fft)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		cls:      cls,
		driver:   driver,
		pub:      pub,
		logger:   logger,
		freqs:    actuation.Frequencies{TremorHz: cfg.TremorBlinkHz, DyskinesiaHz: cfg.DyskBlinkHz},
		sensor:   cfg.SensorKind,
		session:  uuid.NewString(),
		rawEvery: cfg.DebugRawEvery,
		missed:   func() uint64 { return 0 },
		now:      time.Now,
	}
	if f, ok := w.(*tick.Flag); ok {
		d.missed = f.Missed
	}

	col := cls.Collector()
	col.OnTick = func(i int) {
		if err := driver.Tick(i); err != nil {
			logger.Debug("indicator tick failed", zap.Error(err))
		}
	}
	if d.rawEvery > 0 && logger.Core().Enabled(zap.DebugLevel) {
		col.OnRaw = func(idx int, raw imu.IMURaw) {
			if idx%d.rawEvery == 0 {
				logger.Debug("raw sample", zap.Int("idx", idx), zap.String("line", sensors.FormatRawLine(raw)))
			}
		}
	}
	return d, nil
}

// Session is the identifier stamped on every event of this run.
func (d *Detector) Session() string { return d.session }

// Run calibrates and then classifies windows until ctx is cancelled.
// Cancellation is a clean shutdown and returns nil.
func (d *Detector) Run(ctx context.Context) error {
	bands := d.cls.Bands()
	d.logger.Info("frequency bins",
		zap.Int("i3", bands.I3), zap.Int("i5", bands.I5), zap.Int("i7", bands.I7),
		zap.String("session", d.session))

	d.logger.Info("calibrating, keep the sensor still")
	baseline, err := d.cls.Calibrate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("calibration: %w", err)
	}
	mount := orientation.FromAccel(baseline.Accel[0], baseline.Accel[1], baseline.Accel[2])
	d.logger.Info("calibration done",
		zap.Float64s("accel_g", baseline.Accel[:]),
		zap.Float64s("gyro_dps", baseline.Gyro[:]),
		zap.Float64("roll_deg", mount.Roll),
		zap.Float64("pitch_deg", mount.Pitch))
	if !mount.GravityOK(gravityTolerance) {
		d.logger.Warn("baseline gravity is off, was the sensor moving?", zap.Float64("gravity_g", mount.Gravity))
	}

	if err := d.pub.PublishCalibration(ctx, telemetry.CalibrationEvent{
		Session:  d.session,
		Time:     d.now(),
		Sensor:   d.sensor,
		Bands:    bands,
		Baseline: baseline,
		Mount:    mount,
	}); err != nil {
		d.logger.Warn("publish calibration", zap.Error(err))
	}

	for {
		r, err := d.cls.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.handle(ctx, r)
	}
}

func (d *Detector) handle(ctx context.Context, r classifier.Report) {
	cmd := actuation.Map(r.Action, r.Decision.LevelT, r.Decision.LevelD, d.freqs)
	if err := d.driver.Apply(cmd); err != nil {
		d.logger.Warn("indicator update failed", zap.Error(err))
	}

	ev := telemetry.WindowEvent{
		Session:     d.session,
		Time:        d.now(),
		Report:      r,
		Command:     cmd,
		MissedTicks: d.missed(),
	}
	if err := d.pub.PublishWindow(ctx, ev); err != nil {
		d.logger.Warn("publish window", zap.Uint64("window", r.Window), zap.Error(err))
	}
}

// RunDetector opens the configured sensor, indicators and publishers and
// runs the detector until ctx is cancelled.
func RunDetector(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	return runDetector(ctx, cfg, logger)
}

// RunConsole runs the detector in-process and prints every event to out,
// next to the usual publishers.
func RunConsole(ctx context.Context, cfg *config.Config, logger *zap.Logger, out io.Writer, verbose bool) error {
	return runDetector(ctx, cfg, logger, NewConsole(out, verbose))
}

func runDetector(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...telemetry.Publisher) (err error) {
	src, closer, err := sensors.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	if hasPins(cfg) {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
	}
	driver, err := actuation.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if offErr := driver.Off(); offErr != nil {
			logger.Warn("indicators off", zap.Error(offErr))
		}
	}()

	pubs, err := openPublishers(cfg, logger)
	if err != nil {
		return err
	}
	pub := append(pubs, extra...)
	defer func() { err = errors.Join(err, pub.Close()) }()

	// The serial stream is paced by the microcontroller.
	var w tick.Waiter = tick.Free{}
	if cfg.SensorKind != "serial" {
		flag := tick.NewFlag()
		go tick.Pace(ctx, flag, tick.Interval(cfg.SampleRateHz))
		w = flag
	}

	d, err := NewDetector(cfg, src, w, driver, pub, logger)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

func openPublishers(cfg *config.Config, logger *zap.Logger) (telemetry.Multi, error) {
	pubs := telemetry.Multi{telemetry.NewLogPublisher(logger)}

	if cfg.MQTTBroker != "" {
		client, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDDetector)
		if err != nil {
			logger.Warn("MQTT unavailable, continuing without it", zap.String("broker", cfg.MQTTBroker), zap.Error(err))
		} else {
			logger.Info("connected to MQTT broker", zap.String("broker", cfg.MQTTBroker))
			pubs = append(pubs, telemetry.NewMQTTPublisher(client, cfg.TopicWindow, cfg.TopicCalibration))
		}
	}

	if cfg.HistoryDB != "" {
		rec, err := telemetry.OpenRecorder(cfg.HistoryDB)
		if err != nil {
			return nil, errors.Join(err, pubs.Close())
		}
		logger.Info("recording history", zap.String("path", cfg.HistoryDB))
		pubs = append(pubs, rec)
	}
	return pubs, nil
}

func hasPins(cfg *config.Config) bool {
	return cfg.LEDTremorPin != "" || cfg.LEDDyskPin != "" || cfg.LEDStatusPin != "" || cfg.LEDSharedPin != ""
}
