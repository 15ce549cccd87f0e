// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
)

// LogPublisher writes events to a zap logger. Per-channel summaries go out
// at debug level, the window decision at info.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// ChannelSummary formats one channel as "AX 3-5 0.517@3.7Hz 5-7 0.120@5.3Hz rms 0.187".
func ChannelSummary(cr classifier.ChannelReport) string {
	f := cr.Feature
	return fmt.Sprintf("%s 3-5 %.3f@%.1fHz 5-7 %.3f@%.1fHz rms %.3f",
		cr.Tag, f.P35, f.F35, f.P57, f.F57, f.RMS)
}

func (p *LogPublisher) PublishCalibration(_ context.Context, ev CalibrationEvent) error {
	b := ev.Baseline
	p.logger.Info("calibration complete",
		zap.String("session", ev.Session),
		zap.String("sensor", ev.Sensor),
		zap.Int("i3", ev.Bands.I3),
		zap.Int("i5", ev.Bands.I5),
		zap.Int("i7", ev.Bands.I7),
		zap.String("acc", fmt.Sprintf("[%.3f, %.3f, %.3f]", b.Accel[0], b.Accel[1], b.Accel[2])),
		zap.String("gyr", fmt.Sprintf("[%.3f, %.3f, %.3f]", b.Gyro[0], b.Gyro[1], b.Gyro[2])),
		zap.Float64("roll_deg", ev.Mount.Roll),
		zap.Float64("pitch_deg", ev.Mount.Pitch),
	)
	return nil
}

func (p *LogPublisher) PublishWindow(_ context.Context, ev WindowEvent) error {
	r := ev.Report
	if p.logger.Core().Enabled(zap.DebugLevel) {
		for _, cr := range r.Channels {
			p.logger.Debug("channel", zap.Uint64("window", r.Window), zap.String("summary", ChannelSummary(cr)))
		}
	}

	fields := []zap.Field{
		zap.Uint64("window", r.Window),
		zap.Bool("tremor", r.Decision.Tremor),
		zap.Float64("level_t", r.Decision.LevelT),
		zap.Bool("dyskinesia", r.Decision.Dyskinesia),
		zap.Float64("level_d", r.Decision.LevelD),
		zap.Stringer("action", r.Action),
		zap.Int("stable_t", r.Counters.Tremor),
		zap.Int("stable_d", r.Counters.Dyskinesia),
	}
	if r.ReadRetries > 0 {
		fields = append(fields, zap.Uint64("read_retries", r.ReadRetries))
	}
	if ev.MissedTicks > 0 {
		fields = append(fields, zap.Uint64("missed_ticks", ev.MissedTicks))
	}

	if r.Action != classifier.ActionNone {
		p.logger.Info("motion detected", fields...)
	} else {
		p.logger.Debug("decision", fields...)
	}
	return nil
}

func (p *LogPublisher) Close() error {
	_ = p.logger.Sync()
	return nil
}
