// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package classifier turns windows of 6-axis motion into tremor and
// dyskinesia decisions.
//
// A Classifier owns the whole pipeline state: the baseline, the stability
// counters and the parameters. Calibrate must complete before Process or Next
// will classify anything.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/tremor_detector/internal/dsp"
	"github.com/relabs-tech/tremor_detector/internal/imu"
	"github.com/relabs-tech/tremor_detector/internal/tick"
)

var (
	// ErrNotCalibrated is returned when a window is classified before the
	// baseline exists.
	ErrNotCalibrated = errors.New("classifier: not calibrated")
	// ErrAlreadyCalibrated is returned by a second Calibrate call.
	ErrAlreadyCalibrated = errors.New("classifier: already calibrated")
)

// ChannelReport is one channel's contribution to a window.
type ChannelReport struct {
	Channel   ChannelID   `json:"channel"`
	Tag       string      `json:"tag"`
	Feature   dsp.Feature `json:"feature"`
	Candidate Candidate   `json:"candidate"`
}

// Report is everything the pipeline learned from one window.
type Report struct {
	Window      uint64                     `json:"window"`
	Channels    [NumChannels]ChannelReport `json:"channels"`
	Decision    Decision                   `json:"decision"`
	Counters    Counters                   `json:"counters"`
	Action      Action                     `json:"action"`
	ReadRetries uint64                     `json:"read_retries"`
}

// Classifier is the pipeline context built once at startup.
type Classifier struct {
	params     Params
	collector  *Collector
	extractor  *dsp.Extractor
	stability  *Stability
	baseline   Baseline
	calibrated bool
	windows    uint64

	sleep func(ctx context.Context, d time.Duration) error
}

// New wires a classifier to its sample source, tick and transform.
func New(p Params, src imu.AxisReader, w tick.Waiter, tr dsp.Transformer) (*Classifier, error) {
	if p.WindowSamples <= 0 || p.WindowSamples > p.FFTSize {
		return nil, fmt.Errorf("classifier: window of %d samples does not fit FFT size %d", p.WindowSamples, p.FFTSize)
	}
	if tr.Size() != p.FFTSize {
		return nil, fmt.Errorf("classifier: transform size %d, want %d", tr.Size(), p.FFTSize)
	}
	if p.CalibrationWindows < 1 {
		return nil, fmt.Errorf("classifier: need at least one calibration window, got %d", p.CalibrationWindows)
	}
	for _, ch := range p.Channels {
		if ch.LevelScale <= 0 {
			return nil, fmt.Errorf("classifier: channel %s has non-positive level scale", ch.ID)
		}
	}

	ex, err := dsp.NewExtractor(tr, p.SampleRateHz)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		params:    p,
		collector: NewCollector(src, w, p.Channels, p.WindowSamples, p.FFTSize),
		extractor: ex,
		stability: NewStability(p.StableWindows),
		sleep:     sleepCtx,
	}, nil
}

// Params returns the parameters the classifier was built with.
func (c *Classifier) Params() Params { return c.params }

// Bands returns the band edge bins in use.
func (c *Classifier) Bands() dsp.Bands { return c.extractor.Bands() }

// Collector exposes the window collector so callers can attach tick and raw hooks.
func (c *Classifier) Collector() *Collector { return c.collector }

// Calibrated reports whether the baseline has been established.
func (c *Classifier) Calibrated() bool { return c.calibrated }

// Baseline returns the established baseline.
func (c *Classifier) Baseline() Baseline { return c.baseline }

// Counters returns the current stability counters.
func (c *Classifier) Counters() Counters { return c.stability.Counters() }

// Calibrate collects CalibrationWindows raw windows and fixes the baseline.
// It blocks until the sensor has produced enough valid samples.
func (c *Classifier) Calibrate(ctx context.Context) (Baseline, error) {
	if c.calibrated {
		return c.baseline, ErrAlreadyCalibrated
	}

	windows := make([]Window, 0, c.params.CalibrationWindows)
	for i := 0; i < c.params.CalibrationWindows; i++ {
		w, err := c.collector.Collect(ctx)
		if err != nil {
			return Baseline{}, fmt.Errorf("classifier: calibration window %d: %w", i+1, err)
		}
		windows = append(windows, w)

		if c.params.CalibrationPause > 0 {
			if err := c.sleep(ctx, c.params.CalibrationPause); err != nil {
				return Baseline{}, err
			}
			c.collector.Resync()
		}
	}

	b, err := ComputeBaseline(windows)
	if err != nil {
		return Baseline{}, err
	}

	c.baseline = b
	c.calibrated = true
	c.collector.SetBaseline(b)
	return b, nil
}

// Process classifies one baseline-corrected window.
func (c *Classifier) Process(w Window) (Report, error) {
	if !c.calibrated {
		return Report{}, ErrNotCalibrated
	}

	c.windows++
	r := Report{Window: c.windows}

	var cands [NumChannels]Candidate
	for i := 0; i < NumChannels; i++ {
		ch := c.params.Channels[i]
		f := c.extractor.Extract(w.Samples[i])
		cands[i] = Evaluate(f, ch, c.params.Fusion)
		r.Channels[i] = ChannelReport{
			Channel:   ch.ID,
			Tag:       ch.ID.String(),
			Feature:   f,
			Candidate: cands[i],
		}
	}

	r.Decision = FuseCandidates(cands)
	r.Action = c.stability.Update(r.Decision)
	r.Counters = c.stability.Counters()
	r.ReadRetries = c.collector.Retries()
	return r, nil
}

// Next collects the next window and classifies it.
func (c *Classifier) Next(ctx context.Context) (Report, error) {
	if !c.calibrated {
		return Report{}, ErrNotCalibrated
	}
	w, err := c.collector.Collect(ctx)
	if err != nil {
		return Report{}, err
	}
	return c.Process(w)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
