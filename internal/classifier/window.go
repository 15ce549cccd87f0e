// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/relabs-tech/tremor_detector/internal/imu"
	"github.com/relabs-tech/tremor_detector/internal/tick"
)

// Window is one batch of N physical-unit samples per channel, zero-padded to
// the transform length.
type Window struct {
	N       int
	Samples [NumChannels][]float64
}

// NewWindow allocates an all-zero window.
func NewWindow(n, fftSize int) Window {
	w := Window{N: n}
	for ch := range w.Samples {
		w.Samples[ch] = make([]float64, fftSize)
	}
	return w
}

// Collector fills windows from an AxisReader, one sample per tick.
type Collector struct {
	src      imu.AxisReader
	tick     tick.Waiter
	channels [NumChannels]Channel
	n        int
	fftSize  int

	baseline *Baseline
	retries  uint64

	// OnTick runs after every consumed tick, valid read or not, with the
	// tick index inside the current window.
	OnTick func(i int)
	// OnRaw runs for every accepted sample before scaling.
	OnRaw func(idx int, raw imu.IMURaw)
}

// NewCollector builds a collector for N-sample windows padded to fftSize.
func NewCollector(src imu.AxisReader, w tick.Waiter, channels [NumChannels]Channel, n, fftSize int) *Collector {
	return &Collector{src: src, tick: w, channels: channels, n: n, fftSize: fftSize}
}

// SetBaseline enables baseline subtraction for every later window.
func (c *Collector) SetBaseline(b Baseline) {
	c.baseline = &b
}

// Resync discards ticks that arrived while the collector was not waiting,
// so the next window starts on a fresh tick with no overrun carried over.
func (c *Collector) Resync() {
	if r, ok := c.tick.(tick.Resetter); ok {
		r.Reset()
	}
}

// Retries returns how many sample reads failed and were retried.
func (c *Collector) Retries() uint64 { return c.retries }

// Collect blocks until N valid samples have been read. A failed read is
// retried at the same slot on the next tick, forever. Errors are context
// cancellation and a source that has ended (see SourceEnded).
func (c *Collector) Collect(ctx context.Context) (Window, error) {
	w := NewWindow(c.n, c.fftSize)
	ticks := 0

	for idx := 0; idx < c.n; {
		if err := c.tick.Wait(ctx); err != nil {
			return Window{}, err
		}
		if c.OnTick != nil {
			c.OnTick(ticks)
		}
		ticks++

		ax, ay, az, err := c.src.ReadAxes(imu.Accel)
		if err != nil {
			if SourceEnded(err) {
				return Window{}, fmt.Errorf("classifier: sample source: %w", err)
			}
			c.retries++
			continue
		}
		gx, gy, gz, err := c.src.ReadAxes(imu.Gyro)
		if err != nil {
			if SourceEnded(err) {
				return Window{}, fmt.Errorf("classifier: sample source: %w", err)
			}
			c.retries++
			continue
		}

		if c.OnRaw != nil {
			c.OnRaw(idx, imu.IMURaw{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz})
		}

		counts := [NumChannels]int16{ax, ay, az, gx, gy, gz}
		for ch, raw := range counts {
			v := float64(raw) * c.channels[ch].LSB
			if c.baseline != nil {
				v -= c.baseline.Offset(ChannelID(ch))
			}
			w.Samples[ch][idx] = v
		}
		idx++
	}

	return w, nil
}

// SourceEnded reports whether a read error means the source will never
// produce another sample: end of a stream or a closed port.
func SourceEnded(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
