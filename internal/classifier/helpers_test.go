// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/dsp"
	"github.com/relabs-tech/tremor_detector/internal/imu"
	"github.com/relabs-tech/tremor_detector/internal/tick"
)

var errBus = errors.New("bus nack")

// readerFunc adapts a function to imu.AxisReader.
type readerFunc func(g imu.Group) (int16, int16, int16, error)

func (f readerFunc) ReadAxes(g imu.Group) (int16, int16, int16, error) { return f(g) }

// constReader always returns the same accel and gyro counts.
func constReader(acc, gyr [3]int16) imu.AxisReader {
	return readerFunc(func(g imu.Group) (int16, int16, int16, error) {
		if g == imu.Accel {
			return acc[0], acc[1], acc[2], nil
		}
		return gyr[0], gyr[1], gyr[2], nil
	})
}

// recordedReader replays a fixed sequence of samples and loops.
type recordedReader struct {
	samples []imu.IMURaw
	pos     int
}

func (r *recordedReader) ReadAxes(g imu.Group) (int16, int16, int16, error) {
	s := r.samples[r.pos%len(r.samples)]
	if g == imu.Accel {
		return s.Ax, s.Ay, s.Az, nil
	}
	r.pos++
	return s.Gx, s.Gy, s.Gz, nil
}

func defaultParams() Params {
	p := ParamsFromConfig(config.Default())
	p.CalibrationPause = 0
	return p
}

func newCalibrated(t *testing.T, p Params) *Classifier {
	t.Helper()
	fft, err := dsp.NewFFT(p.FFTSize)
	require.NoError(t, err)
	c, err := New(p, constReader([3]int16{}, [3]int16{}), tick.Free{}, fft)
	require.NoError(t, err)
	_, err = c.Calibrate(testContext(t))
	require.NoError(t, err)
	return c
}

// sineWindow puts a sine of the given amplitude and frequency on the listed
// channels of an otherwise flat window.
func sineWindow(p Params, tones map[ChannelID][2]float64) Window {
	w := NewWindow(p.WindowSamples, p.FFTSize)
	for ch, tone := range tones {
		amp, hz := tone[0], tone[1]
		for i := 0; i < p.WindowSamples; i++ {
			w.Samples[ch][i] = amp * math.Sin(2*math.Pi*hz*float64(i)/float64(p.SampleRateHz))
		}
	}
	return w
}
