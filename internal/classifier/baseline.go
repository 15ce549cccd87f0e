// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// Baseline is the per-channel DC offset established at startup.
type Baseline struct {
	Accel [3]float64 `json:"accel"`
	Gyro  [3]float64 `json:"gyro"`
}

// Offset returns the baseline of one channel.
func (b Baseline) Offset(ch ChannelID) float64 {
	if ch.Group() == imu.Accel {
		return b.Accel[ch]
	}
	return b.Gyro[ch-GX]
}

// ComputeBaseline averages the first N samples of every window per channel.
// All windows must have the same N.
func ComputeBaseline(windows []Window) (Baseline, error) {
	if len(windows) == 0 {
		return Baseline{}, errors.New("classifier: no calibration windows")
	}
	n := windows[0].N
	if n == 0 {
		return Baseline{}, errors.New("classifier: empty calibration window")
	}

	var sums [NumChannels]float64
	for _, w := range windows {
		if w.N != n {
			return Baseline{}, errors.New("classifier: calibration windows differ in length")
		}
		for ch := range sums {
			sums[ch] += floats.Sum(w.Samples[ch][:n])
		}
	}

	total := float64(len(windows) * n)
	var b Baseline
	for i := 0; i < 3; i++ {
		b.Accel[i] = sums[i] / total
		b.Gyro[i] = sums[int(GX)+i] / total
	}
	return b, nil
}
