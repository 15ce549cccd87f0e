// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"github.com/relabs-tech/tremor_detector/internal/dsp"
)

// Candidate is the verdict of a single channel for one window.
type Candidate struct {
	Tremor     bool    `json:"tremor"`
	Dyskinesia bool    `json:"dyskinesia"`
	LevelT     float64 `json:"level_t"` // unclamped, 0 unless Tremor
	LevelD     float64 `json:"level_d"` // unclamped, 0 unless Dyskinesia
}

// Decision is the fused result of all six channels.
type Decision struct {
	Tremor     bool    `json:"tremor"`
	Dyskinesia bool    `json:"dyskinesia"`
	LevelT     float64 `json:"level_t"` // [0, 1]
	LevelD     float64 `json:"level_d"` // [0, 1]
}

// Evaluate applies the band tests to one channel's feature.
func Evaluate(f dsp.Feature, ch Channel, p FusionParams) Candidate {
	var c Candidate
	if bandFires(f.P35, f.RMS, ch.TremorTh, p) {
		c.Tremor = true
		c.LevelT = f.P35 / ch.LevelScale
	}
	if bandFires(f.P57, f.RMS, ch.DyskTh, p) {
		c.Dyskinesia = true
		c.LevelD = f.P57 / ch.LevelScale
	}
	return c
}

// bandFires requires the peak to clear its threshold, dominate the noise
// floor, and the floor itself to be above a fraction of the threshold.
func bandFires(peak, rms, threshold float64, p FusionParams) bool {
	if !(rms > threshold*p.RMSFloorFraction) {
		return false
	}
	return peak >= threshold && peak/rms > p.PeakToRMS
}

// FuseCandidates reduces per-channel candidates into one decision. Any single
// channel is enough to assert a condition.
func FuseCandidates(cands [NumChannels]Candidate) Decision {
	var d Decision
	for _, c := range cands {
		if c.Tremor {
			d.Tremor = true
			if c.LevelT > d.LevelT {
				d.LevelT = c.LevelT
			}
		}
		if c.Dyskinesia {
			d.Dyskinesia = true
			if c.LevelD > d.LevelD {
				d.LevelD = c.LevelD
			}
		}
	}
	d.LevelT = clamp01(d.LevelT)
	d.LevelD = clamp01(d.LevelD)
	return d
}

// Fuse evaluates every channel and reduces the result.
func Fuse(features [NumChannels]dsp.Feature, channels [NumChannels]Channel, p FusionParams) Decision {
	var cands [NumChannels]Candidate
	for i := range features {
		cands[i] = Evaluate(features[i], channels[i], p)
	}
	return FuseCandidates(cands)
}

func clamp01(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v >= 0:
		return v
	default:
		// negative or NaN
		return 0
	}
}
