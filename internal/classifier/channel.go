// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classifier

import (
	"time"

	"github.com/relabs-tech/tremor_detector/internal/config"
	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// ChannelID names one of the six fixed sensor axes.
type ChannelID int

const (
	AX ChannelID = iota
	AY
	AZ
	GX
	GY
	GZ
)

// NumChannels is the number of analysed axes.
const NumChannels = 6

var channelTags = [NumChannels]string{"AX", "AY", "AZ", "GX", "GY", "GZ"}

func (c ChannelID) String() string {
	if c < 0 || int(c) >= NumChannels {
		return "??"
	}
	return channelTags[c]
}

// Group returns the sensor block the channel is read from.
func (c ChannelID) Group() imu.Group {
	if c >= GX {
		return imu.Gyro
	}
	return imu.Accel
}

// Channel is the static configuration of one axis.
type Channel struct {
	ID         ChannelID `json:"id"`
	LSB        float64   `json:"lsb"`         // raw count -> physical unit
	TremorTh   float64   `json:"tremor_th"`   // minimum 3-5 Hz peak
	DyskTh     float64   `json:"dysk_th"`     // minimum 5-7 Hz peak
	LevelScale float64   `json:"level_scale"` // peak / LevelScale = intensity
}

// FusionParams tunes the per-channel candidate tests.
type FusionParams struct {
	PeakToRMS        float64 `json:"peak_to_rms"`
	RMSFloorFraction float64 `json:"rms_floor_fraction"`
}

// Params is the full, immutable parameter set of a Classifier.
type Params struct {
	SampleRateHz       int
	WindowSamples      int
	FFTSize            int
	CalibrationWindows int
	CalibrationPause   time.Duration
	StableWindows      int
	Fusion             FusionParams
	Channels           [NumChannels]Channel
}

// ParamsFromConfig copies the classifier settings out of cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	p := Params{
		SampleRateHz:       cfg.SampleRateHz,
		WindowSamples:      cfg.WindowSamples,
		FFTSize:            cfg.FFTSize,
		CalibrationWindows: cfg.CalibrationWindows,
		CalibrationPause:   time.Duration(cfg.CalibrationPauseMS) * time.Millisecond,
		StableWindows:      cfg.StableWindows,
		Fusion: FusionParams{
			PeakToRMS:        cfg.PeakToRMS,
			RMSFloorFraction: cfg.RMSFloorFraction,
		},
	}
	for i := range p.Channels {
		id := ChannelID(i)
		if id.Group() == imu.Accel {
			p.Channels[i] = Channel{ID: id, LSB: cfg.AccLSB, TremorTh: cfg.AccTremorTh, DyskTh: cfg.AccDyskTh, LevelScale: cfg.AccLevelScale}
		} else {
			p.Channels[i] = Channel{ID: id, LSB: cfg.GyrLSB, TremorTh: cfg.GyrTremorTh, DyskTh: cfg.GyrDyskTh, LevelScale: cfg.GyrLevelScale}
		}
	}
	return p
}
