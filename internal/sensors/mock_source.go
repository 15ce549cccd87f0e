// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// Tone is a sine added to one of the six raw channels, in counts.
// Channel indexes follow AX AY AZ GX GY GZ.
type Tone struct {
	Channel   int
	Amplitude float64
	Hz        float64
}

// MockSource synthesizes raw counts: a resting offset per channel, the
// configured tones and a little noise. Time advances one sample per gyro
// read, so it pairs with a collector that reads accel then gyro.
type MockSource struct {
	fs     float64
	offset [6]float64
	tones  []Tone
	noise  float64
	rng    *rand.Rand
	n      int
}

// NewMockSource builds a mock sampled at fs Hz.
func NewMockSource(fs int, tones ...Tone) *MockSource {
	return &MockSource{
		fs:     float64(fs),
		offset: [6]float64{120, -80, 16393, 15, -10, 5}, // flat on a table, 1 g on Z
		tones:  tones,
		noise:  4,
		rng:    rand.New(rand.NewSource(1)),
	}
}

// DefaultMockTones is a 4.5 Hz rest tremor of about 3 dps on GX.
func DefaultMockTones() []Tone {
	return []Tone{{Channel: 3, Amplitude: 343, Hz: 4.5}}
}

// SetTones replaces the tones; it takes effect from the next sample.
func (m *MockSource) SetTones(tones ...Tone) { m.tones = tones }

func (m *MockSource) value(ch int) int16 {
	v := m.offset[ch] + m.noise*m.rng.NormFloat64()
	t := float64(m.n) / m.fs
	for _, tone := range m.tones {
		if tone.Channel == ch {
			v += tone.Amplitude * math.Sin(2*math.Pi*tone.Hz*t)
		}
	}
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}

func (m *MockSource) ReadAxes(g imu.Group) (x, y, z int16, err error) {
	base := 0
	if g == imu.Gyro {
		base = 3
		defer func() { m.n++ }()
	}
	return m.value(base), m.value(base + 1), m.value(base + 2), nil
}
