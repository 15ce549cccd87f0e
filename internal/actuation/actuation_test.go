// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package actuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/tremor_detector/internal/classifier"
	"github.com/relabs-tech/tremor_detector/internal/config"
)

var firmwareFreqs = Frequencies{TremorHz: 2, DyskinesiaHz: 5}

type setCall struct {
	Duty  float64
	Blink physic.Frequency
}

type recorder struct{ calls []setCall }

func (r *recorder) Set(duty float64, blink physic.Frequency) error {
	r.calls = append(r.calls, setCall{duty, blink})
	return nil
}

func (r *recorder) last() setCall { return r.calls[len(r.calls)-1] }

func TestMap(t *testing.T) {
	tests := []struct {
		name   string
		action classifier.Action
		lt, ld float64
		want   Command
	}{
		{"none is fully off", classifier.ActionNone, 0.9, 0.9, Command{Action: classifier.ActionNone}},
		{"tremor", classifier.ActionTremor, 0.4, 0.2, Command{Action: classifier.ActionTremor, Intensity: 0.4, BlinkHz: 2, Status: true}},
		{"dyskinesia", classifier.ActionDyskinesia, 0.4, 0.7, Command{Action: classifier.ActionDyskinesia, Intensity: 0.7, BlinkHz: 5, Status: true}},
		{"intensity clamped", classifier.ActionTremor, 3, 0, Command{Action: classifier.ActionTremor, Intensity: 1, BlinkHz: 2, Status: true}},
		{"nan intensity", classifier.ActionDyskinesia, 0, math.NaN(), Command{Action: classifier.ActionDyskinesia, Intensity: 0, BlinkHz: 5, Status: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Map(tt.action, tt.lt, tt.ld, firmwareFreqs))
		})
	}
}

func TestMapDutyMonotonic(t *testing.T) {
	prev := -1.0
	for l := 0.0; l <= 1.2; l += 0.05 {
		c := Map(classifier.ActionTremor, l, 0, firmwareFreqs)
		assert.GreaterOrEqual(t, c.Intensity, prev)
		prev = c.Intensity
	}
}

func TestHalfPeriodTicks(t *testing.T) {
	assert.Equal(t, 26, HalfPeriodTicks(104, 2))
	assert.Equal(t, 10, HalfPeriodTicks(104, 5))
	assert.Equal(t, 1, HalfPeriodTicks(104, 500))
	assert.Equal(t, 1, HalfPeriodTicks(104, 0))
}

func TestPinIndicator(t *testing.T) {
	pin := &gpiotest.Pin{N: "LED", Num: 5}
	ind := NewPinIndicator(pin)

	require.NoError(t, ind.Set(0.5, Hz(2)))
	assert.Equal(t, gpio.DutyHalf, pin.D)
	assert.Equal(t, 2*physic.Hertz, pin.F)

	require.NoError(t, ind.Set(1, 0))
	assert.Equal(t, gpio.High, pin.L)

	require.NoError(t, ind.Set(0, Hz(5)))
	assert.Equal(t, gpio.Low, pin.L)
}

func TestOpenPinEmptyIsNop(t *testing.T) {
	ind, err := OpenPin("")
	require.NoError(t, err)
	assert.Equal(t, Nop{}, ind)
	assert.NoError(t, ind.Set(1, Hz(2)))
}

func TestIndependentDriver(t *testing.T) {
	tr, dy, st := &recorder{}, &recorder{}, &recorder{}
	d := &IndependentDriver{Tremor: tr, Dyskinesia: dy, Status: st}

	require.NoError(t, d.Apply(Map(classifier.ActionTremor, 0.6, 0, firmwareFreqs)))
	assert.Equal(t, setCall{0.6, 2 * physic.Hertz}, tr.last())
	assert.Equal(t, setCall{0, 0}, dy.last())
	assert.Equal(t, setCall{1, 0}, st.last())

	require.NoError(t, d.Apply(Map(classifier.ActionDyskinesia, 0, 0.3, firmwareFreqs)))
	assert.Equal(t, setCall{0, 0}, tr.last())
	assert.Equal(t, setCall{0.3, 5 * physic.Hertz}, dy.last())
	assert.Equal(t, setCall{1, 0}, st.last())

	require.NoError(t, d.Off())
	assert.Equal(t, setCall{0, 0}, tr.last())
	assert.Equal(t, setCall{0, 0}, dy.last())
	assert.Equal(t, setCall{0, 0}, st.last())
}

func TestMultiplexedDriverSquareWave(t *testing.T) {
	shared, st := &recorder{}, &recorder{}
	d := &MultiplexedDriver{Shared: shared, Status: st, Fs: 104}

	require.NoError(t, d.Apply(Map(classifier.ActionDyskinesia, 0, 0.8, firmwareFreqs)))
	assert.Equal(t, setCall{0.8, 0}, shared.last())
	assert.Equal(t, setCall{1, 0}, st.last())

	// 5 Hz at 104 Hz is 10 ticks per half period.
	lit := make([]bool, 104)
	for i := range lit {
		require.NoError(t, d.Tick(i))
		lit[i] = shared.last().Duty > 0
	}
	for i, on := range lit {
		assert.Equal(t, (i/10)%2 == 0, on, "tick %d", i)
	}
	// one initial set plus one per phase change
	assert.Len(t, shared.calls, 1+10)
}

func TestMultiplexedDriverOffStaysDark(t *testing.T) {
	shared, st := &recorder{}, &recorder{}
	d := &MultiplexedDriver{Shared: shared, Status: st, Fs: 104}

	require.NoError(t, d.Apply(Command{}))
	for i := 0; i < 104; i++ {
		require.NoError(t, d.Tick(i))
	}
	assert.Equal(t, []setCall{{0, 0}}, shared.calls)
	assert.Equal(t, setCall{0, 0}, st.last())
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	d, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &IndependentDriver{}, d)

	cfg.ActuationMode = "multiplexed"
	d, err = New(cfg)
	require.NoError(t, err)
	require.IsType(t, &MultiplexedDriver{}, d)
	assert.Equal(t, 104, d.(*MultiplexedDriver).Fs)

	cfg.LEDStatusPin = "NO_SUCH_PIN_42"
	_, err = New(cfg)
	assert.Error(t, err)
}
