// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandEdgesFirmwareDefaults(t *testing.T) {
	assert.Equal(t, Bands{I3: 7, I5: 12, I7: 17}, BandEdges(104, 256))
}

func TestBandEdgesOtherLayouts(t *testing.T) {
	// 100 Hz, 512 points: 15.36, 25.6, 35.84
	assert.Equal(t, Bands{I3: 15, I5: 26, I7: 36}, BandEdges(100, 512))
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	fft, err := NewFFT(256)
	require.NoError(t, err)
	ex, err := NewExtractor(fft, 104)
	require.NoError(t, err)
	return ex
}

func TestNewFFTRejectsBadLength(t *testing.T) {
	_, err := NewFFT(100)
	assert.Error(t, err)
	_, err = NewFFT(1)
	assert.Error(t, err)
}

func TestNewExtractorRejectsTinySpectrum(t *testing.T) {
	fft, err := NewFFT(16)
	require.NoError(t, err)
	_, err = NewExtractor(fft, 20)
	assert.Error(t, err)
}

func TestPeaksStayInsideBands(t *testing.T) {
	ex := newTestExtractor(t)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 500; trial++ {
		mag := make([]float64, 128)
		for k := range mag {
			mag[k] = rng.Float64() * 10
		}
		f := ex.FromSpectrum(mag)

		require.GreaterOrEqual(t, f.K35, 7)
		require.LessOrEqual(t, f.K35, 12)
		require.GreaterOrEqual(t, f.K57, 12)
		require.LessOrEqual(t, f.K57, 17)

		for k := 7; k <= 12; k++ {
			require.LessOrEqual(t, mag[k], f.P35)
		}
		for k := 12; k <= 17; k++ {
			require.LessOrEqual(t, mag[k], f.P57)
		}
		require.Equal(t, mag[f.K35], f.P35)
		require.Equal(t, mag[f.K57], f.P57)
	}
}

func TestPeakTiesKeepLowestBin(t *testing.T) {
	ex := newTestExtractor(t)
	mag := make([]float64, 128)
	mag[8], mag[11] = 3, 3
	mag[13], mag[16] = 2, 2

	f := ex.FromSpectrum(mag)
	assert.Equal(t, 8, f.K35)
	assert.Equal(t, 13, f.K57)
}

func TestFlatSpectrumReportsBandStart(t *testing.T) {
	ex := newTestExtractor(t)
	f := ex.FromSpectrum(make([]float64, 128))

	assert.Equal(t, Feature{K35: 7, F35: 7 * 104.0 / 256, K57: 12, F57: 12 * 104.0 / 256}, f)
}

func TestRMSExcludesDCAndUsesGuardBins(t *testing.T) {
	ex := newTestExtractor(t)
	mag := make([]float64, 128)
	mag[0] = 1000 // DC, ignored
	for k := 1; k <= 19; k++ {
		mag[k] = 2
	}
	mag[20] = 1000 // past i7+2, ignored

	f := ex.FromSpectrum(mag)
	assert.InDelta(t, 2.0, f.RMS, 1e-12)
}

func TestExtractPureSine(t *testing.T) {
	ex := newTestExtractor(t)
	buf := make([]float64, 256)
	for i := 0; i < 104; i++ {
		buf[i] = 0.01 * math.Sin(2*math.Pi*4*float64(i)/104)
	}

	f := ex.Extract(buf)
	assert.Equal(t, 10, f.K35)
	assert.InDelta(t, 4.0625, f.F35, 1e-9)
	assert.InDelta(t, 0.52, f.P35, 0.02)
	assert.Greater(t, f.P35/f.RMS, 1.5)
	assert.Less(t, f.P57/f.RMS, 1.5)
}

func TestFFTMagnitudesLength(t *testing.T) {
	fft, err := NewFFT(64)
	require.NoError(t, err)
	buf := make([]float64, 64)
	buf[0] = 1

	mag := fft.Magnitudes(buf)
	require.Len(t, mag, 32)
	for _, m := range mag {
		assert.InDelta(t, 1.0, m, 1e-12) // impulse has a flat spectrum
	}
}
