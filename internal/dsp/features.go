// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dsp

import (
	"fmt"
	"math"
)

// Bands holds the bin indices of the 3, 5 and 7 Hz band edges.
type Bands struct {
	I3 int `json:"i3"`
	I5 int `json:"i5"`
	I7 int `json:"i7"`
}

// BandEdges computes the band edge bins for a sample rate and FFT length.
func BandEdges(sampleRateHz, fftSize int) Bands {
	edge := func(hz int) int {
		return int(math.Round(float64(hz*fftSize) / float64(sampleRateHz)))
	}
	return Bands{I3: edge(3), I5: edge(5), I7: edge(7)}
}

// Feature is the per-channel spectral summary of one window.
type Feature struct {
	P35 float64 `json:"p35"` // peak magnitude in [i3, i5]
	K35 int     `json:"k35"`
	F35 float64 `json:"f35"` // Hz
	P57 float64 `json:"p57"` // peak magnitude in [i5, i7]
	K57 int     `json:"k57"`
	F57 float64 `json:"f57"`
	RMS float64 `json:"rms"` // over bins [1, i7+2]
}

// Extractor derives band peaks and the noise floor from one buffer.
type Extractor struct {
	tr           Transformer
	bands        Bands
	sampleRateHz int
}

// NewExtractor binds a transform to the band layout implied by the sample rate.
func NewExtractor(tr Transformer, sampleRateHz int) (*Extractor, error) {
	if sampleRateHz <= 0 {
		return nil, fmt.Errorf("dsp: sample rate must be positive, got %d", sampleRateHz)
	}
	bands := BandEdges(sampleRateHz, tr.Size())
	if bands.I7+2 >= tr.Size()/2 {
		return nil, fmt.Errorf("dsp: 7 Hz band (bin %d) does not fit a %d-point spectrum", bands.I7, tr.Size())
	}
	return &Extractor{tr: tr, bands: bands, sampleRateHz: sampleRateHz}, nil
}

// Bands returns the configured band edges.
func (e *Extractor) Bands() Bands { return e.bands }

// Extract transforms buf and summarizes its spectrum.
func (e *Extractor) Extract(buf []float64) Feature {
	return e.FromSpectrum(e.tr.Magnitudes(buf))
}

// FromSpectrum summarizes an already computed magnitude spectrum.
func (e *Extractor) FromSpectrum(mag []float64) Feature {
	b := e.bands

	var sum float64
	for k := 1; k <= b.I7+2; k++ {
		sum += mag[k] * mag[k]
	}
	rms := math.Sqrt(sum / float64(b.I7+2))

	p35, k35 := peak(mag, b.I3, b.I5)
	p57, k57 := peak(mag, b.I5, b.I7)

	return Feature{
		P35: p35,
		K35: k35,
		F35: e.binHz(k35),
		P57: p57,
		K57: k57,
		F57: e.binHz(k57),
		RMS: rms,
	}
}

func (e *Extractor) binHz(k int) float64 {
	return float64(k) * float64(e.sampleRateHz) / float64(e.tr.Size())
}

// peak returns the first maximum in mag[lo..hi]. A band with no positive
// magnitude reports 0 at lo.
func peak(mag []float64, lo, hi int) (float64, int) {
	p, at := 0.0, lo
	for k := lo; k <= hi; k++ {
		if mag[k] > p {
			p, at = mag[k], k
		}
	}
	return p, at
}
