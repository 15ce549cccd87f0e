// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dsp extracts band features from a zero-padded window.
package dsp

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transformer turns a real time-domain buffer of length Size() into
// Size()/2 magnitude bins. Implementations must be pure.
type Transformer interface {
	Size() int
	Magnitudes(buf []float64) []float64
}

// FFT is the gonum-backed real FFT transform.
type FFT struct {
	n     int
	fft   *fourier.FFT
	coeff []complex128
}

// NewFFT prepares a transform of length n.
func NewFFT(n int) (*FFT, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("dsp: FFT length must be a power of two >= 2, got %d", n)
	}
	return &FFT{
		n:     n,
		fft:   fourier.NewFFT(n),
		coeff: make([]complex128, n/2+1),
	}, nil
}

// Size returns the transform length.
func (f *FFT) Size() int { return f.n }

// Magnitudes returns |X[k]| for k in [0, n/2). The Nyquist bin is dropped.
// The result is freshly allocated; the coefficient scratch buffer is not
// safe for concurrent use.
func (f *FFT) Magnitudes(buf []float64) []float64 {
	f.coeff = f.fft.Coefficients(f.coeff, buf)
	mag := make([]float64, f.n/2)
	for k := range mag {
		mag[k] = cmplx.Abs(f.coeff[k])
	}
	return mag
}
