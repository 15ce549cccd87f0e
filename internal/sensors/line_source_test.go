// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

func TestLineSourceSkipsNoise(t *testing.T) {
	in := strings.Join([]string{
		"Boot",
		"Found LSM6DSL at 0x6A",
		"RAW 1 2 3 4 5 6",
		"--- Window 1 ---",
		"RAW -1 -2 16384 -4 -5 -6",
	}, "\r\n")
	s := NewLineSource(strings.NewReader(in))

	x, y, z, err := s.ReadAxes(imu.Accel)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{1, 2, 3}, [3]int16{x, y, z})
	x, y, z, err = s.ReadAxes(imu.Gyro)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{4, 5, 6}, [3]int16{x, y, z})

	x, y, z, err = s.ReadAxes(imu.Accel)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{-1, -2, 16384}, [3]int16{x, y, z})
	x, y, z, err = s.ReadAxes(imu.Gyro)
	require.NoError(t, err)
	assert.Equal(t, [3]int16{-4, -5, -6}, [3]int16{x, y, z})

	_, _, _, err = s.ReadAxes(imu.Accel)
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
}

func TestLineSourceStaysAtEOF(t *testing.T) {
	s := NewLineSource(strings.NewReader("RAW 1 2 3 4 5 6\n"))
	_, _, _, err := s.ReadAxes(imu.Accel)
	require.NoError(t, err)
	_, _, _, err = s.ReadAxes(imu.Gyro)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, _, err = s.ReadAxes(imu.Accel)
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestLineSourceMalformedLineIsRetryable(t *testing.T) {
	s := NewLineSource(strings.NewReader("RAW 1 2\nRAW 1 2 3 4 5 6\n"))

	_, _, _, err := s.ReadAxes(imu.Accel)
	assert.Error(t, err)
	_, _, _, err = s.ReadAxes(imu.Gyro)
	assert.ErrorIs(t, err, ErrGyroBeforeAccel)

	_, _, z, err := s.ReadAxes(imu.Accel)
	require.NoError(t, err)
	assert.Equal(t, int16(3), z)
}

func TestParseRawLine(t *testing.T) {
	raw := imu.IMURaw{Ax: -32768, Ay: 0, Az: 32767, Gx: 1, Gy: -1, Gz: 12}
	got, err := ParseRawLine(FormatRawLine(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	for _, bad := range []string{"", "RAW", "RAW 1 2 3 4 5 6 7", "RAW 1 2 3 4 5 40000", "raw 1 2 3 4 5 6", "RAW a 2 3 4 5 6"} {
		_, err := ParseRawLine(bad)
		assert.Error(t, err, bad)
	}
}
