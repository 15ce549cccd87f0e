// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/tremor_detector/internal/imu"
)

// ErrGyroBeforeAccel is returned when the gyro half of a sample is requested
// before its accel half.
var ErrGyroBeforeAccel = errors.New("line source: gyro read without pending sample")

// LineSource replays "RAW ax ay az gx gy gz" lines, as printed by a sensor
// board streaming its raw counts over a serial link. Other lines are skipped.
type LineSource struct {
	sc      *bufio.Scanner
	closer  io.Closer
	pending imu.IMURaw
	have    bool
}

// NewLineSource reads RAW lines from r.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{sc: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenSerial opens a serial port at baud and reads RAW lines from it.
func OpenSerial(port string, baud int) (*LineSource, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	rw, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	return NewLineSource(rw), nil
}

// ReadAxes returns the accel triple of the next RAW line, or the gyro triple
// of the line most recently returned for accel.
func (s *LineSource) ReadAxes(g imu.Group) (x, y, z int16, err error) {
	if g == imu.Gyro {
		if !s.have {
			return 0, 0, 0, ErrGyroBeforeAccel
		}
		s.have = false
		return s.pending.Gx, s.pending.Gy, s.pending.Gz, nil
	}

	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if !strings.HasPrefix(line, "RAW ") {
			continue
		}
		raw, err := ParseRawLine(line)
		if err != nil {
			s.have = false
			return 0, 0, 0, err
		}
		s.pending, s.have = raw, true
		return raw.Ax, raw.Ay, raw.Az, nil
	}
	if err := s.sc.Err(); err != nil {
		return 0, 0, 0, err
	}
	return 0, 0, 0, io.EOF
}

// Close closes the underlying port when there is one.
func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseRawLine parses one "RAW ax ay az gx gy gz" line.
func ParseRawLine(line string) (imu.IMURaw, error) {
	fields := strings.Fields(line)
	if len(fields) != 7 || fields[0] != "RAW" {
		return imu.IMURaw{}, fmt.Errorf("malformed RAW line %q", line)
	}
	var v [6]int16
	for i, f := range fields[1:] {
		n, err := strconv.ParseInt(f, 10, 16)
		if err != nil {
			return imu.IMURaw{}, fmt.Errorf("malformed RAW field %q: %w", f, err)
		}
		v[i] = int16(n)
	}
	return imu.IMURaw{Ax: v[0], Ay: v[1], Az: v[2], Gx: v[3], Gy: v[4], Gz: v[5]}, nil
}

// FormatRawLine is the inverse of ParseRawLine.
func FormatRawLine(r imu.IMURaw) string {
	return fmt.Sprintf("RAW %d %d %d %d %d %d", r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz)
}
