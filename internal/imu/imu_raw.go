// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// Group selects which sensor block a read targets.
type Group int

const (
	Accel Group = iota
	Gyro
)

func (g Group) String() string {
	switch g {
	case Accel:
		return "accel"
	case Gyro:
		return "gyro"
	}
	return "unknown"
}

// IMURaw represents a single raw 6-axis sample in native sensor counts.
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// AxisReader is the sample source consumed by the classifier.
// A non-nil error is a transient failure: the caller discards the attempt
// and tries the same slot again on the next tick.
type AxisReader interface {
	ReadAxes(g Group) (x, y, z int16, err error)
}
