// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package orientation derives how the sensor is mounted from the gravity
// vector captured during calibration.
package orientation

import (
	"math"
)

// Pose is the resting tilt of the sensor in degrees. Yaw cannot be seen
// from gravity alone and is not reported.
type Pose struct {
	Roll    float64 `json:"roll"`
	Pitch   float64 `json:"pitch"`
	Gravity float64 `json:"gravity_g"` // magnitude of the baseline accel vector
}

// FromAccel computes roll and pitch from a resting accelerometer reading in g.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func FromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:    rollRad * 180.0 / math.Pi,
		Pitch:   pitchRad * 180.0 / math.Pi,
		Gravity: math.Sqrt(ax*ax + ay*ay + az*az),
	}
}

// GravityOK reports whether the baseline magnitude is within tol g of 1 g.
// A large error means the sensor moved during calibration or the
// accelerometer scale is wrong.
func (p Pose) GravityOK(tol float64) bool {
	return math.Abs(p.Gravity-1) <= tol
}
