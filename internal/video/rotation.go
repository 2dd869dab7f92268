// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import "math"

// Half-width of a band around each quarter turn that still snaps to it.
const rotationTolerance = 5.0

// NormalizeDegrees snaps an arbitrary angle to one of 0, 90, 180 or 270.
//
// Angles more than rotationTolerance away from a quarter turn yield 0.
func NormalizeDegrees(deg float64) int {
	a := math.Mod(deg, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}

	within := func(center float64) bool {
		return a >= center-rotationTolerance && a <= center+rotationTolerance
	}
	switch {
	case within(90):
		return 90
	case within(180), within(-180):
		return 180
	case within(-90):
		return 270
	default:
		return 0
	}
}

// RotationOf returns normalized display rotation of a transform.
func RotationOf(t Transform) int {
	return NormalizeDegrees(t.Angle())
}
