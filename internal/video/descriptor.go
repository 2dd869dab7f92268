// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import "math"

// Transform is a 2D affine transform as stored in container track headers.
//
// Only the 2x2 block (A, B, C, D) carries rotation, Tx and Ty are translation.
type Transform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// Identity is a transform that does nothing.
var Identity = Transform{A: 1, D: 1}

// TransformFromDegrees creates a pure rotation transform.
func TransformFromDegrees(deg float64) Transform {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

// Angle returns rotation angle of the transform in degrees, in (-180, 180].
func (t Transform) Angle() float64 {
	return math.Atan2(t.B, t.A) * 180 / math.Pi
}

func (t Transform) finite() bool {
	for _, v := range []float64{t.A, t.B, t.C, t.D, t.Tx, t.Ty} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CodecTag is a raw codec identifier as reported by a probe.
//
// FourCC holds four packed bytes, first character in the most significant
// byte. Name is a textual identifier when the probe has one.
type CodecTag struct {
	FourCC uint32
	Name   string
}

// AudioTrack describes first audio track of a source. Zero SampleRate or
// Channels means the probe could not tell.
type AudioTrack struct {
	Tag        CodecTag
	SampleRate int
	Channels   int
}

// Descriptor is raw track level description of a media source.
type Descriptor struct {
	// Path or URL that was probed
	Source string
	// HasVideo is false when source has no video track at all
	HasVideo bool
	// Natural size of video track, before any rotation
	Width  int
	Height int
	// Preferred display transform of video track
	Transform Transform
	// Nominal frame rate
	FrameRate float64
	// Duration in milliseconds
	Duration int64
	VideoTag CodecTag
	// Estimated video bitrate in bits/s, 0 if unavailable
	BitRate      int64
	Audio        *AudioTrack
	HasSubtitles bool
	TrackCount   int
}
