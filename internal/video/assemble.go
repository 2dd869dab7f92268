// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package video

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/evolution-gaming/vidinfo/internal/logging"
)

// Assemble creates canonical Metadata from probe's Descriptor.
//
// Natural size is copied as is, rotation is only reported and never applied to
// width and height. Values that probe could not determine are left out (audio)
// or zero (bitrate, fps), nothing is made up.
func Assemble(d Descriptor) (Metadata, error) {
	var m Metadata

	if !d.HasVideo {
		return m, NewError(KindNoVideoTrack, d.Source, "no video track found")
	}
	if err := validate(d); err != nil {
		return m, err
	}

	m = Metadata{
		Width:        d.Width,
		Height:       d.Height,
		Duration:     d.Duration,
		Codec:        IdentifyCodec(d.VideoTag, d.Source),
		Bitrate:      d.BitRate,
		FPS:          d.FrameRate,
		Rotation:     RotationOf(d.Transform),
		Container:    ContainerOf(d.Source),
		HasSubtitles: d.HasSubtitles,
		StreamCount:  d.TrackCount,
	}

	if a := d.Audio; a != nil {
		m.HasAudio = true
		m.AudioCodec = strPtr(IdentifyCodec(a.Tag, ""))
		if a.SampleRate > 0 {
			m.SampleRate = intPtr(a.SampleRate)
		}
		if a.Channels > 0 {
			m.Channels = intPtr(a.Channels)
		}
	}

	return m, nil
}

// validate checks Descriptor for values no real probe should produce.
func validate(d Descriptor) error {
	var reasons []string
	if d.Width < 0 || d.Height < 0 {
		reasons = append(reasons, "negative frame size")
	}
	if d.Duration < 0 {
		reasons = append(reasons, "negative duration")
	}
	if d.BitRate < 0 {
		reasons = append(reasons, "negative bitrate")
	}
	if d.TrackCount < 0 {
		reasons = append(reasons, "negative track count")
	}
	if math.IsNaN(d.FrameRate) || math.IsInf(d.FrameRate, 0) || d.FrameRate < 0 {
		reasons = append(reasons, "invalid frame rate")
	}
	if !d.Transform.finite() {
		reasons = append(reasons, "non-finite transform")
	}
	if a := d.Audio; a != nil && (a.SampleRate < 0 || a.Channels < 0) {
		reasons = append(reasons, "invalid audio track")
	}

	if len(reasons) != 0 {
		return NewError(KindMalformedDescriptor, d.Source, "malformed descriptor: %s", strings.Join(reasons, ", "))
	}
	return nil
}

// Make sure ProbeExtractor implements MetadataExtractor interface.
var _ MetadataExtractor = (*ProbeExtractor)(nil)

// ProbeExtractor extracts Metadata by probing source with Prober.
type ProbeExtractor struct {
	Prober Prober
}

// ExtractMetadata implements MetadataExtractor.
func (p *ProbeExtractor) ExtractMetadata(ctx context.Context, source string) (Metadata, error) {
	if strings.TrimSpace(source) == "" {
		return Metadata{}, NewError(KindInvalidArgument, "", "source is required")
	}

	d, err := p.Prober.Probe(ctx, source)
	if err != nil {
		// Cancellation and caller deadline are not properties of the source.
		if isContextErr(err) || KindOf(err) != KindUnknown {
			return Metadata{}, err
		}
		return Metadata{}, WrapError(KindSourceUnreadable, source, err)
	}
	if d.Source == "" {
		d.Source = source
	}

	m, err := Assemble(d)
	if err != nil {
		return m, err
	}
	logging.Debugf("%s %+v", source, m)
	return m, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
