// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Video metadata related constructs.

package video

import (
	"context"
	"encoding/json"
	"fmt"
)

// Metadata is the canonical video metadata record.
//
// Audio related fields are pointers: nil means the value is not known and the
// field is left out of serialized output altogether.
type Metadata struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Duration     int64   `json:"duration"`
	Codec        string  `json:"codec"`
	Bitrate      int64   `json:"bitrate"`
	FPS          float64 `json:"fps"`
	Rotation     int     `json:"rotation"`
	Container    string  `json:"container"`
	AudioCodec   *string `json:"audioCodec,omitempty"`
	SampleRate   *int    `json:"sampleRate,omitempty"`
	Channels     *int    `json:"channels,omitempty"`
	HasAudio     bool    `json:"hasAudio"`
	HasSubtitles bool    `json:"hasSubtitles"`
	StreamCount  int     `json:"streamCount"`
}

// Envelope is the success payload handed back to callers.
type Envelope struct {
	Success bool     `json:"success"`
	Data    Metadata `json:"data"`
}

// EnvelopeJSON returns Metadata wrapped into success Envelope as JSON text.
func (m Metadata) EnvelopeJSON() (string, error) {
	b, err := json.Marshal(Envelope{Success: true, Data: m})
	if err != nil {
		return "", fmt.Errorf("EnvelopeJSON() marshal: %w", err)
	}
	return string(b), nil
}

// Result is an outcome of a single extraction, either a success or a failure.
type Result struct {
	Source   string
	Metadata Metadata
	Err      error
}

// OK reports whether Result is successful.
func (r Result) OK() bool {
	return r.Err == nil
}

// MetadataExtractor is the interface that wraps ExtractMetadata method.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, source string) (Metadata, error)
}

// Prober inspects a media source and describes its tracks.
type Prober interface {
	Probe(ctx context.Context, source string) (Descriptor, error)
}

// ProberFunc adapts a plain function to Prober interface.
type ProberFunc func(ctx context.Context, source string) (Descriptor, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, source string) (Descriptor, error) {
	return f(ctx, source)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
