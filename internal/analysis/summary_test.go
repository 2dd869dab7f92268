// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analysis

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/evolution-gaming/vidinfo/internal/metric"
)

func TestSummarize(t *testing.T) {
	t.Run("Mixed batch", func(t *testing.T) {
		want := Summary{
			Total:           4,
			Failed:          1,
			TotalDurationMs: 18000,
			Bitrate:         Stats{Min: 1e6, Max: 6e6, Mean: 3e6, StdDev: math.Sqrt(7e12)},
			Duration:        Stats{Min: 1000, Max: 12000, Mean: 6000, StdDev: math.Sqrt(31e6)},
			FPS:             Stats{Min: 25, Max: 60, Mean: 115.0 / 3, StdDev: math.Sqrt(358.3333333333333)},
			Codecs:          map[string]int{"avc1": 2, "vp8": 1},
			Containers:      map[string]int{"mp4": 1, "webm": 1, "mov": 1},
			Rotated:         1,
		}

		got := Summarize(fixRecords())
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-12, 1e-9)); diff != "" {
			t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Single record has zero deviation", func(t *testing.T) {
		got := Summarize(fixRecords()[:1])
		assert.Equal(t, Stats{Min: 2e6, Max: 2e6, Mean: 2e6}, got.Bitrate)
	})

	t.Run("Empty and failed only", func(t *testing.T) {
		for _, given := range [][]metric.Record{nil, fixRecords()[3:]} {
			got := Summarize(given)
			assert.Equal(t, Stats{}, got.Bitrate)
			assert.Equal(t, len(given), got.Failed)
			assert.NotPanics(t, func() { _ = got.String() })
		}
	})
}

func TestSummary_String(t *testing.T) {
	s := Summarize(fixRecords()).String()
	assert.Contains(t, s, "sources: 4, failed: 1, rotated: 1")
	assert.Contains(t, s, "total duration: 18.000s")
	assert.Contains(t, s, "codecs: avc1=2 vp8=1")
	assert.Contains(t, s, "containers: mov=1 mp4=1 webm=1")
}
