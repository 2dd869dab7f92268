// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/evolution-gaming/vidinfo/internal/metric"
)

// Stats is a descriptive statistics of a single value series.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

func newStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	s := Stats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
	// Sample standard deviation is undefined for a single value.
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// Summary aggregates a batch of extraction records.
type Summary struct {
	Total  int
	Failed int
	// Summed duration of successful records in milliseconds.
	TotalDurationMs int64
	Bitrate         Stats
	Duration        Stats
	FPS             Stats
	Codecs          map[string]int
	Containers      map[string]int
	// Records with non-zero rotation.
	Rotated int
}

// Summarize computes Summary over successful records, failed ones are only
// counted.
func Summarize(records []metric.Record) Summary {
	s := Summary{
		Total:      len(records),
		Codecs:     make(map[string]int),
		Containers: make(map[string]int),
	}

	var bitrates, durations, fps []float64
	for _, r := range records {
		if !r.OK {
			s.Failed++
			continue
		}
		s.TotalDurationMs += r.DurationMs
		bitrates = append(bitrates, float64(r.Bitrate))
		durations = append(durations, float64(r.DurationMs))
		fps = append(fps, r.FPS)
		s.Codecs[r.Codec]++
		s.Containers[r.Container]++
		if r.Rotation != 0 {
			s.Rotated++
		}
	}

	s.Bitrate = newStats(bitrates)
	s.Duration = newStats(durations)
	s.FPS = newStats(fps)
	return s
}

// String renders Summary as a short multi-line text for logs.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sources: %d, failed: %d, rotated: %d\n", s.Total, s.Failed, s.Rotated)
	fmt.Fprintf(&b, "total duration: %.3fs\n", float64(s.TotalDurationMs)/1000)
	fmt.Fprintf(&b, "bitrate (bps): min=%.0f max=%.0f mean=%.0f stdev=%.0f\n",
		s.Bitrate.Min, s.Bitrate.Max, s.Bitrate.Mean, s.Bitrate.StdDev)
	fmt.Fprintf(&b, "fps: min=%.3f max=%.3f mean=%.3f\n", s.FPS.Min, s.FPS.Max, s.FPS.Mean)
	fmt.Fprintf(&b, "codecs: %s\n", formatCounts(s.Codecs))
	fmt.Fprintf(&b, "containers: %s", formatCounts(s.Containers))
	return b.String()
}

// formatCounts renders counts sorted by key, e.g. "avc1=2 vp8=1".
func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		name := k
		if name == "" {
			name = "-"
		}
		parts[i] = fmt.Sprintf("%s=%d", name, m[k])
	}
	return strings.Join(parts, " ")
}
