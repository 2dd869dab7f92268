// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Tests for plotting related functionality.

package analysis

import (
	"bytes"
	"os"
	"path"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolution-gaming/vidinfo/internal/metric"
)

// fixRecords fixture provides a small batch with one failure.
func fixRecords() []metric.Record {
	return []metric.Record{
		{Source: "/v/a.mp4", OK: true, Bitrate: 2_000_000, DurationMs: 5000, FPS: 30, Codec: "avc1", Container: "mp4"},
		{Source: "/v/b.webm", OK: true, Bitrate: 1_000_000, DurationMs: 12000, FPS: 25, Codec: "vp8", Container: "webm", Rotation: 90},
		{Source: "/v/c.mov", OK: true, Bitrate: 6_000_000, DurationMs: 1000, FPS: 60, Codec: "avc1", Container: "mov"},
		{Source: "/v/d.m4a", ErrorKind: "NoVideoTrack"},
	}
}

func Test_CreateHistogramPlot(t *testing.T) {
	title := "Test plot title"

	t.Run("Creating histogram plot should succeed", func(t *testing.T) {
		got, err := CreateHistogramPlot([]float64{1, 2, 2, 3, 10}, title)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if diff := cmp.Diff(title, got.X.Label.Text); diff != "" {
			t.Errorf("Plot title mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("No values", func(t *testing.T) {
		_, err := CreateHistogramPlot(nil, title)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func Test_CreateCDFPlot(t *testing.T) {
	title := "Test plot title"
	values := []float64{3, 1, 2}

	t.Run("Creating CDF plot should succeed", func(t *testing.T) {
		got, err := CreateCDFPlot(values, title)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if diff := cmp.Diff(title, got.X.Label.Text); diff != "" {
			t.Errorf("Plot title mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []float64{3, 1, 2}, values, "Input should not be mutated")
	})

	t.Run("No values", func(t *testing.T) {
		_, err := CreateCDFPlot(nil, title)
		assert.ErrorIs(t, err, ErrNoData)
	})
}

func Test_CreateBitratePlot(t *testing.T) {
	got, err := CreateBitratePlot(fixRecords())
	require.NoError(t, err)
	assert.Equal(t, "Mbps", got.Y.Label.Text)

	_, err = CreateBitratePlot(fixRecords()[3:])
	assert.ErrorIs(t, err, ErrNoData)
}

func Test_PlotBatch(t *testing.T) {
	t.Run("Writes PNG file", func(t *testing.T) {
		outFile := path.Join(t.TempDir(), "batch.png")

		err := PlotBatch(fixRecords(), "Batch", outFile)
		require.NoError(t, err)

		b, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")), "Expected PNG signature")
	})

	t.Run("Only failures is an error and no file", func(t *testing.T) {
		outFile := path.Join(t.TempDir(), "batch.png")

		err := PlotBatch(fixRecords()[3:], "Batch", outFile)
		assert.ErrorIs(t, err, ErrNoData)
		assert.NoFileExists(t, outFile)
	})

	t.Run("Unwritable destination", func(t *testing.T) {
		err := PlotBatch(fixRecords(), "Batch", path.Join(t.TempDir(), "missing", "batch.png"))
		assert.Error(t, err)
	})
}
