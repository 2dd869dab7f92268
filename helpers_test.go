// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable helpers and fixtures for tests.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evolution-gaming/vidinfo/internal/video"
)

const ffprobeFixtureDir = "internal/tools/testdata/ffprobe"

// fixFakeFfprobeOnPath fixture creates fake ffprobe on PATH that prints given
// ffprobe JSON fixture regardless of arguments.
func fixFakeFfprobeOnPath(t *testing.T, fixture string) (ffprobePath string) {
	t.Helper()
	fixturePath, err := filepath.Abs(path.Join(ffprobeFixtureDir, fixture))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	fakeDir := t.TempDir()
	t.Setenv("PATH", fmt.Sprintf("%s:%s", fakeDir, os.Getenv("PATH")))
	t.Setenv("VIDINFO_FFPROBE", "")

	ffprobePath = path.Join(fakeDir, "ffprobe")
	script := fmt.Sprintf("#!/bin/sh\nexec cat '%s'\n", fixturePath)
	if err := os.WriteFile(ffprobePath, []byte(script), fs.FileMode(0o755)); err != nil {
		t.Fatalf("Unable to create fake ffprobe: %v", err)
	}
	return ffprobePath
}

// fixVideoFiles fixture creates empty files with given names, fake ffprobe
// does not look into them.
func fixVideoFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = path.Join(dir, n)
		if err := os.WriteFile(out[i], nil, fs.FileMode(0o644)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	return out
}

// fixConfigFile fixture writes configuration file with given name and contents.
func fixConfigFile(t *testing.T, name, contents string) string {
	t.Helper()
	fPath := path.Join(t.TempDir(), name)
	if err := os.WriteFile(fPath, []byte(contents), fs.FileMode(0o644)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return fPath
}

// fakeExtractor succeeds for all sources except those containing "bad".
// Duration and bitrate grow with source name length.
type fakeExtractor struct{}

func (fakeExtractor) ExtractMetadata(_ context.Context, source string) (video.Metadata, error) {
	if strings.Contains(source, "bad") {
		return video.Metadata{}, video.NewError(video.KindNoVideoTrack, source, "no video track")
	}
	return video.Metadata{
		Width:       1280,
		Height:      720,
		Duration:    int64(len(source)) * 250,
		Codec:       "avc1",
		Bitrate:     int64(len(source)) * 250_000,
		FPS:         25,
		Container:   video.ContainerOf(source),
		StreamCount: 1,
	}, nil
}
