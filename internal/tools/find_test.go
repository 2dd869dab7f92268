// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tools

import (
	"os"
	"path"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixFakeExecutable creates an empty executable file named exeName in a fresh
// temporary directory and returns its path.
func fixFakeExecutable(t *testing.T, exeName string, mode os.FileMode) string {
	t.Helper()
	dir := t.TempDir()
	p := path.Join(dir, exeName)
	f, err := os.OpenFile(p, os.O_CREATE, mode)
	require.NoError(t, err)
	f.Close()
	return p
}

func Test_FindTool(t *testing.T) {
	exePath := fixFakeExecutable(t, "mytool", 0o755)
	fakeBinDir := path.Dir(exePath)

	t.Run("Should fail if executable not found in $PATH nor overridden", func(t *testing.T) {
		got, err := FindTool("nonexistent", "")
		if diff := cmp.Diff("", got); diff != "" {
			t.Errorf("FindTool() mismatch (-want +got):\n%s", diff)
		}
		if err == nil {
			t.Error("Expecting error")
		}
	})

	t.Run("Should return path if overridden via env var", func(t *testing.T) {
		t.Setenv("CUSTOM_EXE_PATH", exePath)

		got, err := FindTool("mytool", "CUSTOM_EXE_PATH")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(exePath, got); diff != "" {
			t.Errorf("FindTool() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should fail if override is not executable", func(t *testing.T) {
		t.Setenv("CUSTOM_EXE_PATH", fixFakeExecutable(t, "mytool", 0o644))

		_, err := FindTool("mytool", "CUSTOM_EXE_PATH")
		assert.ErrorContains(t, err, "not executable")
	})

	t.Run("Should return path from $PATH", func(t *testing.T) {
		sysPath := os.Getenv("PATH")
		t.Setenv("PATH", fakeBinDir+":"+sysPath)

		got, err := FindTool("mytool", "")
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(exePath, got); diff != "" {
			t.Errorf("FindTool() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should fall back to known directories", func(t *testing.T) {
		t.Setenv("PATH", "")

		got, err := FindTool("mytool", "", "/nonexistent", fakeBinDir)
		require.NoError(t, err)
		assert.Equal(t, exePath, got)
	})
}

func Test_FfprobePath(t *testing.T) {
	t.Run("From $PATH", func(t *testing.T) {
		want := fixFakeExecutable(t, "ffprobe", 0o755)
		t.Setenv(FfprobeEnvVar, "")
		t.Setenv("PATH", path.Dir(want))

		got, err := FfprobePath()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
		assert.FileExists(t, got)
	})

	t.Run("From env override", func(t *testing.T) {
		want := fixFakeExecutable(t, "ffprobe-7.1", 0o755)
		t.Setenv(FfprobeEnvVar, want)

		got, err := FfprobePath()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
