// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	ffprobeCmd = "ffprobe"
	// FfprobeEnvVar overrides ffprobe location.
	FfprobeEnvVar = "VIDINFO_FFPROBE"
)

// A list of known locations where various distributions of ffmpeg may put
// their binaries when those are not on $PATH.
var ffprobeLocations = []string{
	"/usr/local/bin",
	"/opt/ffmpeg-static/bin",
	"/opt/homebrew/bin",
}

// FindTool will find tool executable with possibility to override it via
// environment variable. Lookup order is: override, $PATH, fallback
// directories.
func FindTool(exeName, overrideEnvVar string, fallbackDirs ...string) (string, error) {
	// First check for executable in case it's overridden via env variable.
	if overrideEnvVar != "" {
		if p := os.Getenv(overrideEnvVar); p != "" {
			if isExecutable(p) {
				return p, nil
			}
			return "", fmt.Errorf("binary (%s) from $%s is not executable", p, overrideEnvVar)
		}
	}

	// Look for executable in $PATH.
	if p, err := exec.LookPath(exeName); err == nil {
		return p, nil
	}

	for _, dir := range fallbackDirs {
		p := filepath.Join(dir, exeName)
		if isExecutable(p) {
			return p, nil
		}
	}

	// So we did not find any traces of executable - error out!
	return "", fmt.Errorf("binary (%s) not found", exeName)
}

// FfprobePath will return path to ffprobe binary and error if path is not found.
func FfprobePath() (string, error) {
	p, err := FindTool(ffprobeCmd, FfprobeEnvVar, ffprobeLocations...)
	if err != nil {
		return "", fmt.Errorf("ffprobe not found: %w", err)
	}
	return p, nil
}

func isExecutable(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() {
		return false
	}
	return fi.Mode().Perm()&0o111 != 0
}
