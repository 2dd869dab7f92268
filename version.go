// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Version reporting. Release builds inject version with
// -ldflags="-X main.version={ver}", "go install" builds fall back to
// debug.BuildInfo.

package main

import (
	"fmt"
	"io"
	"runtime/debug"
	"time"
)

var version string

// versionInfo is struct that includes relevant version information.
type versionInfo struct {
	time     time.Time
	version  string
	revision string
	modified bool
}

// readVersionInfo combines injected version with build information.
func readVersionInfo(injected string, bi *debug.BuildInfo) versionInfo {
	v := versionInfo{version: injected}
	if bi == nil {
		return v
	}
	if v.version == "" {
		v.version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.revision = s.Value
		case "vcs.time":
			v.time, _ = time.Parse(time.RFC3339, s.Value)
		case "vcs.modified":
			v.modified = s.Value == "true"
		}
	}
	return v
}

func (v versionInfo) String() string {
	s := v.version
	if s == "" {
		s = "(devel)"
	}
	if v.revision != "" {
		s = fmt.Sprintf("%s %s", s, v.revision)
		if v.modified {
			s += "+dirty"
		}
	}
	if !v.time.IsZero() {
		s = fmt.Sprintf("%s %s", s, v.time.UTC().Format(time.DateOnly))
	}
	return "vidinfo " + s
}

func printVersion(w io.Writer) {
	bi, _ := debug.ReadBuildInfo()
	fmt.Fprintln(w, readVersionInfo(version, bi))
}
