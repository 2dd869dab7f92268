// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// A naìve LimitedWriter implementation.
//
// Unlike io.LimitedReader it never fails: data beyond the limit is dropped and
// reported as written, so a chatty child process is not broken by its own
// diagnostics output.
package lw

import (
	"io"
)

type LimitedWriter struct {
	// Apply limits to this Writer
	W io.Writer
	// Remaining number of bytes to pass through
	N uint
	// Number of dropped bytes
	dropped uint
}

// Write implements io.Writer for *LimitedWriter.
func (s *LimitedWriter) Write(b []byte) (int, error) {
	keep := b
	if uint(len(keep)) > s.N {
		keep = keep[:s.N]
	}
	n, err := s.W.Write(keep)
	s.N -= uint(n)
	if err != nil {
		return n, err
	}
	s.dropped += uint(len(b) - len(keep))
	return len(b), nil
}

// Truncated reports whether any data was dropped.
func (s *LimitedWriter) Truncated() bool {
	return s.dropped > 0
}

// Dropped returns number of bytes dropped so far.
func (s *LimitedWriter) Dropped() uint {
	return s.dropped
}

func LimitWriter(w io.Writer, n uint) *LimitedWriter {
	return &LimitedWriter{W: w, N: n}
}
