// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Poor man's logging. Implements 2-level loggers for Info and Debug. Minimal
// wrap around standard library's "log" package, with scoped loggers to tag
// lines belonging to a single request.
package logging

import (
	"fmt"
	"io"
	"log"
	"sync"
)

var (
	mu            sync.Mutex
	defaultOutput io.Writer = log.Default().Writer()
	debugEnabled  bool
	infoEnabled   bool
	debugFlags    = log.Ldate | log.Ltime | log.Lshortfile
	infoFlags     = log.Ldate | log.Ltime
	// Each log-level logger should be explicitly enabled via call to Enable*Logger().
	DebugLogger = log.New(io.Discard, debugPrefix, debugFlags)
	InfoLogger  = log.New(io.Discard, infoPrefix, infoFlags)
)

const (
	debugPrefix = "DEBUG: "
	infoPrefix  = "INFO: "
	calldepth   = 2
)

// SetOutput redirects enabled loggers to w.
//
// The serve command needs this, stdout is reserved for the response channel.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	defaultOutput = w
	if infoEnabled {
		InfoLogger.SetOutput(w)
	}
	if debugEnabled {
		DebugLogger.SetOutput(w)
	}
}

// EnableInfoLogger helper function to explicitly enable InfoLogger.
func EnableInfoLogger() {
	mu.Lock()
	defer mu.Unlock()
	infoEnabled = true
	InfoLogger.SetOutput(defaultOutput)
}

// EnableDebugLogger helper function to explicitly enable DebugLogger.
func EnableDebugLogger() {
	mu.Lock()
	defer mu.Unlock()
	debugEnabled = true
	DebugLogger.SetOutput(defaultOutput)
}

func Info(v ...interface{}) {
	InfoLogger.Output(calldepth, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	InfoLogger.Output(calldepth, fmt.Sprintf(format, v...))
}

func Debug(v ...interface{}) {
	DebugLogger.Output(calldepth, fmt.Sprint(v...))
}

func Debugf(format string, v ...interface{}) {
	DebugLogger.Output(calldepth, fmt.Sprintf(format, v...))
}

// Scoped logs through package level loggers, prefixing each message.
type Scoped struct {
	prefix string
}

// With returns a Scoped logger, messages will start with "[prefix] ".
func With(prefix string) Scoped {
	return Scoped{prefix: "[" + prefix + "] "}
}

func (s Scoped) Infof(format string, v ...interface{}) {
	InfoLogger.Output(calldepth, s.prefix+fmt.Sprintf(format, v...))
}

func (s Scoped) Debugf(format string, v ...interface{}) {
	DebugLogger.Output(calldepth, s.prefix+fmt.Sprintf(format, v...))
}
