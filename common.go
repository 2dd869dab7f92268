// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Reusable parts of vidinfo application and subcommand infrastructure.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/tools"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

// Commander interface should be implemented by commands and sub-commands.
type Commander interface {
	Run([]string) error
	Name() string
	Help()
}

// AppError a custom error returned from CLI application.
//
// AppError is handy error type envisioned to be used in CLI's main.
// ExitCode() should be used as argument for os.Exit().
type AppError struct {
	msg      string
	exitCode int
}

// Error implements error interface for AppError.
func (e *AppError) Error() string {
	return e.msg
}

// ExitCode returns CLI application's exit code.
func (e *AppError) ExitCode() int {
	return e.exitCode
}

// printSubCommandUsage helper to format ad print subcommand's usage.
func printSubCommandUsage(longHelp string, fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage of sub-command %s:\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "%s\n\n", longHelp)
	fs.PrintDefaults()
}

// inputFiles implements flag.Value interface.
type inputFiles []string

func (i *inputFiles) String() string {
	return strings.Join(*i, ", ")
}

func (i *inputFiles) Set(value string) error {
	*i = append(*i, value)
	return nil
}

// readListFile reads sources from file, one per line. Blank lines and lines
// starting with "#" are skipped.
func readListFile(fPath string) ([]string, error) {
	fd, err := os.Open(fPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open list file: %w", err)
	}
	defer fd.Close()

	var out []string
	sc := bufio.NewScanner(fd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read list file: %w", err)
	}
	return out, nil
}

// loadVerifiedConfig loads configuration and checks it is valid, errors are
// wrapped into AppError.
func loadVerifiedConfig(confFile string) (Config, error) {
	cfg, err := LoadConfig(confFile)
	if err != nil {
		return cfg, &AppError{exitCode: 1, msg: err.Error()}
	}
	logging.Debugf("Application configuration: %#v", cfg)

	if err := cfg.Verify(); err != nil {
		return cfg, &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}
	return cfg, nil
}

// newExtractor wires metadata extraction according to configuration.
func newExtractor(cfg Config) (*video.ProbeExtractor, error) {
	ffprobe, err := tools.NewFfprobeProber(
		cfg.FfprobePath.Value(),
		cfg.FfprobeArgs.Value(),
		cfg.StderrLimit.Value(),
	)
	if err != nil {
		return nil, err
	}
	return &video.ProbeExtractor{
		Prober: tools.NewSourceProber(ffprobe, cfg.LoadTimeoutDuration()),
	}, nil
}

// signalContext returns context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fileExists checks that regular file exists at given path.
func fileExists(fPath string) bool {
	if fPath == "" {
		return false
	}
	fi, err := os.Stat(fPath)
	return err == nil && !fi.IsDir()
}
