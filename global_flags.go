// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/evolution-gaming/vidinfo/internal/logging"
)

// globalFlags are flags shared by all subcommands that load configuration.
type globalFlags struct {
	ConfFile string
	Debug    bool
}

func (g *globalFlags) Register(fs *flag.FlagSet) {
	fs.BoolVar(&g.Debug, "debug", false, "Enable debug logging (optional)")
	fs.StringVar(&g.ConfFile, "conf", "", "Application configuration file path, JSON or YAML (optional)")
}

// parse parses subcommand arguments, usage errors are reported as AppError
// with exit code 2.
func (g *globalFlags) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return &AppError{exitCode: 2, msg: "usage error"}
	}
	if g.Debug {
		logging.EnableDebugLogger()
	}
	return nil
}

// load parses arguments and loads verified configuration.
func (g *globalFlags) load(fs *flag.FlagSet, args []string) (Config, error) {
	if err := g.parse(fs, args); err != nil {
		return Config{}, err
	}
	return loadVerifiedConfig(g.ConfFile)
}
