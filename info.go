// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Implementation of info subcommand.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/evolution-gaming/vidinfo/internal/dispatch"
	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

func CreateInfoCommand() *InfoApp {
	longHelp := `Command "info" prints metadata of a single video source as JSON envelope
{"success": true, "data": {...}}. Source is a local file path or an
http(s) URL.

Examples:

	vidinfo info -i path/to/video.mp4
	vidinfo info -conf config.yaml -i https://example.com/video.webm`

	app := &InfoApp{
		fs:  flag.NewFlagSet("info", flag.ContinueOnError),
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flSource, "i", "", "Video source path or URL (mandatory)")
	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}

	return app
}

// Make sure InfoApp implements Commander interface.
var _ Commander = (*InfoApp)(nil)

// InfoApp is info subcommand context that holds all flags and configuration.
type InfoApp struct {
	out      io.Writer
	fs       *flag.FlagSet
	gf       globalFlags
	cfg      Config
	flSource string
	// Overrides configured extractor, used in tests.
	extractor video.MetadataExtractor
}

func (a *InfoApp) Name() string {
	return a.fs.Name()
}

func (a *InfoApp) Help() {
	a.fs.Usage()
}

func (a *InfoApp) init(args []string) (err error) {
	if err = a.gf.parse(a.fs, args); err != nil {
		return err
	}
	if a.flSource == "" {
		a.fs.Usage()
		return &AppError{exitCode: 2, msg: "mandatory option -i is missing"}
	}
	if a.cfg, err = loadVerifiedConfig(a.gf.ConfFile); err != nil {
		return err
	}
	if a.extractor != nil {
		return nil
	}
	if a.extractor, err = newExtractor(a.cfg); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	return nil
}

// Run is main entry point into InfoApp execution.
func (a *InfoApp) Run(args []string) error {
	if err := a.init(args); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	d := dispatch.NewDispatcher(a.extractor, 1, nil)
	resp := d.Dispatch(ctx, dispatch.Call{
		Method:    dispatch.MethodGetInfo,
		Arguments: map[string]any{"path": a.flSource},
	})
	if !resp.OK() {
		return &AppError{exitCode: 1, msg: resp.Err.Error()}
	}
	logging.Debugf("Extracted metadata for %s", a.flSource)

	fmt.Fprintln(a.out, resp.Result)
	return nil
}
