// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Implementation of serve subcommand.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/evolution-gaming/vidinfo/internal/channel"
	"github.com/evolution-gaming/vidinfo/internal/dispatch"
	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

const shutdownTimeout = 5 * time.Second

func CreateServeCommand() *ServeApp {
	longHelp := `Command "serve" answers metadata requests read from stdin, one JSON object
per line, and writes responses to stdout, one JSON object per line. Logs go to
stderr. Responses are written as calls complete and can come out of order, use
"id" to correlate them.

Request:  {"id": 1, "method": "getInfo", "arguments": {"path": "video.mp4"}}
Request:  {"id": 2, "method": "getBatch", "arguments": {"paths": ["a.mp4", "b.webm"]}}
Response: {"id": 1, "result": "{\"success\":true,\"data\":{...}}"}
Response: {"id": 2, "error": {"code": "METADATA_ERROR", "message": "..."}}

Examples:

	vidinfo serve
	vidinfo serve -conf config.yaml -metrics-addr :9090`

	app := &ServeApp{
		fs:  flag.NewFlagSet("serve", flag.ContinueOnError),
		in:  os.Stdin,
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.StringVar(&app.flMetricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address, e.g. :9090 (optional)")
	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}

	return app
}

// Make sure ServeApp implements Commander interface.
var _ Commander = (*ServeApp)(nil)

// ServeApp is serve subcommand context that holds all flags and configuration.
type ServeApp struct {
	in            io.Reader
	out           io.Writer
	fs            *flag.FlagSet
	gf            globalFlags
	cfg           Config
	flMetricsAddr string
	// Overrides configured extractor, used in tests.
	extractor video.MetadataExtractor
}

func (a *ServeApp) Name() string {
	return a.fs.Name()
}

func (a *ServeApp) Help() {
	a.fs.Usage()
}

func (a *ServeApp) init(args []string) (err error) {
	// Stdout is reserved for responses.
	logging.SetOutput(os.Stderr)

	if a.cfg, err = a.gf.load(a.fs, args); err != nil {
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

// Run is main entry point into ServeApp execution.
func (a *ServeApp) Run(args []string) error {
	if err := a.init(args); err != nil {
		return err
	}

	sigCtx, stop := signalContext()
	defer stop()

	return a.serve(sigCtx)
}

func (a *ServeApp) serve(parent context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := dispatch.NewDispatcher(a.extractor, a.cfg.BatchWorkers.Value(), reg)
	host := dispatch.NewHost(d, a.cfg.MaxInFlight.Value())
	defer host.Close()

	// Cancelled when channel is done, so metrics endpoint stops as well.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		logging.Info("Serving requests on stdin/stdout")
		err := channel.Serve(gctx, a.in, a.out, host)
		if errors.Is(err, context.Canceled) {
			logging.Infof("Serving interrupted, outstanding calls dropped")
			return nil
		}
		return err
	})

	if a.flMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{
			Addr:              a.flMetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logging.Infof("Serving metrics on %s/metrics", a.flMetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shCtx, shCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shCancel()
			return srv.Shutdown(shCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}
	return nil
}
