// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Implementation of batch subcommand.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/evolution-gaming/vidinfo/internal/analysis"
	"github.com/evolution-gaming/vidinfo/internal/batch"
	"github.com/evolution-gaming/vidinfo/internal/dispatch"
	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/metric"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

func CreateBatchCommand() *BatchApp {
	longHelp := `Command "batch" prints metadata of several video sources as JSON array of
envelope texts, in the same order sources were given. By default the first
failing source aborts the whole batch. With -keep-going every source is
reported, failures included.

Sources are given with repeated -i flags and/or a list file (one source per
line, blank lines and lines starting with "#" are skipped).

Optionally a per source CSV report and an overview plot (PNG) are written.

Examples:

	vidinfo batch -i a.mp4 -i b.webm
	vidinfo batch -list sources.txt -workers 4 -report report.csv -plot overview.png
	vidinfo batch -list sources.txt -keep-going`

	app := &BatchApp{
		fs:  flag.NewFlagSet("batch", flag.ContinueOnError),
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.Var(&app.flSources, "i", "Video source path or URL (repeatable)")
	app.fs.StringVar(&app.flListFile, "list", "", "File with video sources, one per line (optional)")
	app.fs.IntVar(&app.flWorkers, "workers", 0, "Number of concurrent extractions, overrides batch_workers config option (optional)")
	app.fs.StringVar(&app.flReport, "report", "", "Write per source CSV report to this file (optional)")
	app.fs.StringVar(&app.flPlot, "plot", "", "Write batch overview plot PNG to this file (optional)")
	app.fs.BoolVar(&app.flKeepGoing, "keep-going", false, "Report every source instead of failing on the first error")
	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}

	return app
}

// Make sure BatchApp implements Commander interface.
var _ Commander = (*BatchApp)(nil)

// BatchApp is batch subcommand context that holds all flags and configuration.
type BatchApp struct {
	out         io.Writer
	fs          *flag.FlagSet
	gf          globalFlags
	cfg         Config
	flSources   inputFiles
	flListFile  string
	flWorkers   int
	flReport    string
	flPlot      string
	flKeepGoing bool
	// Overrides configured extractor, used in tests.
	extractor video.MetadataExtractor
	sources   []string
}

func (a *BatchApp) Name() string {
	return a.fs.Name()
}

func (a *BatchApp) Help() {
	a.fs.Usage()
}

func (a *BatchApp) init(args []string) (err error) {
	if err = a.gf.parse(a.fs, args); err != nil {
		return err
	}

	a.sources = append(a.sources, a.flSources...)
	if a.flListFile != "" {
		listed, err := readListFile(a.flListFile)
		if err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
		a.sources = append(a.sources, listed...)
	}
	if len(a.sources) == 0 {
		a.fs.Usage()
		return &AppError{exitCode: 2, msg: "no sources given, use -i or -list"}
	}
	if a.flWorkers < 0 {
		return &AppError{exitCode: 2, msg: "-workers should not be negative"}
	}

	if a.cfg, err = loadVerifiedConfig(a.gf.ConfFile); err != nil {
		return err
	}
	if a.extractor == nil {
		if a.extractor, err = newExtractor(a.cfg); err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
	}
	if a.flWorkers == 0 {
		a.flWorkers = max(a.cfg.BatchWorkers.Value(), 1)
	}
	return nil
}

// Run is main entry point into BatchApp execution.
func (a *BatchApp) Run(args []string) error {
	if err := a.init(args); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	store := metric.NewStore()
	ex := &recordingExtractor{ex: a.extractor, store: store}

	start := time.Now()
	var runErr error
	if a.flKeepGoing {
		runErr = a.runKeepGoing(ctx, ex)
	} else {
		runErr = a.runFailFast(ctx, ex)
	}
	logging.Infof("Batch of %d source(s) done in %s", len(a.sources), time.Since(start))

	records := orderRecords(store.Records(), a.sources)
	if len(records) > 0 {
		logging.Infof("Batch summary:\n%s", analysis.Summarize(records))
	}
	if err := a.writeArtifacts(records); err != nil {
		if runErr != nil {
			logging.Infof("Writing batch artifacts: %s", err)
			return runErr
		}
		return err
	}
	return runErr
}

func (a *BatchApp) runFailFast(ctx context.Context, ex video.MetadataExtractor) error {
	d := dispatch.NewDispatcher(ex, a.flWorkers, nil)
	resp := d.Dispatch(ctx, dispatch.Call{
		Method:    dispatch.MethodGetBatch,
		Arguments: map[string]any{"paths": a.sources},
	})
	if !resp.OK() {
		return &AppError{exitCode: 1, msg: resp.Err.Error()}
	}
	return a.printJSON(resp.Result)
}

// keepGoingItem is per source output entry of -keep-going mode.
type keepGoingItem struct {
	Source string                  `json:"source"`
	Result string                  `json:"result,omitempty"`
	Error  *dispatch.ResponseError `json:"error,omitempty"`
}

func (a *BatchApp) runKeepGoing(ctx context.Context, ex video.MetadataExtractor) error {
	results := batch.Results(ctx, ex, a.sources)
	items := make([]keepGoingItem, len(results))
	var failed int
	for i, r := range results {
		items[i].Source = r.Source
		if r.OK() {
			s, err := r.Metadata.EnvelopeJSON()
			if err == nil {
				items[i].Result = s
				continue
			}
			r.Err = err
		}
		failed++
		items[i].Error = &dispatch.ResponseError{Code: dispatch.CodeMetadataError, Message: r.Err.Error()}
	}
	if err := a.printJSON(items); err != nil {
		return err
	}
	if failed > 0 {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("%d of %d source(s) failed", failed, len(results))}
	}
	return nil
}

func (a *BatchApp) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("writing output: %s", err)}
	}
	return nil
}

func (a *BatchApp) writeArtifacts(records []metric.Record) error {
	if a.flReport != "" {
		if err := writeReport(a.flReport, records); err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
		logging.Infof("CSV report written to %s", a.flReport)
	}
	if a.flPlot != "" {
		err := analysis.PlotBatch(records, fmt.Sprintf("vidinfo batch of %d source(s)", len(a.sources)), a.flPlot)
		switch {
		case errors.Is(err, analysis.ErrNoData):
			logging.Infof("Skipping plot: %s", err)
		case err != nil:
			return &AppError{exitCode: 1, msg: err.Error()}
		default:
			logging.Infof("Plot written to %s", a.flPlot)
		}
	}
	return nil
}

func writeReport(fPath string, records []metric.Record) (err error) {
	fd, err := os.Create(fPath)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer func() {
		if cerr := fd.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing report file: %w", cerr)
		}
	}()
	return metric.WriteCSV(fd, records)
}

// orderRecords sorts records by position of their source in sources.
func orderRecords(records []metric.Record, sources []string) []metric.Record {
	pos := make(map[string]int, len(sources))
	for i, s := range sources {
		if _, seen := pos[s]; !seen {
			pos[s] = i
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return pos[records[i].Source] < pos[records[j].Source]
	})
	return records
}

// recordingExtractor stores a metric.Record for each extraction it runs.
// Extractions interrupted by cancellation are not recorded.
type recordingExtractor struct {
	ex    video.MetadataExtractor
	store *metric.Store
}

func (r *recordingExtractor) ExtractMetadata(ctx context.Context, source string) (video.Metadata, error) {
	start := time.Now()
	m, err := r.ex.ExtractMetadata(ctx, source)
	if errors.Is(err, context.Canceled) {
		return m, err
	}
	r.store.Insert(metric.NewRecord(video.Result{Source: source, Metadata: m, Err: err}, time.Since(start)))
	return m, err
}
