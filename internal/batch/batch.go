// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package batch extracts metadata for a list of sources.
//
// Process and ProcessConcurrent are fail-fast: the first failing source in
// input order is the only outcome, partial successes are discarded. Results
// is the per-item alternative which never aborts.
package batch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

// Process extracts metadata for each source sequentially, in input order.
func Process(ctx context.Context, ex video.MetadataExtractor, sources []string) ([]video.Metadata, error) {
	if len(sources) == 0 {
		return nil, video.NewError(video.KindInvalidArgument, "", "paths must be a non-empty list")
	}

	out := make([]video.Metadata, 0, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := ex.ExtractMetadata(ctx, src)
		if err != nil {
			logging.Debugf("batch aborted at item %d of %d: %v", i+1, len(sources), err)
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// ProcessConcurrent is Process with up to workers extractions in flight.
//
// Output order and the failure reported match Process: on failure the error of
// the earliest failing source is returned. Sources after a known failure are
// not started.
func ProcessConcurrent(ctx context.Context, ex video.MetadataExtractor, sources []string, workers int) ([]video.Metadata, error) {
	if workers <= 1 || len(sources) <= 1 {
		return Process(ctx, ex, sources)
	}

	var (
		results = make([]video.Metadata, len(sources))
		errs    = make([]error, len(sources))
		// Lowest failed index so far, len(sources) when none.
		failedAt atomic.Int64
	)
	failedAt.Store(int64(len(sources)))

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, src := range sources {
		if int64(i) > failedAt.Load() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		i, src := i, src
		g.Go(func() error {
			if int64(i) > failedAt.Load() {
				return nil
			}
			m, err := ex.ExtractMetadata(ctx, src)
			if err != nil {
				errs[i] = err
				for {
					cur := failedAt.Load()
					if int64(i) >= cur || failedAt.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return nil
			}
			results[i] = m
			return nil
		})
	}
	// Goroutines report through errs, never through the group.
	_ = g.Wait()

	// Earlier items always ran to completion, so the first recorded error
	// in input order is the one sequential processing would have hit.
	for i, err := range errs {
		if err != nil {
			logging.Debugf("batch aborted at item %d of %d: %v", i+1, len(sources), err)
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Results extracts metadata for every source and reports each outcome
// individually, in input order.
func Results(ctx context.Context, ex video.MetadataExtractor, sources []string) []video.Result {
	out := make([]video.Result, len(sources))
	for i, src := range sources {
		out[i].Source = src
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		out[i].Metadata, out[i].Err = ex.ExtractMetadata(ctx, src)
	}
	return out
}
