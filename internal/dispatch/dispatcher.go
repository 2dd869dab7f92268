// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dispatch routes named metadata requests to extraction and converts
// outcomes into success payloads or coded errors.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/evolution-gaming/vidinfo/internal/batch"
	"github.com/evolution-gaming/vidinfo/internal/video"
)

// Supported methods.
const (
	MethodGetInfo  = "getInfo"
	MethodGetBatch = "getBatch"
)

// Error codes returned to callers.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeMetadataError   = "METADATA_ERROR"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
)

// Call is a single named request.
type Call struct {
	Method    string
	Arguments map[string]any
}

// ResponseError is a coded failure reply.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	return e.Code + ": " + e.Message
}

// Response carries either Result or Err.
//
// Result is a string with envelope JSON for getInfo and []string of those for
// getBatch.
type Response struct {
	Result any
	Err    *ResponseError
}

// OK reports whether Response is a success.
func (r Response) OK() bool {
	return r.Err == nil
}

// Dispatcher executes Calls against a video.MetadataExtractor.
type Dispatcher struct {
	extractor    video.MetadataExtractor
	batchWorkers int
	metrics      *Metrics
}

// NewDispatcher creates Dispatcher. Metrics are registered on reg unless it is
// nil; batchWorkers above 1 enables concurrent getBatch.
func NewDispatcher(ex video.MetadataExtractor, batchWorkers int, reg prometheus.Registerer) *Dispatcher {
	d := &Dispatcher{extractor: ex, batchWorkers: batchWorkers}
	if reg != nil {
		d.metrics = NewMetrics(reg)
	}
	return d
}

// Dispatch runs call synchronously and always returns a Response.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) Response {
	start := time.Now()
	resp := d.dispatch(ctx, call)
	d.metrics.observe(call.Method, resp, time.Since(start))
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, call Call) Response {
	switch call.Method {
	case MethodGetInfo:
		path, err := stringArg(call.Arguments, "path")
		if err != nil {
			return errorResponse(err)
		}
		m, err := d.extractor.ExtractMetadata(ctx, path)
		if err != nil {
			return errorResponse(err)
		}
		s, err := m.EnvelopeJSON()
		if err != nil {
			return errorResponse(err)
		}
		return Response{Result: s}

	case MethodGetBatch:
		paths, err := stringListArg(call.Arguments, "paths")
		if err != nil {
			return errorResponse(err)
		}
		ms, err := batch.ProcessConcurrent(ctx, d.extractor, paths, d.batchWorkers)
		if err != nil {
			return errorResponse(err)
		}
		out := make([]string, len(ms))
		for i, m := range ms {
			if out[i], err = m.EnvelopeJSON(); err != nil {
				return errorResponse(err)
			}
		}
		return Response{Result: out}

	default:
		return errorResponse(video.NewError(video.KindUnsupportedOperation, "", "method %q is not implemented", call.Method))
	}
}

// errorResponse maps err into coded failure reply.
func errorResponse(err error) Response {
	code := CodeMetadataError
	switch video.KindOf(err) {
	case video.KindInvalidArgument:
		code = CodeInvalidArgument
	case video.KindUnsupportedOperation:
		code = CodeNotImplemented
	}
	return Response{Err: &ResponseError{Code: code, Message: err.Error()}}
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", video.NewError(video.KindInvalidArgument, "", "argument %q is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", video.NewError(video.KindInvalidArgument, "", "argument %q must be a string, got %T", name, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", video.NewError(video.KindInvalidArgument, "", "argument %q must not be empty", name)
	}
	return s, nil
}

func stringListArg(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok {
		return nil, video.NewError(video.KindInvalidArgument, "", "argument %q is required", name)
	}

	var list []string
	switch vv := v.(type) {
	case []string:
		list = vv
	case []any:
		list = make([]string, len(vv))
		for i, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, video.NewError(video.KindInvalidArgument, "", "argument %q item %d must be a string, got %T", name, i, e)
			}
			list[i] = s
		}
	default:
		return nil, video.NewError(video.KindInvalidArgument, "", "argument %q must be a list of strings, got %T", name, v)
	}

	if len(list) == 0 {
		return nil, video.NewError(video.KindInvalidArgument, "", "argument %q must be a non-empty list", name)
	}
	for i, s := range list {
		if strings.TrimSpace(s) == "" {
			return nil, video.NewError(video.KindInvalidArgument, "", "argument %q item %d must not be empty", name, i)
		}
	}
	return list, nil
}

// String is used in log lines.
func (c Call) String() string {
	return fmt.Sprintf("%s(%v)", c.Method, c.Arguments)
}
