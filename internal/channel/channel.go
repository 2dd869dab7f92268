// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package channel implements JSON-lines request/response exchange on top of
// dispatch.Host.
//
// Request line:
//
//	{"id": 1, "method": "getInfo", "arguments": {"path": "/videos/a.mp4"}}
//
// Response line, either:
//
//	{"id": 1, "result": "{\"success\":true,\"data\":{...}}"}
//	{"id": 1, "error": {"code": "METADATA_ERROR", "message": "..."}}
//
// Responses are written as calls complete, not in request order.
package channel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/evolution-gaming/vidinfo/internal/dispatch"
	"github.com/evolution-gaming/vidinfo/internal/logging"
)

// MaxLineSize is the longest accepted request line.
const MaxLineSize = 1024 * 1024

type request struct {
	ID        json.RawMessage `json:"id"`
	Method    string          `json:"method"`
	Arguments map[string]any  `json:"arguments"`
}

type response struct {
	ID     json.RawMessage         `json:"id"`
	Result any                     `json:"result,omitempty"`
	Error  *dispatch.ResponseError `json:"error,omitempty"`
}

// lineWriter serializes concurrent response writes.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (l *lineWriter) write(r response) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Encoder terminates each value with newline.
	if err := l.enc.Encode(r); err != nil {
		logging.Infof("Unable to write response %s: %v", r.ID, err)
	}
}

// Serve reads requests from r, submits them to host and writes responses to w
// until r is exhausted or ctx is done.
//
// On end of input Serve waits for in-flight calls to reply. On ctx
// cancellation host is closed, outstanding calls are cancelled without reply.
func Serve(ctx context.Context, r io.Reader, w io.Writer, host *dispatch.Host) error {
	out := &lineWriter{enc: json.NewEncoder(w)}

	lines := make(chan []byte)
	readDone := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for sc.Scan() {
			line := bytes.Clone(sc.Bytes())
			select {
			case lines <- line:
			case <-stop:
				return
			}
		}
		readDone <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			logging.Debugf("Serve cancelled: %v", ctx.Err())
			host.Close()
			return ctx.Err()
		case line := <-lines:
			handle(line, host, out)
		case err := <-readDone:
			return drain(ctx, host, err)
		}
	}
}

// drain waits for in-flight calls after end of input, ctx cancellation closes
// host instead.
func drain(ctx context.Context, host *dispatch.Host, readErr error) error {
	logging.Debug("End of input, waiting for in-flight calls")
	waited := make(chan struct{})
	go func() {
		host.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		logging.Debugf("Serve cancelled while draining: %v", ctx.Err())
		host.Close()
		return ctx.Err()
	}
	if readErr != nil {
		return fmt.Errorf("Serve() read: %w", readErr)
	}
	return nil
}

func handle(line []byte, host *dispatch.Host, out *lineWriter) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		out.write(response{Error: &dispatch.ResponseError{
			Code:    dispatch.CodeInvalidArgument,
			Message: fmt.Sprintf("malformed request: %v", err),
		}})
		return
	}
	if len(req.ID) == 0 || bytes.Equal(req.ID, []byte("null")) {
		req.ID, _ = json.Marshal(uuid.NewString())
	}
	log := logging.With(string(req.ID))

	if req.Method == "" {
		out.write(response{ID: req.ID, Error: &dispatch.ResponseError{
			Code:    dispatch.CodeInvalidArgument,
			Message: "method is required",
		}})
		return
	}

	call := dispatch.Call{Method: req.Method, Arguments: req.Arguments}
	log.Debugf("Received %s", call)
	host.Submit(call, func(resp dispatch.Response) {
		if resp.Err != nil {
			log.Infof("%s failed: %s", req.Method, resp.Err)
		} else {
			log.Debugf("%s done", req.Method)
		}
		out.write(response{ID: req.ID, Result: resp.Result, Error: resp.Err})
	})
}
