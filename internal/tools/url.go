// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tools

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/evolution-gaming/vidinfo/internal/video"
)

// DefaultLoadTimeout bounds waiting for remote source metadata.
const DefaultLoadTimeout = 10 * time.Second

// URLProber probes remote http(s) sources via Loader, giving up after
// LoadTimeout.
type URLProber struct {
	Loader video.Prober
	// Zero means DefaultLoadTimeout.
	LoadTimeout time.Duration
}

// Probe implements video.Prober.
func (u *URLProber) Probe(ctx context.Context, source string) (video.Descriptor, error) {
	var d video.Descriptor

	pu, err := url.Parse(source)
	if err != nil {
		return d, video.WrapError(video.KindSourceUnreadable, source, err)
	}
	if (pu.Scheme != "http" && pu.Scheme != "https") || pu.Host == "" {
		return d, video.NewError(video.KindSourceUnreadable, source, "only http and https URLs are supported")
	}

	timeout := u.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type loaded struct {
		d   video.Descriptor
		err error
	}
	// Buffered so that a late loader never blocks after we stopped waiting.
	done := make(chan loaded, 1)
	go func() {
		d, err := u.Loader.Probe(loadCtx, source)
		done <- loaded{d, err}
	}()

	select {
	case l := <-done:
		if l.err != nil && ctx.Err() == nil && errors.Is(l.err, context.DeadlineExceeded) {
			return d, video.NewError(video.KindTimeout, source, "metadata loading timed out after %s", timeout)
		}
		return l.d, l.err
	case <-loadCtx.Done():
		if err := ctx.Err(); err != nil {
			return d, err
		}
		return d, video.NewError(video.KindTimeout, source, "metadata loading timed out after %s", timeout)
	}
}

// SourceProber routes URL sources to Remote and everything else to Local.
type SourceProber struct {
	Local  video.Prober
	Remote video.Prober
}

// NewSourceProber wires ffprobe for both local files and remote URLs.
func NewSourceProber(ffprobe *FfprobeProber, loadTimeout time.Duration) *SourceProber {
	return &SourceProber{
		Local:  ffprobe,
		Remote: &URLProber{Loader: ffprobe, LoadTimeout: loadTimeout},
	}
}

// Probe implements video.Prober.
func (s *SourceProber) Probe(ctx context.Context, source string) (video.Descriptor, error) {
	if video.IsURL(source) {
		if s.Remote == nil {
			return video.Descriptor{}, video.NewError(video.KindSourceUnreadable, source, "remote sources are not supported")
		}
		return s.Remote.Probe(ctx, source)
	}
	return s.Local.Probe(ctx, source)
}
