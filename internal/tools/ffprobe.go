// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Ffmpeg family related tools.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/evolution-gaming/vidinfo/internal/logging"
	"github.com/evolution-gaming/vidinfo/internal/lw"
	"github.com/evolution-gaming/vidinfo/internal/video"
	"github.com/google/shlex"
)

// DefaultStderrLimit caps ffprobe diagnostics kept for error messages.
const DefaultStderrLimit = 64 * 1024

// Base ffprobe arguments, user supplied ones go between these and the source.
var ffprobeArgs = []string{
	"-v", "error",
	"-of", "json",
	"-show_format",
	"-show_streams",
}

// FfprobeProber is a video.Prober backed by ffprobe executable.
type FfprobeProber struct {
	// Path to ffprobe executable.
	Path string
	// Extra arguments passed to ffprobe before the source.
	Args []string
	// How many bytes of ffprobe stderr to keep, 0 means DefaultStderrLimit.
	StderrLimit uint
}

// NewFfprobeProber creates FfprobeProber, argLine is split shell-style into
// extra ffprobe arguments.
func NewFfprobeProber(path, argLine string, stderrLimit uint) (*FfprobeProber, error) {
	args, err := shlex.Split(argLine)
	if err != nil {
		return nil, fmt.Errorf("NewFfprobeProber() shlex.Split: %w", err)
	}
	return &FfprobeProber{Path: path, Args: args, StderrLimit: stderrLimit}, nil
}

// Probe implements video.Prober.
func (f *FfprobeProber) Probe(ctx context.Context, source string) (video.Descriptor, error) {
	var d video.Descriptor

	if !video.IsURL(source) {
		if _, err := os.Stat(source); err != nil {
			return d, video.WrapError(video.KindSourceUnreadable, source, err)
		}
	}

	args := make([]string, 0, len(ffprobeArgs)+len(f.Args)+1)
	args = append(args, ffprobeArgs...)
	args = append(args, f.Args...)
	args = append(args, source)

	limit := f.StderrLimit
	if limit == 0 {
		limit = DefaultStderrLimit
	}
	var stderr bytes.Buffer
	stderrW := lw.LimitWriter(&stderr, limit)

	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stderr = stderrW
	// Do not hang on pipes inherited by grandchildren after a kill.
	cmd.WaitDelay = time.Second
	logging.Debugf("Running: %s", cmd)
	out, err := cmd.Output()
	if err != nil {
		// Killed because caller gave up, report that rather than exit status.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return d, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if stderrW.Truncated() {
			msg += fmt.Sprintf(" ... (%d bytes dropped)", stderrW.Dropped())
		}
		if msg == "" {
			msg = "ffprobe failed"
		}
		return d, &video.Error{Kind: video.KindSourceUnreadable, Source: source, Msg: msg, Err: err}
	}

	return ParseFfprobeJSON(source, out)
}

// A temporary structures to unmarshal JSON from ffprobe output.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeFormat struct {
	NbStreams int    `json:"nb_streams"`
	Duration  string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	CodecTag     string            `json:"codec_tag"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	RFrameRate   string            `json:"r_frame_rate"`
	BitRate      string            `json:"bit_rate"`
	Duration     string            `json:"duration"`
	SampleRate   string            `json:"sample_rate"`
	Channels     int               `json:"channels"`
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
	SideDataList []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	SideDataType  string   `json:"side_data_type"`
	DisplayMatrix string   `json:"displaymatrix"`
	Rotation      *float64 `json:"rotation"`
}

// ParseFfprobeJSON converts ffprobe JSON output into video.Descriptor.
func ParseFfprobeJSON(source string, data []byte) (video.Descriptor, error) {
	d := video.Descriptor{Source: source, Transform: video.Identity}

	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return d, &video.Error{
			Kind:   video.KindMalformedDescriptor,
			Source: source,
			Msg:    "unable to decode ffprobe output",
			Err:    err,
		}
	}

	d.TrackCount = len(out.Streams)
	if d.TrackCount == 0 {
		d.TrackCount = out.Format.NbStreams
	}

	var vs *ffprobeStream
	for i := range out.Streams {
		s := &out.Streams[i]
		switch s.CodecType {
		case "video":
			// Cover art is stored as a single frame video stream.
			if vs == nil && s.Disposition["attached_pic"] != 1 {
				vs = s
			}
		case "audio":
			if d.Audio == nil {
				d.Audio = &video.AudioTrack{
					Tag:        codecTag(s),
					SampleRate: int(parseInt64(s.SampleRate)),
					Channels:   s.Channels,
				}
			}
		case "subtitle":
			d.HasSubtitles = true
		}
	}

	d.Duration = secondsToMillis(out.Format.Duration)
	if vs == nil {
		logging.Debugf("%s: no video stream among %d streams", source, len(out.Streams))
		return d, nil
	}

	d.HasVideo = true
	d.Width = vs.Width
	d.Height = vs.Height
	d.VideoTag = codecTag(vs)
	d.BitRate = parseInt64(vs.BitRate)
	d.FrameRate = parseRational(vs.AvgFrameRate)
	if d.FrameRate == 0 {
		d.FrameRate = parseRational(vs.RFrameRate)
	}
	if d.Duration == 0 {
		d.Duration = secondsToMillis(vs.Duration)
	}

	t, err := streamTransform(vs)
	if err != nil {
		return d, &video.Error{
			Kind:   video.KindMalformedDescriptor,
			Source: source,
			Msg:    "unable to read orientation",
			Err:    err,
		}
	}
	d.Transform = t
	logging.Debugf("%s %+v", source, d)

	return d, nil
}

// codecTag builds video.CodecTag from stream codec_tag and codec_name.
//
// ffprobe prints codec_tag as little-endian hex number, e.g. "avc1" is
// 0x31637661, so it is byte swapped into big-endian FourCC.
func codecTag(s *ffprobeStream) video.CodecTag {
	var tag video.CodecTag
	if v, err := strconv.ParseUint(s.CodecTag, 0, 32); err == nil {
		tag.FourCC = bits.ReverseBytes32(uint32(v))
	}
	tag.Name = s.CodecName
	return tag
}

// streamTransform finds display transform of the stream. Precedence is
// display matrix, side data rotation, legacy rotate tag.
func streamTransform(s *ffprobeStream) (video.Transform, error) {
	for _, sd := range s.SideDataList {
		if sd.DisplayMatrix != "" {
			t, err := parseDisplayMatrix(sd.DisplayMatrix)
			if err == nil {
				return t, nil
			}
			if sd.Rotation == nil {
				return video.Identity, err
			}
		}
		if sd.Rotation != nil {
			// ffprobe reports counter-clockwise degrees.
			return video.TransformFromDegrees(-*sd.Rotation), nil
		}
	}

	if r, ok := s.Tags["rotate"]; ok {
		deg, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return video.Identity, fmt.Errorf("rotate tag %q: %w", r, err)
		}
		return video.TransformFromDegrees(deg), nil
	}

	return video.Identity, nil
}

var errDisplayMatrix = errors.New("malformed display matrix")

// parseDisplayMatrix parses ffprobe textual display matrix dump:
//
//	00000000:            0       65536           0
//	00000001:       -65536           0           0
//	00000002:            0           0  1073741824
//
// Rows are "a b u", "c d v", "tx ty w", with a..d, tx, ty in 16.16 fixed point.
func parseDisplayMatrix(text string) (video.Transform, error) {
	var m []float64
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, rest, ok := strings.Cut(line, ":"); ok {
			line = rest
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return video.Identity, fmt.Errorf("%w: row %q", errDisplayMatrix, line)
		}
		for _, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return video.Identity, fmt.Errorf("%w: %v", errDisplayMatrix, err)
			}
			m = append(m, float64(v))
		}
	}
	if len(m) != 9 {
		return video.Identity, fmt.Errorf("%w: %d values", errDisplayMatrix, len(m))
	}

	const fixed = 1 << 16
	return video.Transform{
		A:  m[0] / fixed,
		B:  m[1] / fixed,
		C:  m[3] / fixed,
		D:  m[4] / fixed,
		Tx: m[6] / fixed,
		Ty: m[7] / fixed,
	}, nil
}

// parseRational parses "num/den" or plain number, anything unusable is 0.
func parseRational(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func secondsToMillis(s string) int64 {
	sec := parseFloat(s)
	if sec <= 0 {
		return 0
	}
	return int64(math.Round(sec * 1000))
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
