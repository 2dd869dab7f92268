// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Centralised store of per source extraction records.

package metric

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/evolution-gaming/vidinfo/internal/video"
)

var ErrRecordNotFound = errors.New("record not found")

type ID int64

type Store struct {
	mu      sync.RWMutex
	records map[ID]Record
	next    ID
}

func NewStore() *Store {
	return &Store{
		records: make(map[ID]Record),
	}
}

func (s *Store) Insert(r Record) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[s.next] = r
	id := s.next
	s.next++

	return id
}

func (s *Store) Get(id ID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return r, fmt.Errorf("getting record: %w", ErrRecordNotFound)
	}

	return r, nil
}

// GetIDs returns IDs in insertion order.
func (s *Store) GetIDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]ID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Records returns a snapshot of all records in insertion order.
func (s *Store) Records() []Record {
	ids := s.GetIDs()
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(id)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Record is a flat, report friendly view of a single extraction.
type Record struct {
	Source       string  `csv:"source"`
	OK           bool    `csv:"ok"`
	ErrorKind    string  `csv:"error_kind,omitempty"`
	Error        string  `csv:"error,omitempty"`
	ElapsedMs    int64   `csv:"elapsed_ms"`
	Width        int     `csv:"width"`
	Height       int     `csv:"height"`
	DurationMs   int64   `csv:"duration_ms"`
	Codec        string  `csv:"codec"`
	Bitrate      int64   `csv:"bitrate"`
	FPS          float64 `csv:"fps"`
	Rotation     int     `csv:"rotation"`
	Container    string  `csv:"container"`
	AudioCodec   string  `csv:"audio_codec,omitempty"`
	SampleRate   int     `csv:"sample_rate,omitempty"`
	Channels     int     `csv:"channels,omitempty"`
	HasAudio     bool    `csv:"has_audio"`
	HasSubtitles bool    `csv:"has_subtitles"`
	StreamCount  int     `csv:"stream_count"`
}

// NewRecord flattens extraction outcome into Record.
func NewRecord(r video.Result, elapsed time.Duration) Record {
	rec := Record{Source: r.Source, OK: r.OK(), ElapsedMs: elapsed.Milliseconds()}
	if r.Err != nil {
		rec.ErrorKind = video.KindOf(r.Err).String()
		rec.Error = r.Err.Error()
		return rec
	}

	m := r.Metadata
	rec.Width = m.Width
	rec.Height = m.Height
	rec.DurationMs = m.Duration
	rec.Codec = m.Codec
	rec.Bitrate = m.Bitrate
	rec.FPS = m.FPS
	rec.Rotation = m.Rotation
	rec.Container = m.Container
	if m.AudioCodec != nil {
		rec.AudioCodec = *m.AudioCodec
	}
	if m.SampleRate != nil {
		rec.SampleRate = *m.SampleRate
	}
	if m.Channels != nil {
		rec.Channels = *m.Channels
	}
	rec.HasAudio = m.HasAudio
	rec.HasSubtitles = m.HasSubtitles
	rec.StreamCount = m.StreamCount
	return rec
}
