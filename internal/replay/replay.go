// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package replay plays back a recorded data log as a pose source.
package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/headtrack_logger/internal/datalog"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
	"github.com/relabs-tech/headtrack_logger/internal/record"
)

// ErrExhausted is returned by Poll once every recorded sample was played.
var ErrExhausted = errors.New("replay: end of recording")

// Options for a replay source.
type Options struct {
	// Paced replays samples at their recorded elapsed time, so polls
	// between two recorded samples repeat the previous one. Otherwise each
	// poll returns the next sample.
	Paced bool
	Clock clock.Clock
}

// Source reads every segment of a rotated data log, oldest first.
type Source struct {
	path string
	opts Options

	entries []record.Entry
	next    int
	start   time.Time
}

// NewSource creates a replay of the log whose active file is path.
func NewSource(path string, opts Options) *Source {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Source{path: path, opts: opts}
}

// Start loads the recording into memory so Poll never touches the disk.
func (s *Source) Start(ctx context.Context) error {
	entries, err := LoadAll(ctx, s.path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("replay: %s holds no data lines", s.path)
	}

	s.entries = entries
	s.next = 0
	s.start = s.opts.Clock.Now()
	return nil
}

func (s *Source) Poll() (pose.Sample, error) {
	if !s.opts.Paced {
		if s.next >= len(s.entries) {
			return pose.Sample{}, ErrExhausted
		}
		e := s.entries[s.next]
		s.next++
		return e.Sample, nil
	}

	base := s.entries[0].ElapsedMs
	now := uint64(s.opts.Clock.Since(s.start) / time.Millisecond)
	for s.next < len(s.entries) && s.entries[s.next].ElapsedMs-base <= now {
		s.next++
	}
	if s.next >= len(s.entries) && now > s.entries[len(s.entries)-1].ElapsedMs-base {
		return pose.Sample{}, ErrExhausted
	}
	if s.next == 0 {
		return s.entries[0].Sample, nil
	}
	return s.entries[s.next-1].Sample, nil
}

func (s *Source) Stop() error { return nil }

// LoadAll reads the data lines of every segment of the log whose active
// file is path, oldest first.
func LoadAll(ctx context.Context, path string) ([]record.Entry, error) {
	segs, err := datalog.Segments(path)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("replay: no log files for %s", path)
	}

	var out []record.Entry
	for _, seg := range segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := Load(seg)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

// Load reads the data lines of one log file, skipping header lines.
func Load(path string) ([]record.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	var out []record.Entry
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		e, err := record.ParseLine(sc.Text())
		if errors.Is(err, record.ErrNotData) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("replay: %s:%d: %w", path, lineNo, err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	return out, nil
}
