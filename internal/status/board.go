// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package status keeps the latest view of a running capture for the
// terminal window, the web page and the OLED panel.
package status

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// Snapshot is a copy of the board at one instant.
type Snapshot struct {
	RunID     string        `json:"run_id"`
	Session   string        `json:"session,omitempty"`
	Source    string        `json:"source"`
	LogPath   string        `json:"log_path"`
	HasSample bool          `json:"has_sample"`
	Sample    pose.Sample   `json:"sample"`
	ElapsedMs uint64        `json:"elapsed_ms"`
	Stats     capture.Stats `json:"stats"`
	Rate      float64       `json:"rate_hz"`
	LastError string        `json:"last_error,omitempty"`
	Stopped   bool          `json:"stopped"`
	Uptime    time.Duration `json:"-"`
}

// Info describes the run. It does not change after the board is created.
type Info struct {
	RunID   string
	Session string
	Source  string
	LogPath string
	Start   time.Time
}

// Board is a capture.Listener. Writes come from the acquisition loop and
// reads from any number of display goroutines.
type Board struct {
	info Info
	clk  clock.Clock

	mu   sync.RWMutex
	snap Snapshot
}

// NewBoard creates an empty board for a run.
func NewBoard(info Info, clk clock.Clock) *Board {
	if clk == nil {
		clk = clock.New()
	}
	return &Board{
		info: info,
		clk:  clk,
		snap: Snapshot{
			RunID:   info.RunID,
			Session: info.Session,
			Source:  info.Source,
			LogPath: info.LogPath,
			Stats:   capture.Stats{Start: info.Start},
		},
	}
}

// OnRecord implements capture.Listener.
func (b *Board) OnRecord(r capture.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.HasSample = true
	b.snap.Sample = r.Sample
	b.snap.ElapsedMs = r.ElapsedMs
	b.snap.Stats = r.Stats
	if r.WriteErr != nil {
		b.snap.LastError = r.WriteErr.Error()
	}
}

// OnStop implements capture.StopListener.
func (b *Board) OnStop(s capture.Stats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap.Stats = s
	b.snap.Stopped = true
}

// Snapshot returns a copy of the current state with the rate computed
// against the board's clock.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	s := b.snap
	b.mu.RUnlock()

	s.Uptime = b.clk.Since(b.info.Start)
	s.Rate = s.Stats.Rate(s.Uptime)
	return s
}
