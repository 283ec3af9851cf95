// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package runctx describes one capture run: its identifier, its start
// instant and where its files live.
package runctx

import (
	"path/filepath"
	"time"
)

// RunIDLayout renders the run identifier from the run's start time.
const RunIDLayout = "2006-01-02--15-04-05"

// RunContext is created once when the process starts and never changes.
type RunContext struct {
	RunID      string
	Start      time.Time
	OutputDir  string
	FilePrefix string
}

// New derives the run identifier and directory layout from start:
//
//	<dataRoot>/<runID>/<runID>-Data.log
func New(start time.Time, dataRoot string) RunContext {
	id := start.Format(RunIDLayout)
	return RunContext{
		RunID:      id,
		Start:      start,
		OutputDir:  filepath.Join(dataRoot, id),
		FilePrefix: id + "-Data",
	}
}

// LogPath is the path of the active data log file.
func (rc RunContext) LogPath() string {
	return filepath.Join(rc.OutputDir, rc.FilePrefix+".log")
}
