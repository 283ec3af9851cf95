// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package datalog writes timestamped lines to a size-bounded, rotating set
// of files:
//
//	<prefix>.log      active file
//	<prefix>.log.1    most recent backup
//	<prefix>.log.N    oldest backup, N = MaxFileCount-1
package datalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/relabs-tech/headtrack_logger/internal/record"
	"github.com/relabs-tech/headtrack_logger/internal/runctx"
)

// Options control rotation and the stream header.
type Options struct {
	// MaxFileBytes bounds the size of each file. Zero disables rotation.
	MaxFileBytes int64
	// MaxFileCount is the number of files kept, the active one included.
	MaxFileCount int
	// Version is written in the stream header.
	Version string

	Clock  clock.Clock
	Logger *zap.SugaredLogger
}

// Sink appends lines to the active log file of a run. It is not safe for
// concurrent use; the acquisition loop owns it.
type Sink struct {
	path string
	opts Options
	clk  clock.Clock
	log  *zap.SugaredLogger

	file      *os.File
	size      int64
	rotations int
	closed    bool
}

// Open creates the run directory if needed, opens the active log file in
// append mode and writes the stream header.
func Open(rc runctx.RunContext, opts Options) (*Sink, error) {
	if opts.MaxFileCount < 1 {
		return nil, fmt.Errorf("datalog: max file count must be at least 1, got %d", opts.MaxFileCount)
	}
	if opts.MaxFileBytes < 0 {
		return nil, fmt.Errorf("datalog: max file bytes must not be negative, got %d", opts.MaxFileBytes)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	if err := os.MkdirAll(rc.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("datalog: create run dir: %w", err)
	}

	s := &Sink{
		path: rc.LogPath(),
		opts: opts,
		clk:  opts.Clock,
		log:  opts.Logger,
	}
	if err := s.openActive(); err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(rc.OutputDir)
	if err != nil {
		absDir = rc.OutputDir
	}
	for _, h := range []string{
		" Started",
		" Local directory is: " + absDir,
		" Version: " + opts.Version,
		record.Schema,
	} {
		if err := s.AppendLine(h); err != nil {
			s.Close()
			return nil, fmt.Errorf("datalog: write header: %w", err)
		}
	}

	s.log.Infof("data log opened at %s (max %d bytes x %d files)", s.path, opts.MaxFileBytes, opts.MaxFileCount)
	return s, nil
}

// Path returns the path of the active log file.
func (s *Sink) Path() string { return s.path }

// Rotations returns how many times the active file has been rotated.
func (s *Sink) Rotations() int { return s.rotations }

// AppendLine writes the current timestamp, text and a newline as a single
// write. When the line would push the active file past MaxFileBytes the file
// is rotated first.
func (s *Sink) AppendLine(text string) error {
	if s.closed {
		return errors.New("datalog: sink is closed")
	}
	line := s.clk.Now().Format(record.TimestampLayout) + text + "\n"

	if s.file == nil {
		if err := s.openActive(); err != nil {
			return err
		}
	}
	if s.shouldRotate(int64(len(line))) {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.WriteString(line)
	s.size += int64(n)
	if err != nil {
		// Drop the handle; the next append reopens the active file.
		s.file.Close()
		s.file = nil
		return fmt.Errorf("datalog: write %s: %w", s.path, err)
	}
	return nil
}

// Close closes the active file. It is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("datalog: close %s: %w", s.path, err)
	}
	return nil
}

// shouldRotate never rotates an empty file, so a line longer than
// MaxFileBytes still lands somewhere.
func (s *Sink) shouldRotate(n int64) bool {
	return s.opts.MaxFileBytes > 0 && s.size > 0 && s.size+n > s.opts.MaxFileBytes
}

func (s *Sink) openActive() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("datalog: open %s: %w", s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("datalog: stat %s: %w", s.path, err)
	}
	s.file = f
	s.size = info.Size()
	return nil
}

func (s *Sink) rotate() error {
	if err := s.file.Close(); err != nil {
		s.log.Warnf("closing %s before rotation: %v", s.path, err)
	}
	s.file = nil

	if backups := s.opts.MaxFileCount - 1; backups > 0 {
		if err := removeIfExists(backupName(s.path, backups)); err != nil {
			return fmt.Errorf("datalog: drop oldest backup: %w", err)
		}
		for i := backups - 1; i >= 1; i-- {
			if err := renameIfExists(backupName(s.path, i), backupName(s.path, i+1)); err != nil {
				return fmt.Errorf("datalog: shift backup %d: %w", i, err)
			}
		}
		if err := os.Rename(s.path, backupName(s.path, 1)); err != nil {
			return fmt.Errorf("datalog: rotate %s: %w", s.path, err)
		}
	} else if err := removeIfExists(s.path); err != nil {
		return fmt.Errorf("datalog: truncate %s: %w", s.path, err)
	}

	if err := s.openActive(); err != nil {
		return err
	}
	s.rotations++
	s.log.Debugf("rotated %s (rotation %d)", s.path, s.rotations)
	return nil
}

func backupName(path string, i int) string {
	return fmt.Sprintf("%s.%d", path, i)
}

func removeIfExists(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func renameIfExists(from, to string) error {
	if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
