// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging builds the diagnostic logger shared by all components.
// It is separate from the data log, whose format is fixed.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options for New.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// Console enables output to stderr.
	Console bool
	// FilePath, when set, also writes JSON logs to a size-rotated file.
	FilePath string
	// FileMaxSizeMB and FileMaxBackups bound the diagnostic log files.
	FileMaxSizeMB  int
	FileMaxBackups int

	// Stderr replaces os.Stderr for console output.
	Stderr io.Writer
}

// New builds a sugared logger and returns a function that flushes and
// closes its outputs.
func New(opts Options) (*zap.SugaredLogger, func() error, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, nil, fmt.Errorf("logging: level %q: %w", opts.Level, err)
		}
	}

	var (
		cores   []zapcore.Core
		closers []io.Closer
	)

	if opts.Console {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level))
	}

	if opts.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.FileMaxSizeMB,
			MaxBackups: opts.FileMaxBackups,
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(lj), level))
		closers = append(closers, lj)
	}

	if len(cores) == 0 {
		return zap.NewNop().Sugar(), func() error { return nil }, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		// Sync on a terminal stderr fails with EINVAL on some platforms.
		_ = logger.Sync()
		var err error
		for _, c := range closers {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}
	return logger.Sugar(), closeFn, nil
}
