// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/catalog"
	"github.com/relabs-tech/headtrack_logger/internal/config"
	"github.com/relabs-tech/headtrack_logger/internal/datalog"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
	"github.com/relabs-tech/headtrack_logger/internal/record"
	"github.com/relabs-tech/headtrack_logger/internal/replay"
	"github.com/relabs-tech/headtrack_logger/internal/runctx"
)

var errDone = errors.New("script done")

type stepClock struct{ *clock.Mock }

func (c stepClock) Sleep(d time.Duration) { c.Mock.Add(d) }

type scriptSource struct {
	frames   []uint64
	startErr error
	i        int
}

func (s *scriptSource) Start(context.Context) error { return s.startErr }
func (s *scriptSource) Stop() error                 { return nil }

func (s *scriptSource) Poll() (pose.Sample, error) {
	if s.i >= len(s.frames) {
		return pose.Sample{}, errDone
	}
	f := s.frames[s.i]
	s.i++
	return pose.Sample{FrameID: f, Pitch: float64(f)}, nil
}

type stopAfter struct{ n, calls int }

func (s *stopAfter) ShouldStop() bool {
	s.calls++
	return s.calls > s.n
}

var runStart = time.Date(2021, 10, 10, 14, 3, 9, 0, time.Local)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.DataRoot = root
	cfg.TargetHz = 10
	cfg.Shell = config.ShellHeadless
	cfg.CatalogPath = filepath.Join(root, "runs.db")
	return cfg
}

func testClock() stepClock {
	m := clock.NewMock()
	m.Set(runStart)
	return stepClock{m}
}

func TestRunHeadTrackLoggerEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	var stdout bytes.Buffer

	err := RunHeadTrackLogger(context.Background(), cfg, LoggerOptions{
		Stdout: &stdout,
		Clock:  testClock(),
		Source: &scriptSource{frames: []uint64{1, 1, 2, 4}},
		Logger: zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Number of frames logged (num_logged_frames): 3\n"+
		"Number of missed frames (num_missed_frames): 1\n"+
		"Total time (computer clock): 0 s\n"+
		"Overall Frame Rate (computer clock): 8 Hz\n", stdout.String())

	rc := runctx.New(runStart, cfg.DataRoot)
	entries, err := replay.Load(rc.LogPath())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []uint64{0, 200, 300}, []uint64{entries[0].ElapsedMs, entries[1].ElapsedMs, entries[2].ElapsedMs})
	assert.Equal(t, uint64(4), entries[2].Sample.FrameID)

	data, err := os.ReadFile(rc.LogPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasSuffix(lines[3], record.Schema))

	m, err := runctx.ReadManifest(rc.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), m.Stats.Logged)
	assert.Equal(t, uint64(1), m.Stats.Missed)
	assert.Contains(t, m.Stats.StopReason, "script done")

	cat, err := catalog.Open(cfg.CatalogPath, nil)
	require.NoError(t, err)
	defer cat.Close()
	runs, err := cat.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rc.RunID, runs[0].RunID)
	assert.Equal(t, uint64(3), runs[0].Stats.Logged)
	assert.Equal(t, m.Session, runs[0].Session.String())
}

func TestRunHeadTrackLoggerOperatorStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetHz = 30
	cfg.MaxFileBytes = 4096
	cfg.MaxFileCount = 3
	clk := testClock()
	var stdout bytes.Buffer

	err := RunHeadTrackLogger(context.Background(), cfg, LoggerOptions{
		Stdout: &stdout,
		Clock:  clk,
		Source: pose.NewMockSource(clk, 120),
		Shell:  &stopAfter{n: 300},
		Logger: zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Total time (computer clock): 10 s")

	rc := runctx.New(runStart, cfg.DataRoot)
	segs, err := datalog.Segments(rc.LogPath())
	require.NoError(t, err)
	assert.Len(t, segs, 3)

	m, err := runctx.ReadManifest(rc.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, capture.StopOperator, m.Stats.StopReason)
	// The mock device runs four times faster than the poll, so every poll
	// sees a new frame.
	assert.Equal(t, uint64(300), m.Stats.Logged)
	assert.NotZero(t, m.Stats.Missed)
}

func TestRunHeadTrackLoggerSourceInitFailure(t *testing.T) {
	cfg := testConfig(t)
	var stdout bytes.Buffer

	err := RunHeadTrackLogger(context.Background(), cfg, LoggerOptions{
		Stdout: &stdout,
		Clock:  testClock(),
		Source: &scriptSource{startErr: errors.New("no tracker")},
		Logger: zaptest.NewLogger(t).Sugar(),
	})

	var initErr *SourceInitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorContains(t, err, "no tracker")
	assert.Empty(t, stdout.String())
	assert.NoDirExists(t, runctx.New(runStart, cfg.DataRoot).OutputDir)
}

func TestRunHeadTrackLoggerInterrupted(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := RunHeadTrackLogger(ctx, cfg, LoggerOptions{
		Stdout: &stdout,
		Clock:  testClock(),
		Source: &scriptSource{frames: []uint64{1, 2}},
		Logger: zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Number of frames logged (num_logged_frames): 0")

	m, err := runctx.ReadManifest(runctx.New(runStart, cfg.DataRoot).OutputDir)
	require.NoError(t, err)
	assert.Equal(t, capture.StopInterrupt, m.Stats.StopReason)
}
