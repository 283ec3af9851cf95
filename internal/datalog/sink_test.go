// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
	"github.com/relabs-tech/headtrack_logger/internal/record"
	"github.com/relabs-tech/headtrack_logger/internal/runctx"
)

var testStart = time.Date(2021, 10, 10, 14, 3, 9, 512*int(time.Millisecond), time.Local)

func newTestSink(t *testing.T, maxBytes int64, maxCount int) (*Sink, runctx.RunContext, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(testStart)
	rc := runctx.New(testStart, t.TempDir())

	s, err := Open(rc, Options{
		MaxFileBytes: maxBytes,
		MaxFileCount: maxCount,
		Version:      "1.0",
		Clock:        clk,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, rc, clk
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestOpenWritesHeader(t *testing.T) {
	s, rc, _ := newTestSink(t, 0, 10)
	require.NoError(t, s.Close())

	ts := testStart.Format(record.TimestampLayout)
	absDir, err := filepath.Abs(rc.OutputDir)
	require.NoError(t, err)

	lines := readLines(t, rc.LogPath())
	require.Len(t, lines, 4)
	assert.Equal(t, ts+" Started", lines[0])
	assert.Equal(t, ts+" Local directory is: "+absDir, lines[1])
	assert.Equal(t, ts+" Version: 1.0", lines[2])
	assert.Equal(t, ts+record.Schema, lines[3])
}

func TestAppendLineUsesCallTime(t *testing.T) {
	s, rc, clk := newTestSink(t, 0, 10)

	clk.Add(1500 * time.Millisecond)
	require.NoError(t, s.AppendLine(",0001500,00000000001,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000"))
	require.NoError(t, s.Close())

	lines := readLines(t, rc.LogPath())
	require.Len(t, lines, 5)
	assert.Equal(t, "2021-10-10_14-03-11.012,0001500,00000000001,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000", lines[4])
}

func TestRotatesOnceBeforeCrossingWrite(t *testing.T) {
	const body = ",0000001,00000000001,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000"
	lineLen := int64(len(record.TimestampLayout) + len(body) + 1)

	s, rc, _ := newTestSink(t, 0, 10)
	header := fileSize(t, rc.LogPath())
	s.opts.MaxFileBytes = header + 2*lineLen

	require.NoError(t, s.AppendLine(body))
	require.NoError(t, s.AppendLine(body))
	assert.Equal(t, 0, s.Rotations(), "filling the file exactly must not rotate")
	assert.Equal(t, header+2*lineLen, fileSize(t, rc.LogPath()))

	require.NoError(t, s.AppendLine(body))
	assert.Equal(t, 1, s.Rotations())
	require.NoError(t, s.Close())

	assert.Len(t, readLines(t, rc.LogPath()+".1"), 6)
	assert.Len(t, readLines(t, rc.LogPath()), 1)
	assert.NoFileExists(t, rc.LogPath()+".2")
}

func TestRetentionNeverExceedsMaxFileCount(t *testing.T) {
	const maxCount = 3
	s, rc, clk := newTestSink(t, 400, maxCount)

	const n = 60
	for i := 1; i <= n; i++ {
		clk.Add(10 * time.Millisecond)
		require.NoError(t, s.AppendLine(record.Format(uint64(i*10), samplesFrame(i))))
		assert.LessOrEqual(t, countFiles(t, rc.OutputDir), maxCount)
	}
	require.NoError(t, s.Close())
	assert.Greater(t, s.Rotations(), maxCount)

	segs, err := Segments(rc.LogPath())
	require.NoError(t, err)
	require.Len(t, segs, maxCount)

	// The retained records are the newest ones, contiguous and in order.
	var frames []uint64
	for _, seg := range segs {
		for _, line := range readLines(t, seg) {
			e, err := record.ParseLine(line)
			if err != nil {
				continue
			}
			frames = append(frames, e.Sample.FrameID)
		}
	}
	require.NotEmpty(t, frames)
	assert.Equal(t, uint64(n), frames[len(frames)-1])
	for i := 1; i < len(frames); i++ {
		assert.Equal(t, frames[i-1]+1, frames[i], "gap or duplicate at %d", i)
	}
}

func TestSingleFileRetentionTruncates(t *testing.T) {
	s, rc, _ := newTestSink(t, 200, 1)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendLine(record.Format(uint64(i), samplesFrame(i))))
		assert.Equal(t, 1, countFiles(t, rc.OutputDir))
	}
	require.NoError(t, s.Close())
	assert.Positive(t, s.Rotations())
	assert.LessOrEqual(t, fileSize(t, rc.LogPath()), int64(200))
}

func TestOversizedLineIsStillWritten(t *testing.T) {
	s, rc, _ := newTestSink(t, 64, 2)

	long := "," + strings.Repeat("x", 200)
	require.NoError(t, s.AppendLine(long))
	require.NoError(t, s.AppendLine(long))
	require.NoError(t, s.Close())

	lines := readLines(t, rc.LogPath())
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], long))
}

func TestAppendRecoversAfterWriteFailure(t *testing.T) {
	s, rc, _ := newTestSink(t, 0, 10)

	// Pull the handle out from under the sink to force a write error.
	require.NoError(t, s.file.Close())
	err := s.AppendLine(",lost")
	require.Error(t, err)

	require.NoError(t, s.AppendLine(",kept"))
	require.NoError(t, s.Close())

	lines := readLines(t, rc.LogPath())
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], ",kept"))
	for _, l := range lines {
		assert.NotContains(t, l, "lost")
	}
}

func TestAppendAfterClose(t *testing.T) {
	s, _, _ := newTestSink(t, 0, 10)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Error(t, s.AppendLine(",late"))
}

func TestOpenRejectsBadOptions(t *testing.T) {
	rc := runctx.New(testStart, t.TempDir())

	_, err := Open(rc, Options{MaxFileCount: 0})
	assert.Error(t, err)

	_, err = Open(rc, Options{MaxFileCount: 1, MaxFileBytes: -1})
	assert.Error(t, err)
}

func TestSegmentsOrder(t *testing.T) {
	dir := t.TempDir()
	active := filepath.Join(dir, "run-Data.log")
	for _, name := range []string{"run-Data.log", "run-Data.log.1", "run-Data.log.3", "run-Data.log.2", "run-Data.log.x", "other.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	segs, err := Segments(active)
	require.NoError(t, err)

	var names []string
	for _, s := range segs {
		names = append(names, filepath.Base(s))
	}
	assert.Equal(t, []string{"run-Data.log.3", "run-Data.log.2", "run-Data.log.1", "run-Data.log"}, names)
}

func samplesFrame(i int) pose.Sample {
	return pose.Sample{FrameID: uint64(i), Roll: float64(i % 90), Yaw: -float64(i % 180)}
}
