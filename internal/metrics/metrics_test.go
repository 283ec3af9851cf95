// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder("2021-10-10--14-03-09")

	r.OnRecord(capture.Record{Sample: pose.Sample{FrameID: 1}, ElapsedMs: 0})
	r.OnRecord(capture.Record{Sample: pose.Sample{FrameID: 4}, ElapsedMs: 1500, MissedDelta: 2})
	r.OnRecord(capture.Record{Sample: pose.Sample{FrameID: 5}, ElapsedMs: 1600, WriteErr: errors.New("disk full")})

	assert.Equal(t, 3.0, testutil.ToFloat64(r.framesLogged))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.framesMissed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.writeFailures))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.lastFrame))
	assert.InDelta(t, 1.6, testutil.ToFloat64(r.elapsed), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.running))

	r.OnStop(capture.Stats{})
	assert.Equal(t, 0.0, testutil.ToFloat64(r.running))
}

func TestRecorderExposition(t *testing.T) {
	r := NewRecorder("run-a")
	r.OnRecord(capture.Record{Sample: pose.Sample{FrameID: 1}})

	expected := `
# HELP headtrack_frames_logged_total Number of new tracker frames written to the data log
# TYPE headtrack_frames_logged_total counter
headtrack_frames_logged_total{run="run-a"} 1
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry, strings.NewReader(expected), "headtrack_frames_logged_total"))
}
