// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package record

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

func TestFormatGolden(t *testing.T) {
	s := pose.Sample{FrameID: 7, Roll: 1.0, Pitch: -2.5, Yaw: 0.0, X: 3.14159, Y: -3.14159, Z: 0.0}

	got := Format(123, s)
	assert.Equal(t, ",0000123,00000000007,+1.00000,-2.50000,+0.00000,+3.14159,-3.14159,+0.00000", got)
}

func TestFormatWidths(t *testing.T) {
	tests := []struct {
		name    string
		elapsed uint64
		sample  pose.Sample
		want    string
	}{
		{
			name:    "zero",
			elapsed: 0,
			sample:  pose.Sample{},
			want:    ",0000000,00000000000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000",
		},
		{
			name:    "elapsed wider than padding",
			elapsed: 12345678,
			sample:  pose.Sample{FrameID: 99999999999},
			want:    ",12345678,99999999999,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000,+0.00000",
		},
		{
			name:    "out of range angles are still formatted",
			elapsed: 5,
			sample:  pose.Sample{FrameID: 1, Roll: 720.123456, Pitch: -1e6, Yaw: 0.000004},
			want:    ",0000005,00000000001,+720.12346,-1000000.00000,+0.00000,+0.00000,+0.00000,+0.00000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.elapsed, tt.sample))
		})
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	ts := time.Date(2021, 10, 10, 14, 3, 9, 512*int(time.Millisecond), time.Local)
	s := pose.Sample{FrameID: 4711, Roll: -12.25, Pitch: 3.5, Yaw: 179.99999, X: -0.5, Y: 1.25, Z: 10}

	line := ts.Format(TimestampLayout) + Format(2048, s) + "\n"
	e, err := ParseLine(line)
	require.NoError(t, err)

	assert.True(t, e.Time.Equal(ts), "time %v != %v", e.Time, ts)
	assert.Equal(t, uint64(2048), e.ElapsedMs)
	assert.Equal(t, s.FrameID, e.Sample.FrameID)
	assert.InDelta(t, s.Yaw, e.Sample.Yaw, 1e-9)
	assert.InDelta(t, s.Z, e.Sample.Z, 1e-9)
}

func TestParseLineRejectsHeaders(t *testing.T) {
	for _, line := range []string{
		"2021-10-10_14-03-09.512 Started",
		"2021-10-10_14-03-09.512" + Schema,
		"",
		"short",
	} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, ErrNotData, "line %q", line)
	}
}

func TestParseLineMalformed(t *testing.T) {
	_, err := ParseLine("2021-10-10_14-03-09.512,0000001,00000000001,+1.0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotData)

	_, err = ParseLine("2021-10-10_14-03-09.512,0000001,abc,+1,+1,+1,+1,+1,+1")
	require.Error(t, err)
}

func TestFormatNeverPanicsOnExtremes(t *testing.T) {
	s := pose.Sample{FrameID: math.MaxUint64, Roll: math.MaxFloat64, Pitch: -math.MaxFloat64, Yaw: math.SmallestNonzeroFloat64}
	assert.NotPanics(t, func() { _ = Format(math.MaxUint64, s) })
}
