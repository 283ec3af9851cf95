// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSourceFrameCounterFollowsClock(t *testing.T) {
	clk := clock.NewMock()
	src := NewMockSource(clk, 120)
	require.NoError(t, src.Start(context.Background()))

	first, err := src.Poll()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first.FrameID)

	// Polling faster than the device repeats the frame.
	clk.Add(time.Millisecond)
	again, err := src.Poll()
	require.NoError(t, err)
	assert.Equal(t, first.FrameID, again.FrameID)

	clk.Add(time.Second)
	later, err := src.Poll()
	require.NoError(t, err)
	assert.Equal(t, uint64(120), later.FrameID)
	assert.GreaterOrEqual(t, later.Yaw, -180.0)
	assert.Less(t, later.Yaw, 180.0)

	assert.NoError(t, src.Stop())
}

func TestMockSourceDefaultsDeviceRate(t *testing.T) {
	clk := clock.NewMock()
	src := NewMockSource(clk, 0)
	require.NoError(t, src.Start(context.Background()))

	clk.Add(500 * time.Millisecond)
	s, err := src.Poll()
	require.NoError(t, err)
	assert.Equal(t, uint64(60), s.FrameID)
}
