// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// run feeds frames through Accept the way the loop does.
func run(frames ...uint64) (accepted []uint64, missed uint64) {
	var prev FrameRef
	for _, f := range frames {
		v := Accept(pose.Sample{FrameID: f}, prev)
		if !v.IsNew {
			continue
		}
		accepted = append(accepted, f)
		missed += v.MissedDelta
		prev = FrameRef{ID: f, Valid: true}
	}
	return accepted, missed
}

func TestAcceptSuppressesDuplicates(t *testing.T) {
	accepted, missed := run(5, 5, 6, 6, 6, 7)
	assert.Equal(t, []uint64{5, 6, 7}, accepted)
	assert.Zero(t, missed)
}

func TestAcceptCountsGaps(t *testing.T) {
	v := Accept(pose.Sample{FrameID: 8}, FrameRef{ID: 5, Valid: true})
	assert.Equal(t, Verdict{IsNew: true, MissedDelta: 2}, v)
}

func TestAcceptFirstFrameHasNoMisses(t *testing.T) {
	for _, f := range []uint64{0, 1, 1000, 1 << 40} {
		v := Accept(pose.Sample{FrameID: f}, FrameRef{})
		assert.Equal(t, Verdict{IsNew: true}, v, "frame %d", f)
	}
}

func TestAcceptClampsDecreasingCounter(t *testing.T) {
	v := Accept(pose.Sample{FrameID: 3}, FrameRef{ID: 900, Valid: true})
	assert.Equal(t, Verdict{IsNew: true}, v)

	accepted, missed := run(10, 11, 2, 3, 5)
	assert.Equal(t, []uint64{10, 11, 2, 3, 5}, accepted)
	assert.Equal(t, uint64(1), missed)
}

func TestAcceptIsIdempotent(t *testing.T) {
	s := pose.Sample{FrameID: 42, Roll: 1}
	prev := FrameRef{ID: 40, Valid: true}

	first := Accept(s, prev)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Accept(s, prev))
	}
	assert.Equal(t, Verdict{}, Accept(s, FrameRef{ID: 42, Valid: true}))
}
