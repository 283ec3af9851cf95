// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package capture

import "github.com/relabs-tech/headtrack_logger/internal/pose"

// FrameRef is the frame number of the last accepted sample. The zero value
// means no sample has been accepted yet.
type FrameRef struct {
	ID    uint64
	Valid bool
}

// Verdict tells whether a polled sample is new and how many device frames
// were skipped since the previous accepted one.
type Verdict struct {
	IsNew       bool
	MissedDelta uint64
}

// Accept compares a polled sample against the last accepted frame.
//
// A frame counter that went backwards (device reset or wrap) yields a new
// sample with no missed frames.
func Accept(s pose.Sample, prev FrameRef) Verdict {
	if !prev.Valid {
		return Verdict{IsNew: true}
	}
	if s.FrameID == prev.ID {
		return Verdict{}
	}

	v := Verdict{IsNew: true}
	if s.FrameID > prev.ID {
		v.MissedDelta = s.FrameID - prev.ID - 1
	}
	return v
}
