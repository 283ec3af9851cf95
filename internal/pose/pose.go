// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import "context"

// Sample is one 6-DOF reading reported by a head tracker.
// FrameID is assigned by the device and increases with every device frame;
// it may reset or wrap when the device restarts.
type Sample struct {
	FrameID uint64  `json:"frame"`
	Roll    float64 `json:"roll"`  // deg
	Pitch   float64 `json:"pitch"` // deg
	Yaw     float64 `json:"yaw"`   // deg
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Source is anything that can be polled for the latest known sample.
// Poll returns whatever the device last reported, so consecutive polls may
// return the same FrameID. Poll must not block on device I/O.
type Source interface {
	Start(ctx context.Context) error
	Poll() (Sample, error)
	Stop() error
}
