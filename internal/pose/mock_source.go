// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pose

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

type mockSource struct {
	clk      clock.Clock
	deviceHz float64
	start    time.Time
}

// NewMockSource creates a mock tracker that generates smooth changing
// values. Its frame counter advances at deviceHz, independent of how often
// it is polled, the way a real tracker's camera does.
func NewMockSource(clk clock.Clock, deviceHz float64) Source {
	if deviceHz <= 0 {
		deviceHz = 120
	}
	return &mockSource{clk: clk, deviceHz: deviceHz}
}

func (m *mockSource) Start(context.Context) error {
	m.start = m.clk.Now()
	return nil
}

func (m *mockSource) Poll() (Sample, error) {
	elapsed := m.clk.Since(m.start).Seconds()

	return Sample{
		FrameID: uint64(elapsed * m.deviceHz),
		Roll:    20 * math.Sin(elapsed),
		Pitch:   15 * math.Cos(elapsed*0.7),
		Yaw:     math.Mod(elapsed*30, 360) - 180,
		X:       5 * math.Sin(elapsed*0.3),
		Y:       3 * math.Cos(elapsed*0.5),
		Z:       2 * math.Sin(elapsed*0.9),
	}, nil
}

func (m *mockSource) Stop() error { return nil }
