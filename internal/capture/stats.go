// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package capture

import (
	"fmt"
	"math"
	"time"
)

// Stats are the counters of one run.
type Stats struct {
	Logged        uint64    `json:"logged"`
	Missed        uint64    `json:"missed"`
	WriteFailures uint64    `json:"write_failures"`
	Start         time.Time `json:"start"`
	StopReason    string    `json:"stop_reason,omitempty"`
}

// Rate is the average accepted-sample rate over elapsed, or 0 when no time
// has passed.
func (s Stats) Rate(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Logged) / elapsed.Seconds()
}

// Summary renders the lines printed to the console when a run ends. Seconds
// and the rate are rounded half to even.
func Summary(s Stats, now time.Time) []string {
	elapsed := now.Sub(s.Start)
	if elapsed < 0 {
		elapsed = 0
	}
	return []string{
		fmt.Sprintf("Number of frames logged (num_logged_frames): %d", s.Logged),
		fmt.Sprintf("Number of missed frames (num_missed_frames): %d", s.Missed),
		fmt.Sprintf("Total time (computer clock): %.0f s", math.RoundToEven(elapsed.Seconds())),
		fmt.Sprintf("Overall Frame Rate (computer clock): %.0f Hz", math.RoundToEven(s.Rate(elapsed))),
	}
}
