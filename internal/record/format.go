// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package record defines the textual layout of a data log line.
//
// A data line is a wall-clock timestamp followed by the record body:
//
//	2021-10-10_14-03-09.512,0000123,00000000007,+1.00000,-2.50000,+0.00000,+3.14159,-3.14159,+0.00000
//
// The body always starts with a comma because it is appended directly after
// the timestamp written by the log sink.
package record

import (
	"fmt"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// TimestampLayout is the wall-clock prefix of every log line.
const TimestampLayout = "2006-01-02_15-04-05.000"

// Schema names the eight record columns in order. It is written once at the
// top of a log stream.
const Schema = " Timestamp[ms], Frame Number, Roll[deg], Pitch[deg], Yaw[deg], X[m], Y[m], Z[m]"

// Format renders one accepted sample. elapsedMs is zero padded to 7 digits,
// the frame number to 11, and every float carries its sign and 5 decimals.
func Format(elapsedMs uint64, s pose.Sample) string {
	return fmt.Sprintf(",%07d,%011d,%+.5f,%+.5f,%+.5f,%+.5f,%+.5f,%+.5f",
		elapsedMs,
		s.FrameID,
		s.Roll,
		s.Pitch,
		s.Yaw,
		s.X,
		s.Y,
		s.Z,
	)
}
