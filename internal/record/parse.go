// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// ErrNotData is returned by ParseLine for header and schema lines.
var ErrNotData = errors.New("record: not a data line")

// Entry is a data line read back from a log file.
type Entry struct {
	Time      time.Time
	ElapsedMs uint64
	Sample    pose.Sample
}

// ParseLine parses one full log line (timestamp prefix included).
// Timestamps are interpreted in the local zone, the zone they were written in.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < len(TimestampLayout)+1 {
		return Entry{}, ErrNotData
	}
	body := line[len(TimestampLayout):]
	if body[0] != ',' {
		return Entry{}, ErrNotData
	}

	ts, err := time.ParseInLocation(TimestampLayout, line[:len(TimestampLayout)], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("record: timestamp %q: %w", line[:len(TimestampLayout)], err)
	}

	fields := strings.Split(body[1:], ",")
	if len(fields) != 8 {
		return Entry{}, fmt.Errorf("record: expected 8 fields, got %d", len(fields))
	}

	elapsed, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("record: elapsed %q: %w", fields[0], err)
	}
	frame, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("record: frame %q: %w", fields[1], err)
	}

	var vals [6]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i+2], 64)
		if err != nil {
			return Entry{}, fmt.Errorf("record: column %d %q: %w", i+2, fields[i+2], err)
		}
		vals[i] = v
	}

	return Entry{
		Time:      ts,
		ElapsedMs: elapsed,
		Sample: pose.Sample{
			FrameID: frame,
			Roll:    vals[0],
			Pitch:   vals[1],
			Yaw:     vals[2],
			X:       vals[3],
			Y:       vals[4],
			Z:       vals[5],
		},
	}, nil
}
