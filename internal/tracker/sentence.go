// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker reads head tracker frames from a serial port.
//
// The tracker bridge emits one proprietary NMEA sentence per camera frame:
//
//	$PHTRK,<frame>,<roll>,<pitch>,<yaw>,<x>,<y>,<z>*<checksum>
//
// Angles are degrees. Positions are in the tracker's native units.
package tracker

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
)

// TypeHTRK is the sentence type of a tracker frame.
const TypeHTRK = "HTRK"

// HTRK is a parsed tracker frame sentence.
type HTRK struct {
	nmea.BaseSentence
	Frame int64
	Roll  float64
	Pitch float64
	Yaw   float64
	X     float64
	Y     float64
	Z     float64
}

// Sample converts the sentence to a pose sample.
func (h HTRK) Sample() pose.Sample {
	return pose.Sample{
		FrameID: uint64(h.Frame),
		Roll:    h.Roll,
		Pitch:   h.Pitch,
		Yaw:     h.Yaw,
		X:       h.X,
		Y:       h.Y,
		Z:       h.Z,
	}
}

func parseHTRK(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	m := HTRK{
		BaseSentence: s,
		Frame:        p.Int64(0, "frame"),
		Roll:         p.Float64(1, "roll"),
		Pitch:        p.Float64(2, "pitch"),
		Yaw:          p.Float64(3, "yaw"),
		X:            p.Float64(4, "x"),
		Y:            p.Float64(5, "y"),
		Z:            p.Float64(6, "z"),
	}
	if err := p.Err(); err != nil {
		return m, err
	}
	if m.Frame < 0 {
		return m, fmt.Errorf("nmea: %s invalid frame: %d", s.Prefix(), m.Frame)
	}
	return m, nil
}

// newSentenceParser knows the tracker sentence in addition to the standard
// NMEA ones. The proprietary type is registered with and without the "P"
// talker so either prefix split finds it.
func newSentenceParser() *nmea.SentenceParser {
	return &nmea.SentenceParser{
		CustomParsers: map[string]nmea.ParserFunc{
			TypeHTRK:       parseHTRK,
			"P" + TypeHTRK: parseHTRK,
		},
	}
}

// ParseSentence parses one line into a tracker frame.
func ParseSentence(line string) (HTRK, error) {
	s, err := newSentenceParser().Parse(line)
	if err != nil {
		return HTRK{}, err
	}
	m, ok := s.(HTRK)
	if !ok {
		return HTRK{}, &UnexpectedSentenceError{Prefix: s.Prefix()}
	}
	return m, nil
}

// UnexpectedSentenceError reports a valid NMEA sentence that is not a
// tracker frame.
type UnexpectedSentenceError struct {
	Prefix string
}

func (e *UnexpectedSentenceError) Error() string {
	return "tracker: unexpected sentence " + e.Prefix
}
