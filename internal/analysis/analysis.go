// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package analysis summarises a recorded run.
package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/record"
)

// Intervals describes the time between consecutive records, in ms.
type Intervals struct {
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	P99    float64
	Max    float64
}

// Report is the summary of one run.
type Report struct {
	Records    int
	Duplicates int // records whose frame number repeats the previous one
	FirstFrame uint64
	LastFrame  uint64
	Missed     uint64
	Resets     int // times the frame counter went backwards
	Duration   time.Duration
	Rate       float64
	Intervals  Intervals
}

// Summarize computes a report over records in file order.
func Summarize(entries []record.Entry) Report {
	var r Report
	r.Records = len(entries)
	if len(entries) == 0 {
		return r
	}

	r.FirstFrame = entries[0].Sample.FrameID
	r.LastFrame = entries[len(entries)-1].Sample.FrameID

	var prev capture.FrameRef
	intervals := make([]float64, 0, len(entries)-1)
	for i, e := range entries {
		if prev.Valid && e.Sample.FrameID < prev.ID {
			r.Resets++
		}
		v := capture.Accept(e.Sample, prev)
		if !v.IsNew {
			r.Duplicates++
		}
		r.Missed += v.MissedDelta
		prev = capture.FrameRef{ID: e.Sample.FrameID, Valid: true}

		if i > 0 {
			intervals = append(intervals, float64(e.ElapsedMs)-float64(entries[i-1].ElapsedMs))
		}
	}

	r.Duration = time.Duration(entries[len(entries)-1].ElapsedMs-entries[0].ElapsedMs) * time.Millisecond
	if r.Duration > 0 {
		r.Rate = float64(len(entries)-1) / r.Duration.Seconds()
	}

	if len(intervals) > 0 {
		sort.Float64s(intervals)
		r.Intervals.Mean, r.Intervals.StdDev = stat.MeanStdDev(intervals, nil)
		r.Intervals.Min = intervals[0]
		r.Intervals.Max = intervals[len(intervals)-1]
		r.Intervals.Median = stat.Quantile(0.5, stat.Empirical, intervals, nil)
		r.Intervals.P99 = stat.Quantile(0.99, stat.Empirical, intervals, nil)
	}
	return r
}
