// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/relabs-tech/headtrack_logger/internal/analysis"
	"github.com/relabs-tech/headtrack_logger/internal/catalog"
	"github.com/relabs-tech/headtrack_logger/internal/replay"
)

// ResolveLog accepts a run directory or a data log path and returns the
// active data log file.
func ResolveLog(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, "*-Data.log"))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("expected one data log in %s, found %d", path, len(matches))
	}
	return matches[0], nil
}

// InspectRun loads every segment of the run at path and writes its report.
func InspectRun(ctx context.Context, w io.Writer, path string) (analysis.Report, error) {
	logPath, err := ResolveLog(path)
	if err != nil {
		return analysis.Report{}, err
	}
	entries, err := replay.LoadAll(ctx, logPath)
	if err != nil {
		return analysis.Report{}, err
	}
	report := analysis.Summarize(entries)
	WriteReport(w, logPath, report)
	return report, nil
}

// WriteReport renders report as a two column table.
func WriteReport(w io.Writer, logPath string, r analysis.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(logPath)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Records", r.Records},
		{"Repeated frames", r.Duplicates},
		{"Frames", fmt.Sprintf("%d .. %d", r.FirstFrame, r.LastFrame)},
		{"Missed frames", r.Missed},
		{"Counter resets", r.Resets},
		{"Duration", units.HumanDuration(r.Duration)},
		{"Record rate", fmt.Sprintf("%.1f Hz", r.Rate)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Interval mean", fmt.Sprintf("%.2f ms", r.Intervals.Mean)},
		{"Interval stddev", fmt.Sprintf("%.2f ms", r.Intervals.StdDev)},
		{"Interval min", fmt.Sprintf("%.0f ms", r.Intervals.Min)},
		{"Interval median", fmt.Sprintf("%.0f ms", r.Intervals.Median)},
		{"Interval p99", fmt.Sprintf("%.0f ms", r.Intervals.P99)},
		{"Interval max", fmt.Sprintf("%.0f ms", r.Intervals.Max)},
	})
	t.Render()
}

// WriteRuns renders the catalogued runs, newest first.
func WriteRuns(w io.Writer, runs []catalog.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Source", "Duration", "Logged", "Missed", "Write failures", "Stop reason"})
	for _, r := range runs {
		duration := "running"
		if !r.Finish.IsZero() {
			duration = units.HumanDuration(r.Finish.Sub(r.Start))
		}
		t.AppendRow(table.Row{r.RunID, r.Source, duration, r.Stats.Logged, r.Stats.Missed, r.Stats.WriteFailures, r.Stats.StopReason})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Runs", len(runs)})
	t.Render()
}
