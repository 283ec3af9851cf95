// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exports capture counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
)

const namespace = "headtrack"

// Recorder is a capture.Listener that mirrors the run statistics into
// Prometheus collectors registered on its own registry.
type Recorder struct {
	Registry *prometheus.Registry

	framesLogged  prometheus.Counter
	framesMissed  prometheus.Counter
	writeFailures prometheus.Counter
	missedBurst   prometheus.Histogram
	lastFrame     prometheus.Gauge
	elapsed       prometheus.Gauge
	running       prometheus.Gauge
}

// NewRecorder creates the collectors and registers them together with the
// Go runtime and process collectors.
func NewRecorder(runID string) *Recorder {
	labels := prometheus.Labels{"run": runID}
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		framesLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_logged_total",
			Help:        "Number of new tracker frames written to the data log",
			ConstLabels: labels,
		}),
		framesMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "frames_missed_total",
			Help:        "Number of tracker frames skipped between two polls",
			ConstLabels: labels,
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "write_failures_total",
			Help:        "Number of data log lines that could not be written",
			ConstLabels: labels,
		}),
		missedBurst: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "missed_frames_per_gap",
			Help:        "Frames skipped per accepted sample, when any were skipped",
			Buckets:     prometheus.ExponentialBuckets(1, 2, 8),
			ConstLabels: labels,
		}),
		lastFrame: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_frame_id",
			Help:        "Frame number of the last accepted sample",
			ConstLabels: labels,
		}),
		elapsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "elapsed_seconds",
			Help:        "Run time at the last accepted sample",
			ConstLabels: labels,
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "running",
			Help:        "1 while the acquisition loop runs",
			ConstLabels: labels,
		}),
	}

	r.Registry.MustRegister(
		r.framesLogged,
		r.framesMissed,
		r.writeFailures,
		r.missedBurst,
		r.lastFrame,
		r.elapsed,
		r.running,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.running.Set(1)
	return r
}

// OnRecord implements capture.Listener.
func (r *Recorder) OnRecord(rec capture.Record) {
	r.framesLogged.Inc()
	if rec.MissedDelta > 0 {
		r.framesMissed.Add(float64(rec.MissedDelta))
		r.missedBurst.Observe(float64(rec.MissedDelta))
	}
	if rec.WriteErr != nil {
		r.writeFailures.Inc()
	}
	r.lastFrame.Set(float64(rec.Sample.FrameID))
	r.elapsed.Set(float64(rec.ElapsedMs) / 1000)
}

// OnStop implements capture.StopListener.
func (r *Recorder) OnStop(capture.Stats) {
	r.running.Set(0)
}
