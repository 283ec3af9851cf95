// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package capture runs the acquisition loop: poll the tracker, keep only
// new frames, and append one record per frame to the data log.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/headtrack_logger/internal/pose"
	"github.com/relabs-tech/headtrack_logger/internal/record"
	"github.com/relabs-tech/headtrack_logger/internal/runctx"
)

// Stop reasons recorded in Stats.StopReason.
const (
	StopOperator  = "operator"
	StopInterrupt = "interrupt"
	stopSource    = "source"
)

// State of the loop.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Sink receives formatted record bodies.
type Sink interface {
	AppendLine(text string) error
	Close() error
}

// StopObserver is polled once per iteration. It reports true once the
// operator asked to stop or the shell failed.
type StopObserver interface {
	ShouldStop() bool
}

// Record is handed to listeners after every accepted sample.
type Record struct {
	Sample      pose.Sample
	ElapsedMs   uint64
	MissedDelta uint64
	Stats       Stats
	WriteErr    error
}

// Listener observes accepted samples. OnRecord runs on the loop goroutine
// and must return quickly.
type Listener interface {
	OnRecord(Record)
}

// StopListener is implemented by listeners that want the final stats.
type StopListener interface {
	OnStop(Stats)
}

// Config holds the loop's tunables.
type Config struct {
	TargetHz float64
	Run      runctx.RunContext
}

// Deps are the loop's collaborators. Source must already be started; the
// loop stops it and closes Sink when it exits.
type Deps struct {
	Source    pose.Source
	Sink      Sink
	Shell     StopObserver
	Listeners []Listener
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
}

// Loop is single use: Run may be called once.
type Loop struct {
	cfg   Config
	deps  Deps
	state atomic.Int32
}

// New creates an idle loop.
func New(cfg Config, deps Deps) *Loop {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	return &Loop{cfg: cfg, deps: deps}
}

// State returns the current state. Safe to call from any goroutine.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run polls until ctx is cancelled, the shell asks to stop or the source
// fails. The returned stats are valid even when err is not nil; err only
// reports problems releasing the source or the sink.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	if !l.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return Stats{}, errors.New("capture: loop already run")
	}
	if l.cfg.TargetHz <= 0 {
		err := fmt.Errorf("capture: target frequency must be positive, got %v", l.cfg.TargetHz)
		err = multierr.Combine(err, l.deps.Source.Stop(), l.deps.Sink.Close())
		l.state.Store(int32(Stopped))
		return Stats{}, err
	}

	var (
		src    = l.deps.Source
		sink   = l.deps.Sink
		clk    = l.deps.Clock
		log    = l.deps.Logger
		period = time.Duration(float64(time.Second) / l.cfg.TargetHz)
		stats  = Stats{Start: l.cfg.Run.Start}
		prev   FrameRef
	)

	log.Infof("acquisition started: run %s at %.0f Hz", l.cfg.Run.RunID, l.cfg.TargetHz)

	for {
		if ctx.Err() != nil {
			stats.StopReason = StopInterrupt
			break
		}
		if l.deps.Shell != nil && l.deps.Shell.ShouldStop() {
			stats.StopReason = StopOperator
			break
		}

		sample, err := src.Poll()
		if err != nil {
			log.Warnf("source read failed, stopping: %v", err)
			stats.StopReason = fmt.Sprintf("%s: %v", stopSource, err)
			break
		}

		v := Accept(sample, prev)
		if v.IsNew {
			stats.Logged++
			stats.Missed += v.MissedDelta
			prev = FrameRef{ID: sample.FrameID, Valid: true}

			elapsed := clk.Since(stats.Start).Round(time.Millisecond)
			if elapsed < 0 {
				elapsed = 0
			}
			elapsedMs := uint64(elapsed / time.Millisecond)

			werr := sink.AppendLine(record.Format(elapsedMs, sample))
			if werr != nil {
				stats.WriteFailures++
				log.Warnf("error while logging frame %d: %v", sample.FrameID, werr)
			}

			rec := Record{
				Sample:      sample,
				ElapsedMs:   elapsedMs,
				MissedDelta: v.MissedDelta,
				Stats:       stats,
				WriteErr:    werr,
			}
			for _, ln := range l.deps.Listeners {
				ln.OnRecord(rec)
			}
		}

		clk.Sleep(period)
	}

	l.state.Store(int32(Stopping))
	log.Infof("acquisition stopping (%s)", stats.StopReason)

	var errs error
	if err := src.Stop(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("capture: stop source: %w", err))
	}
	if err := sink.Close(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("capture: close sink: %w", err))
	}

	for _, ln := range l.deps.Listeners {
		if sl, ok := ln.(StopListener); ok {
			sl.OnStop(stats)
		}
	}

	l.state.Store(int32(Stopped))
	return stats, errs
}
