// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
	"github.com/relabs-tech/headtrack_logger/internal/catalog"
	"github.com/relabs-tech/headtrack_logger/internal/config"
	"github.com/relabs-tech/headtrack_logger/internal/datalog"
	"github.com/relabs-tech/headtrack_logger/internal/display"
	"github.com/relabs-tech/headtrack_logger/internal/logging"
	"github.com/relabs-tech/headtrack_logger/internal/metrics"
	"github.com/relabs-tech/headtrack_logger/internal/mirror"
	"github.com/relabs-tech/headtrack_logger/internal/pose"
	"github.com/relabs-tech/headtrack_logger/internal/replay"
	"github.com/relabs-tech/headtrack_logger/internal/runctx"
	"github.com/relabs-tech/headtrack_logger/internal/shell"
	"github.com/relabs-tech/headtrack_logger/internal/status"
	"github.com/relabs-tech/headtrack_logger/internal/tracker"
	"github.com/relabs-tech/headtrack_logger/internal/version"
	"github.com/relabs-tech/headtrack_logger/internal/web"
)

// CrashGuidance is printed when the tracker cannot be started.
const CrashGuidance = "Crash!\n  (This usually means you need to restart the tracker software or reconnect the tracker)"

// SourceInitError reports a tracker that could not be started. It is the
// only failure that ends the program with a non-zero status once the
// configuration is valid.
type SourceInitError struct {
	Source string
	Err    error
}

func (e *SourceInitError) Error() string {
	return fmt.Sprintf("%s source failed to start: %v", e.Source, e.Err)
}

func (e *SourceInitError) Unwrap() error { return e.Err }

// LoggerOptions are the collaborators of RunHeadTrackLogger that tests
// replace.
type LoggerOptions struct {
	// Stdout receives the run summary.
	Stdout io.Writer
	Clock  clock.Clock
	// Source overrides the source selected by the configuration.
	Source pose.Source
	// Shell overrides the shell selected by the configuration.
	Shell capture.StopObserver
	// Logger replaces the diagnostic logger built from the configuration.
	Logger *zap.SugaredLogger
}

// RunHeadTrackLogger captures one run: it starts the tracker, logs every
// new frame until the operator, an interrupt (ctx) or the tracker ends the
// run, then prints the run summary.
func RunHeadTrackLogger(ctx context.Context, cfg *config.Config, opts LoggerOptions) (err error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	clk := opts.Clock

	terminal := cfg.Shell == config.ShellTerminal && opts.Shell == nil
	log := opts.Logger
	if log == nil {
		// The terminal window owns the screen; diagnostics then only go
		// to the file, if any.
		l, closeLog, lerr := logging.New(logging.Options{
			Level:          cfg.LogLevel,
			Console:        !terminal,
			FilePath:       cfg.DiagLogPath,
			FileMaxSizeMB:  10,
			FileMaxBackups: 3,
		})
		if lerr != nil {
			return lerr
		}
		defer func() { err = multierr.Append(err, closeLog()) }()
		log = l
	}

	rc := runctx.New(clk.Now(), cfg.DataRoot)
	session := uuid.New()
	log.Infof("starting headtrack logger %s, run %s, session %s", version.String(), rc.RunID, session)

	// ---- 1) Tracker ----
	src := opts.Source
	if src == nil {
		src = newSource(cfg, clk, log)
	}
	if err := src.Start(ctx); err != nil {
		return &SourceInitError{Source: cfg.Source, Err: err}
	}

	// ---- 2) Data log ----
	sink, err := datalog.Open(rc, datalog.Options{
		MaxFileBytes: cfg.MaxFileBytes,
		MaxFileCount: cfg.MaxFileCount,
		Version:      version.Version,
		Clock:        clk,
		Logger:       log.Named("datalog"),
	})
	if err != nil {
		return multierr.Append(err, src.Stop())
	}

	manifest := runctx.NewManifest(rc, session.String(), version.Version)
	manifest.Settings.Source = cfg.Source
	manifest.Settings.TargetHz = cfg.TargetHz
	manifest.Settings.MaxFileBytes = cfg.MaxFileBytes
	manifest.Settings.MaxFileCount = cfg.MaxFileCount
	if err := manifest.Write(rc.OutputDir); err != nil {
		log.Warnf("run manifest: %v", err)
	}

	cat := openCatalog(ctx, cfg, catalog.Run{
		Session:  session,
		RunID:    rc.RunID,
		Start:    rc.Start,
		Source:   cfg.Source,
		LogPath:  rc.LogPath(),
		TargetHz: cfg.TargetHz,
		Version:  version.Version,
	}, log.Named("catalog"))

	// ---- 3) Listeners ----
	board := status.NewBoard(status.Info{
		RunID:   rc.RunID,
		Session: session.String(),
		Source:  cfg.Source,
		LogPath: sink.Path(),
		Start:   rc.Start,
	}, clk)
	recorder := metrics.NewRecorder(rc.RunID)
	listeners := []capture.Listener{board, recorder}

	var mqttClient mqtt.Client
	if cfg.MQTTBroker != "" {
		c, err := mirror.Connect(cfg.MQTTBroker, cfg.MQTTClientID, 5*time.Second)
		if err != nil {
			log.Warnf("pose mirror disabled: %v", err)
		} else {
			mqttClient = c
			log.Infof("mirroring poses to %s on %s", cfg.MQTTBroker, cfg.TopicPose)
			listeners = append(listeners, mirror.NewPublisher(c, mirror.Options{
				Topic:   cfg.TopicPose,
				Session: session.String(),
				RunID:   rc.RunID,
				RateHz:  cfg.MirrorRateHz,
				Logger:  log.Named("mirror"),
			}))
		}
	}

	// ---- 4) Status surfaces ----
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup

	observer := opts.Shell
	switch {
	case observer != nil:
	case terminal:
		term := shell.NewTerminal(board)
		observer = term
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := term.Run(runCtx); err != nil {
				log.Warnf("%v, stopping", err)
			}
		}()
	default:
		observer = shell.Headless{}
	}

	if cfg.WebServerAddr != "" {
		srv := web.NewServer(board, web.Options{
			Addr:     cfg.WebServerAddr,
			Gatherer: recorder.Registry,
			Clock:    clk,
			Logger:   log.Named("web"),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(runCtx); err != nil {
				log.Warnf("web server stopped: %v", err)
			}
		}()
	}

	if cfg.DisplayEnabled {
		panel, err := display.Open(cfg.DisplayI2CBus, log.Named("display"))
		if err != nil {
			log.Warnf("status display disabled: %v", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := panel.Run(runCtx, board, clk, cfg.DisplayUpdateInterval); err != nil {
					log.Warnf("status display stopped: %v", err)
				}
			}()
		}
	}

	// ---- 5) Acquisition ----
	loop := capture.New(capture.Config{
		TargetHz: cfg.TargetHz,
		Run:      rc,
	}, capture.Deps{
		Source:    src,
		Sink:      sink,
		Shell:     observer,
		Listeners: listeners,
		Clock:     clk,
		Logger:    log.Named("capture"),
	})
	stats, runErr := loop.Run(runCtx)
	end := clk.Now()

	// ---- 6) Teardown ----
	cancel()
	wg.Wait()
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}

	manifest.Stopped = end
	manifest.Stats.Logged = stats.Logged
	manifest.Stats.Missed = stats.Missed
	manifest.Stats.WriteFailures = stats.WriteFailures
	manifest.Stats.StopReason = stats.StopReason
	if err := manifest.Write(rc.OutputDir); err != nil {
		log.Warnf("run manifest: %v", err)
	}

	if cat != nil {
		if err := cat.FinishRun(context.Background(), session, end, stats); err != nil {
			log.Warnf("run catalog: %v", err)
		}
		if err := cat.Close(); err != nil {
			log.Warnf("run catalog: %v", err)
		}
	}

	log.Infof("run %s stopped (%s): %d logged, %d missed, %d write failures",
		rc.RunID, stats.StopReason, stats.Logged, stats.Missed, stats.WriteFailures)
	for _, line := range capture.Summary(stats, end) {
		fmt.Fprintln(opts.Stdout, line)
	}

	if runErr != nil {
		log.Warnf("releasing resources: %v", runErr)
	}
	return nil
}

func newSource(cfg *config.Config, clk clock.Clock, log *zap.SugaredLogger) pose.Source {
	switch cfg.Source {
	case config.SourceSerial:
		return tracker.NewSerialSource(tracker.Options{
			PortName:     cfg.SerialPort,
			BaudRate:     cfg.SerialBaudRate,
			StartTimeout: cfg.SourceStartTimeout,
			Clock:        clk,
			Logger:       log.Named("tracker"),
		})
	case config.SourceReplay:
		return replay.NewSource(cfg.ReplayPath, replay.Options{Paced: cfg.ReplayPaced, Clock: clk})
	default:
		return pose.NewMockSource(clk, cfg.MockDeviceHz)
	}
}

// openCatalog returns nil when the catalog is disabled or unusable; the
// run goes on without it.
func openCatalog(ctx context.Context, cfg *config.Config, run catalog.Run, log *zap.SugaredLogger) *catalog.Catalog {
	if cfg.CatalogPath == "" {
		return nil
	}
	cat, err := catalog.Open(cfg.CatalogPath, log)
	if err != nil {
		log.Warnf("run catalog disabled: %v", err)
		return nil
	}
	if err := cat.BeginRun(ctx, run); err != nil {
		log.Warnf("run catalog disabled: %v", err)
		cat.Close()
		return nil
	}
	return cat
}
