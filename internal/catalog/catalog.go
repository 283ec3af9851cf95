// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package catalog indexes capture runs in a SQLite database so past runs
// can be found without walking the data directory.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/relabs-tech/headtrack_logger/internal/capture"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrUnknownRun is returned when a session is not in the catalog.
var ErrUnknownRun = errors.New("catalog: unknown run")

// Run is one row of the catalog.
type Run struct {
	Session  uuid.UUID
	RunID    string
	Start    time.Time
	Finish   time.Time // zero while the run is in progress or if it crashed
	Source   string
	LogPath  string
	TargetHz float64
	Version  string
	Stats    capture.Stats
}

// Catalog wraps the run database.
type Catalog struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string, logger *zap.SugaredLogger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("catalog: create dir for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: configure %s: %w", path, err)
	}

	c := &Catalog{db: db, log: logger}
	if err := c.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("catalog: load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("catalog: create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("catalog: create migrate instance: %w", err)
	}
	m.Log = migrateLogger{c.log}
	// m is not closed: closing it would close the shared *sql.DB.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("catalog: migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct {
	log *zap.SugaredLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debugf("[migrate] "+format, v...)
}

func (l migrateLogger) Verbose() bool { return false }

// BeginRun records a run that just started.
func (c *Catalog) BeginRun(ctx context.Context, r Run) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (session, run_id, started_at, source, log_path, target_hz, version)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Session.String(),
		r.RunID,
		r.Start.UTC().Format(timeLayout),
		r.Source,
		r.LogPath,
		r.TargetHz,
		r.Version,
	)
	if err != nil {
		return fmt.Errorf("catalog: insert run %s: %w", r.RunID, err)
	}
	return nil
}

// FinishRun stores the final statistics of a run.
func (c *Catalog) FinishRun(ctx context.Context, session uuid.UUID, finish time.Time, s capture.Stats) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, frames_logged = ?, frames_missed = ?, write_failures = ?, stop_reason = ?
		WHERE session = ?`,
		finish.UTC().Format(timeLayout),
		int64(s.Logged),
		int64(s.Missed),
		int64(s.WriteFailures),
		s.StopReason,
		session.String(),
	)
	if err != nil {
		return fmt.Errorf("catalog: finish run %s: %w", session, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: finish run %s: %w", session, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, session)
	}
	return nil
}

// Runs lists runs, newest first.
func (c *Catalog) Runs(ctx context.Context) ([]Run, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT session, run_id, started_at, COALESCE(finished_at, ''), source, log_path,
		       target_hz, version, frames_logged, frames_missed, write_failures, COALESCE(stop_reason, '')
		FROM runs
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                      Run
			session, start, finish string
			logged, missed, failed int64
		)
		if err := rows.Scan(&session, &r.RunID, &start, &finish, &r.Source, &r.LogPath,
			&r.TargetHz, &r.Version, &logged, &missed, &failed, &r.Stats.StopReason); err != nil {
			return nil, fmt.Errorf("catalog: scan run: %w", err)
		}
		if r.Session, err = uuid.Parse(session); err != nil {
			return nil, fmt.Errorf("catalog: session %q: %w", session, err)
		}
		if r.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("catalog: started_at %q: %w", start, err)
		}
		if finish != "" {
			if r.Finish, err = time.Parse(time.RFC3339Nano, finish); err != nil {
				return nil, fmt.Errorf("catalog: finished_at %q: %w", finish, err)
			}
		}
		r.Stats.Start = r.Start
		r.Stats.Logged = uint64(logged)
		r.Stats.Missed = uint64(missed)
		r.Stats.WriteFailures = uint64(failed)
		out = append(out, r)
	}
	return out, rows.Err()
}
