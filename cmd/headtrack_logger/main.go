// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/headtrack_logger/internal/app"
	"github.com/relabs-tech/headtrack_logger/internal/config"
	"github.com/relabs-tech/headtrack_logger/internal/version"
)

func main() {
	cliApp := &cli.App{
		Name:    "headtrack_logger",
		Usage:   "log head tracker poses to rotating data files",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "data-root",
				Usage: "directory that receives one folder per run",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "tracker source: mock, serial or replay",
			},
			&cli.StringFlag{
				Name:  "replay",
				Usage: "replay the data log at `PATH` (implies --source replay)",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "run without the terminal window; stop with Ctrl+C",
			},
		},
		Action: run,
	}

	if err := cliApp.Run(os.Args); err != nil {
		var initErr *app.SourceInitError
		if errors.As(err, &initErr) {
			fmt.Println(app.CrashGuidance)
		}
		fmt.Fprintf(os.Stderr, "headtrack_logger: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("data-root") {
		cfg.DataRoot = c.String("data-root")
	}
	if c.IsSet("source") {
		cfg.Source = c.String("source")
	}
	if c.IsSet("replay") {
		cfg.Source = config.SourceReplay
		cfg.ReplayPath = c.String("replay")
	}
	if c.Bool("headless") {
		cfg.Shell = config.ShellHeadless
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.RunHeadTrackLogger(ctx, cfg, app.LoggerOptions{})
}

// loadConfig reads path, or the default config file when it exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultPath); err == nil {
		return config.Load(config.DefaultPath)
	}
	return config.Default(), nil
}
