// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/headtrack_logger/internal/app"
	"github.com/relabs-tech/headtrack_logger/internal/catalog"
	"github.com/relabs-tech/headtrack_logger/internal/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "headtrack_inspect",
		Usage: "summarise recorded head tracker runs",
		Commands: []*cli.Command{
			{
				Name:      "report",
				Usage:     "frame statistics of one or more runs",
				ArgsUsage: "RUN_DIR|DATA_LOG...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("report needs at least one run directory or data log", 2)
					}
					for _, path := range c.Args().Slice() {
						if _, err := app.InspectRun(c.Context, os.Stdout, path); err != nil {
							return fmt.Errorf("%s: %w", path, err)
						}
					}
					return nil
				},
			},
			{
				Name:  "runs",
				Usage: "list the runs stored in the run catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Value:   config.DefaultPath,
						Usage:   "read CATALOG_PATH from `FILE`",
					},
					&cli.StringFlag{
						Name:  "catalog",
						Usage: "catalog database, overrides CATALOG_PATH",
					},
				},
				Action: func(c *cli.Context) error {
					path := c.String("catalog")
					if path == "" {
						cfg, err := config.Load(c.String("config"))
						if err != nil {
							return err
						}
						path = cfg.CatalogPath
					}
					if path == "" {
						return cli.Exit("no run catalog configured", 2)
					}

					cat, err := catalog.Open(path, nil)
					if err != nil {
						return err
					}
					defer cat.Close()

					runs, err := cat.Runs(c.Context)
					if err != nil {
						return err
					}
					app.WriteRuns(os.Stdout, runs)
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
