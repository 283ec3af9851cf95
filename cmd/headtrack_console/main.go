// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/relabs-tech/headtrack_logger/internal/app"
	"github.com/relabs-tech/headtrack_logger/internal/config"
	"github.com/relabs-tech/headtrack_logger/internal/logging"
)

func main() {
	cliApp := &cli.App{
		Name:  "headtrack_console",
		Usage: "print the poses a running logger mirrors on MQTT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  "broker",
				Usage: "MQTT broker URL, overrides MQTT_BROKER",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("broker") {
				cfg.MQTTBroker = c.String("broker")
			}

			logger, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: true})
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunConsoleMQTT(ctx, cfg, os.Stdout, logger)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
