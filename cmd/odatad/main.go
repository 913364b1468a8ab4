// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package odatad serves an OData service over HTTP.  By default this
// is the in-memory reference service.
package main

import (
	"os"

	"github.com/diffeo/go-odata/backend"
	"github.com/diffeo/go-odata/config"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var serveFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "config",
		Usage:  "configuration YAML file",
		EnvVar: "ODATA_CONFIG",
	},
	cli.StringFlag{
		Name:  "listen",
		Usage: "[ip]:port for the HTTP interface",
	},
	cli.GenericFlag{
		Name:  "backend",
		Value: &backend.Backend{},
		Usage: "impl[:address] of the served data",
	},
	cli.BoolFlag{
		Name:  "log-requests",
		Usage: "log all requests",
	},
}

var serveCommand = cli.Command{
	Name:   "serve",
	Usage:  "run the HTTP server (default)",
	Flags:  serveFlags,
	Action: serve,
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "odatad"
	app.Usage = "serve an OData v2 service"
	app.Flags = serveFlags
	app.Commands = []cli.Command{
		serveCommand,
		dumpBatchCommand,
	}
	app.Action = serve
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("odatad failed")
	}
}

// loadConfig reads the configuration file named on the command line
// and applies the command-line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("backend") {
		if b, ok := c.Generic("backend").(*backend.Backend); ok {
			cfg.Backend = b.String()
		}
	}
	if c.IsSet("log-requests") {
		cfg.LogRequests = c.Bool("log-requests")
	}
	return cfg, cfg.Validate()
}
