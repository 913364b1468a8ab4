// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"
	"strings"

	"github.com/diffeo/go-odata/backend"
	"github.com/diffeo/go-odata/config"
	"github.com/diffeo/go-odata/odata"
	"github.com/diffeo/go-odata/server"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err = cfg.ConfigureLogging(logrus.StandardLogger()); err != nil {
		return err
	}
	var b backend.Backend
	if err = b.Set(cfg.Backend); err != nil {
		return err
	}
	factory, err := b.Factory(nil)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler, err := newHandler(cfg, versioned(factory, cfg.MaxDataServiceVersion), registry)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"listen":  cfg.Listen,
		"backend": b.String(),
		"service": cfg.ServicePath,
		"metrics": cfg.MetricsPath,
	}).Info("serving")
	return http.ListenAndServe(cfg.Listen, handler)
}

// versioned makes every service of factory answer with the given
// DataServiceVersion.
func versioned(factory odata.ServiceFactory, version string) odata.ServiceFactory {
	return odata.ServiceFactoryFunc(func(ctx *odata.Context) (*odata.Service, error) {
		service, err := factory.CreateService(ctx)
		if err != nil {
			return nil, err
		}
		copied := *service
		copied.Version = version
		return &copied, nil
	})
}

// newHandler builds the complete HTTP handler: the service under
// cfg.ServicePath and metrics from registry under cfg.MetricsPath.
func newHandler(cfg config.Config, factory odata.ServiceFactory, registry *prometheus.Registry) (http.Handler, error) {
	metrics, err := server.NewMetrics(registry, nil)
	if err != nil {
		return nil, err
	}
	r := mux.NewRouter()
	if cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	if prefix := strings.TrimSuffix(cfg.ServicePath, "/"); prefix != "" {
		server.PopulateRouter(r.PathPrefix(prefix).Subrouter(), factory, metrics)
	} else {
		server.PopulateRouter(r, factory, metrics)
	}
	return server.Wrap(r, cfg.LogRequests, nil), nil
}
