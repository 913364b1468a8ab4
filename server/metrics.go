// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package server

import (
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-odata/odata"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects request statistics.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Clock times requests.
	Clock clock.Clock

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batchParts *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.  If
// clk is nil the real clock is used.
func NewMetrics(reg prometheus.Registerer, clk clock.Clock) (*Metrics, error) {
	if clk == nil {
		clk = clock.New()
	}
	m := &Metrics{
		Clock: clk,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "odata",
				Name:      "requests_total",
				Help:      "Requests handled, including batch members",
			},
			[]string{"uri_type", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "odata",
				Name:      "request_duration_seconds",
				Help:      "Time to produce a response",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"uri_type"},
		),
		batchParts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "odata",
				Name:      "batch_parts_total",
				Help:      "Batch parts executed, by kind",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.batchParts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) now() time.Time {
	if m == nil || m.Clock == nil {
		return time.Time{}
	}
	return m.Clock.Now()
}

func (m *Metrics) observeRequest(uriType odata.URIType, method odata.Method, status int, start time.Time) {
	if m == nil {
		return
	}
	m.requests.With(prometheus.Labels{
		"uri_type": uriType.String(),
		"method":   string(method),
		"status":   strconv.Itoa(status),
	}).Inc()
	m.duration.With(prometheus.Labels{
		"uri_type": uriType.String(),
	}).Observe(m.now().Sub(start).Seconds())
}

func (m *Metrics) batchPart(kind string) {
	if m == nil {
		return
	}
	m.batchParts.With(prometheus.Labels{"kind": kind}).Inc()
}
