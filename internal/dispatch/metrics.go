// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value for successful requests.
const codeOK = "OK"

// Metrics holds request metrics. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics creates and registers request metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vidinfo_requests_total",
			Help: "Total number of dispatched requests, by method and result code.",
		}, []string{"method", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidinfo_request_duration_seconds",
			Help:    "Request processing time, by method.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "vidinfo_requests_in_flight",
			Help: "Current number of requests being processed.",
		}),
	}
}

func (m *Metrics) observe(method string, resp Response, took time.Duration) {
	if m == nil {
		return
	}
	// Unknown method names would blow up label cardinality.
	if method != MethodGetInfo && method != MethodGetBatch {
		method = "unknown"
	}
	code := codeOK
	if resp.Err != nil {
		code = resp.Err.Code
	}
	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(took.Seconds())
}

func (m *Metrics) addInFlight(delta float64) {
	if m == nil {
		return
	}
	m.inFlight.Add(delta)
}
