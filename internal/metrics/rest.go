// Package metrics defines the Prometheus collectors used by the SDK.
// Collectors are registered on a caller-supplied Registerer, never globally.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bagel"

// REST holds Prometheus collectors for calls to the BagelDB API.
// A nil *REST is valid and records nothing.
type REST struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewREST creates REST collectors and registers them on reg.
func NewREST(reg prometheus.Registerer) (*REST, error) {
	m := &REST{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of BagelDB API requests",
			},
			[]string{"op", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "BagelDB API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
	}
	if reg == nil {
		return m, nil
	}
	if err := registerOrReuse(reg, &m.RequestsTotal); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.RequestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// Observe records one API call. status is the HTTP status code, or 0 when
// the request never got a response.
func (m *REST) Observe(op, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	label := "transport_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(op, method, label).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(dur.Seconds())
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("bagel: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("bagel: register metric: %w", err)
	}
	return nil
}
