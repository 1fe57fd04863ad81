package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding holds Prometheus collectors for the embeddings provider and cache.
// A nil *Embedding is valid and records nothing.
type Embedding struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensTotal     *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	CacheTotal      *prometheus.CounterVec
}

// NewEmbedding creates embedding collectors and registers them on reg.
// Collectors already registered by another client are reused.
func NewEmbedding(reg prometheus.Registerer) (*Embedding, error) {
	m := &Embedding{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_requests_total",
				Help:      "Total number of embedding requests",
			},
			[]string{"provider", "model", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_request_duration_seconds",
				Help:      "Embedding request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider", "model"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_tokens_total",
				Help:      "Total embedding tokens consumed",
			},
			[]string{"provider", "model", "type"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_errors_total",
				Help:      "Total embedding errors",
			},
			[]string{"provider", "model", "error_type"},
		),
		CacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_total",
				Help:      "Embedding cache hits and misses",
			},
			[]string{"result"}, // "hit" / "miss"
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []**prometheus.CounterVec{&m.RequestsTotal, &m.TokensTotal, &m.ErrorsTotal, &m.CacheTotal} {
		if err := registerOrReuse(reg, c); err != nil {
			return nil, err
		}
	}
	if err := registerOrReuse(reg, &m.RequestDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// Request records the outcome of one provider call.
func (m *Embedding) Request(provider, model, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(provider, model, status).Inc()
}

// Duration records the latency of a successful provider call.
func (m *Embedding) Duration(provider, model string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(provider, model).Observe(seconds)
}

// Tokens adds consumed tokens of the given type ("prompt" or "total").
func (m *Embedding) Tokens(provider, model, kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensTotal.WithLabelValues(provider, model, kind).Add(float64(n))
}

// Error counts a provider failure by type.
func (m *Embedding) Error(provider, model, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(provider, model, errorType).Inc()
}

// Cache counts a cache lookup result ("hit" or "miss").
func (m *Embedding) Cache(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheTotal.WithLabelValues(result).Add(float64(n))
}
