package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/domsync/pkg/morph"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "domsync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics middleware.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "domsync",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the collectors registered on one registry.
type metrics struct {
	passesTotal    *prometheus.CounterVec
	passDuration   *prometheus.HistogramVec
	mutationsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	islandsMatched prometheus.Counter
}

// Collectors can only be registered once per registry, so every Prometheus
// call on the same registry shares them. The first call's naming wins.
var (
	registeredMu sync.Mutex
	registered   = map[prometheus.Registerer]*metrics{}
)

func metricsFor(config MetricsConfig) *metrics {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	if m, ok := registered[config.Registry]; ok {
		return m
	}
	m := initMetrics(config)
	registered[config.Registry] = m
	return m
}

func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of reconciliation passes",
			ConstLabels: config.ConstLabels,
		}, []string{"range", "status"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Reconciliation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"range"}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of host tree mutations by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of failed passes by error code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		islandsMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "islands_matched_total",
			Help:        "Total number of islands handed back to their pipeline",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Prometheus creates middleware that collects Prometheus metrics for
// reconciliation passes.
//
// Metrics collected:
//   - domsync_passes_total: Counter of passes by range kind and status
//   - domsync_pass_duration_seconds: Histogram of pass duration by range kind
//   - domsync_mutations_total: Counter of mutations by kind
//   - domsync_errors_total: Counter of failed passes by error code
//   - domsync_islands_matched_total: Counter of matched islands
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	r := morph.New(morph.WithMiddleware(
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func Prometheus(opts ...MetricsOption) morph.Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	m := metricsFor(config)

	return func(next morph.PassFunc) morph.PassFunc {
		return func(ctx context.Context, dst, cand morph.Range) (morph.Stats, error) {
			kind := dst.Kind().String()
			start := time.Now()

			stats, err := next(ctx, dst, cand)

			m.passDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
			m.record(stats)

			status := "success"
			if err != nil {
				status = "error"
				m.errorsTotal.WithLabelValues(errorCode(err)).Inc()
			}
			m.passesTotal.WithLabelValues(kind, status).Inc()

			return stats, err
		}
	}
}

// record adds a pass's counts. Failed passes still report the edits they
// applied before stopping.
func (m *metrics) record(s morph.Stats) {
	for kind, n := range map[string]int{
		"insert":    s.Inserted,
		"remove":    s.Removed,
		"text":      s.TextUpdated,
		"attribute": s.AttributesChanged,
		"value":     s.ValuesApplied,
	} {
		if n > 0 {
			m.mutationsTotal.WithLabelValues(kind).Add(float64(n))
		}
	}
	if s.IslandsMatched > 0 {
		m.islandsMatched.Add(float64(s.IslandsMatched))
	}
}

// errorCode keeps the label set small: domsync codes or "unknown".
func errorCode(err error) string {
	if code := morph.ErrorCode(err); code != "" {
		return code
	}
	return "unknown"
}
