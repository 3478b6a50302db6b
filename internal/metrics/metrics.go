package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of recursion computations.
type Collector struct {
	gatherer prometheus.Gatherer

	Runs              *prometheus.CounterVec
	ComputeDuration   *prometheus.HistogramVec
	Locations         prometheus.Counter
	CrossingFallbacks prometheus.Counter
}

// NewCollector registers the recursion metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// reuses the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recursion_runs_total",
		Help: "Recursion computations, labeled by mode (inline, dataset, task) and outcome.",
	}, []string{"mode", "outcome"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recursion_compute_seconds",
		Help:    "Time spent scanning trajectories for recursions.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
	}, []string{"mode"}))
	if err != nil {
		return nil, err
	}

	locations, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recursion_locations_total",
		Help: "Query locations scanned.",
	}))
	if err != nil {
		return nil, err
	}

	fallbacks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recursion_crossing_fallbacks_total",
		Help: "Boundary crossings where the segment did not reach the circle and an endpoint was used.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Runs:              runs,
		ComputeDuration:   duration,
		Locations:         locations,
		CrossingFallbacks: fallbacks,
	}, nil
}

// ObserveRun records one finished computation.
func (c *Collector) ObserveRun(mode string, elapsed time.Duration, locations, fallbacks int, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.Runs.WithLabelValues(mode, outcome).Inc()
	if err != nil {
		return
	}
	c.ComputeDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	c.Locations.Add(float64(locations))
	c.CrossingFallbacks.Add(float64(fallbacks))
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}
