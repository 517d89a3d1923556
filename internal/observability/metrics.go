package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planfoundry/compliance-checker/model"
)

// CheckCollector bundles Prometheus metrics for the checker's HTTP surface
// and the model snapshot, and provides helpers to wire them into routers and
// handlers.
type CheckCollector struct {
	gatherer prometheus.Gatherer

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec

	ModelSpaces  prometheus.Gauge
	ModelStoreys prometheus.Gauge

	Evaluations  prometheus.Counter
	RuleVerdicts *prometheus.CounterVec
}

// NewCheckCollector registers checker Prometheus metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCheckCollector(reg prometheus.Registerer) (*CheckCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	durations, err = registerHistogramVec(reg, durations, "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	spaces, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_spaces",
		Help: "Number of retained space records in the current model snapshot.",
	}), "model_spaces")
	if err != nil {
		return nil, err
	}
	storeys, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_storeys",
		Help: "Number of distinct storey labels in the current model snapshot.",
	}), "model_storeys")
	if err != nil {
		return nil, err
	}

	evaluations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "evaluations_total",
		Help: "Total number of model evaluation sessions.",
	})
	evaluations, err = registerCounter(reg, evaluations, "evaluations_total")
	if err != nil {
		return nil, err
	}

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rule_verdicts_total",
		Help: "Total number of rule verdicts, labeled by rule ID and outcome.",
	}, []string{"rule", "verdict"})
	verdicts, err = registerCounterVec(reg, verdicts, "rule_verdicts_total")
	if err != nil {
		return nil, err
	}

	return &CheckCollector{
		gatherer:      gatherer,
		HTTPRequests:  requests,
		HTTPDurations: durations,
		ModelSpaces:   spaces,
		ModelStoreys:  storeys,
		Evaluations:   evaluations,
		RuleVerdicts:  verdicts,
	}, nil
}

// Middleware records request counts and durations for every routed request.
// The route label uses the chi route pattern so path parameters do not blow
// up label cardinality.
func (c *CheckCollector) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if c == nil {
				return
			}
			route := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			code := strconv.Itoa(ww.Status())
			if c.HTTPRequests != nil {
				c.HTTPRequests.WithLabelValues(route, r.Method, code).Inc()
			}
			if c.HTTPDurations != nil {
				c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			}
		})
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *CheckCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetModelCounts updates the snapshot gauges after a model load.
func (c *CheckCollector) SetModelCounts(spaces, storeys int) {
	if c == nil {
		return
	}
	if c.ModelSpaces != nil {
		c.ModelSpaces.Set(float64(spaces))
	}
	if c.ModelStoreys != nil {
		c.ModelStoreys.Set(float64(storeys))
	}
}

// RecordEvaluation counts one evaluation session.
func (c *CheckCollector) RecordEvaluation() {
	if c == nil || c.Evaluations == nil {
		return
	}
	c.Evaluations.Inc()
}

// RecordVerdicts counts each rule outcome of one check request.
func (c *CheckCollector) RecordVerdicts(results []model.RuleResult) {
	if c == nil || c.RuleVerdicts == nil {
		return
	}
	for _, res := range results {
		verdict := "fail"
		if res.Passed {
			verdict = "pass"
		}
		c.RuleVerdicts.WithLabelValues(res.RuleID, verdict).Inc()
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
