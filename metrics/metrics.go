package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Counts curve builds by outcome ("ok", "validation", "domain", "error").
	CurveBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvl_curve_builds_total",
			Help: "Total number of zero-coupon curve builds by status.",
		},
		[]string{"status"},
	)

	// Measures curve construction time, conversion through bootstrap.
	CurveBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mvl_curve_build_duration_seconds",
			Help:    "Duration of zero-coupon curve builds in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs → ~330ms
		},
	)

	FlooredDiscountFactors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mvl_floored_discount_factors_total",
			Help: "Number of bootstrapped discount factors replaced by the floor.",
		},
	)

	OutOfRangeCashflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mvl_out_of_range_cashflows_total",
			Help: "Cash flows dated past the longest curve tenor, by handling policy.",
		},
		[]string{"policy"},
	)

	ValuationResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mvl_valuation_results_total",
			Help: "Number of present values produced by valuation runs.",
		},
	)
)

// ObserveDuration records the time taken since start on the given histogram.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case prometheus.Histogram:
		metric.Observe(duration)
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not meant for duration tracking
	}
}

// StartServer exposes /metrics on addr in the background. An empty addr
// disables the endpoint.
func StartServer(addr string, log *zap.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics.server_stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
}
