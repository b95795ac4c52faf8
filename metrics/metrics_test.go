package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		CurveBuildsTotal,
		CurveBuildDuration,
		FlooredDiscountFactors,
		OutOfRangeCashflows,
		ValuationResults,
	}

	for _, c := range collectors {
		err := prometheus.Register(c)
		var already prometheus.AlreadyRegisteredError
		assert.ErrorAs(t, err, &already, "collector should already be registered by promauto")
	}
}

func TestObserveDuration(t *testing.T) {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_duration_seconds", Help: "test"})
	ObserveDuration(h, time.Now().Add(-time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(h))

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_vec_seconds", Help: "test"}, []string{"op"})
	ObserveDuration(vec, time.Now(), "build")
	assert.Equal(t, 1, testutil.CollectAndCount(vec))

	// Counters are ignored.
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	ObserveDuration(c, time.Now())
	assert.Equal(t, 0.0, testutil.ToFloat64(c))
}
