package valuation_test

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meenmo/mvl/cashflow"
	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/metrics"
	"github.com/meenmo/mvl/scenario"
	"github.com/meenmo/mvl/valuation"
)

var valDate = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

// quoteFunc adapts a function to valuation.QuoteSource and counts calls per key.
type quoteFunc struct {
	fn    func(economy string, scen int, month string) ([]curve.YieldQuote, error)
	calls atomic.Int64
	mu    sync.Mutex
	keys  map[string]int
}

func newSource(fn func(economy string, scen int, month string) ([]curve.YieldQuote, error)) *quoteFunc {
	return &quoteFunc{fn: fn, keys: map[string]int{}}
}

func (q *quoteFunc) Quotes(economy string, scen int, month string) ([]curve.YieldQuote, error) {
	q.calls.Add(1)
	q.mu.Lock()
	q.keys[fmt.Sprintf("%s/%d/%s", economy, scen, month)]++
	q.mu.Unlock()
	return q.fn(economy, scen, month)
}

func constant(quotes ...curve.YieldQuote) *quoteFunc {
	return newSource(func(string, int, string) ([]curve.YieldQuote, error) {
		return quotes, nil
	})
}

func flow(deal string, offset int, net string) cashflow.Flow {
	return cashflow.Flow{
		Deal:   deal,
		Month:  valDate.AddDate(0, offset, 0),
		Offset: offset,
		Net:    decimal.RequireFromString(net),
	}
}

func testConfig(months int) valuation.Config {
	cfg := valuation.DefaultConfig()
	cfg.ProjectionMonths = months
	return cfg
}

func TestRun_ZeroRatesSumOutstandingFlows(t *testing.T) {
	t.Parallel()

	src := constant(curve.YieldQuote{TenorMonths: 1, ParYieldBEY: 0}, curve.YieldQuote{TenorMonths: 12, ParYieldBEY: 0})
	d, err := valuation.New(testConfig(3), src, zaptest.NewLogger(t))
	require.NoError(t, err)

	flows := []cashflow.Flow{
		flow("B", 2, "5"),
		flow("A", 1, "10"),
		flow("A", 2, "20"),
		flow("A", 3, "30"),
	}
	results, err := d.Run(context.Background(), valDate, flows)
	require.NoError(t, err)
	require.Len(t, results, 8)

	want := []struct {
		deal  string
		t     int
		month string
		pv    string
	}{
		{"A", 0, "202412", "60"},
		{"B", 0, "202412", "5"},
		{"A", 1, "202501", "50"},
		{"B", 1, "202501", "5"},
		{"A", 2, "202502", "30"},
		{"B", 2, "202502", "0"},
		{"A", 3, "202503", "0"},
		{"B", 3, "202503", "0"},
	}
	for i, w := range want {
		r := results[i]
		assert.Equal(t, w.deal, r.Deal, "row %d", i)
		assert.Equal(t, "USD", r.Economy)
		assert.Equal(t, 8, r.Scenario)
		assert.Equal(t, w.t, r.Projection, "row %d", i)
		assert.Equal(t, w.month, r.Month, "row %d", i)
		assert.True(t, decimal.RequireFromString(w.pv).Equal(r.PV), "row %d: pv %s, want %s", i, r.PV, w.pv)
	}
}

func TestRun_DiscountsWithProjectionMonthCurve(t *testing.T) {
	t.Parallel()

	byMonth := map[string][]curve.YieldQuote{
		"202412": {{TenorMonths: 1, ParYieldBEY: 5}, {TenorMonths: 12, ParYieldBEY: 4}},
		"202501": {{TenorMonths: 1, ParYieldBEY: 3}, {TenorMonths: 12, ParYieldBEY: 6}},
	}
	src := newSource(func(_ string, _ int, month string) ([]curve.YieldQuote, error) {
		return byMonth[month], nil
	})
	d, err := valuation.New(testConfig(1), src, nil)
	require.NoError(t, err)

	results, err := d.Run(context.Background(), valDate, []cashflow.Flow{
		flow("D", 1, "100"),
		flow("D", 6, "-40"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	c0, err := curve.Build(byMonth["202412"], curve.DefaultConfig)
	require.NoError(t, err)
	c1, err := curve.Build(byMonth["202501"], curve.DefaultConfig)
	require.NoError(t, err)

	df := func(c *curve.MonthlyCurve, m int) float64 {
		v, err := c.DiscountFactor(m)
		require.NoError(t, err)
		return v
	}
	want0 := 100*df(c0, 1) - 40*df(c0, 6)
	want1 := -40 * df(c1, 5)

	assert.InDelta(t, want0, results[0].PV.InexactFloat64(), 1e-9)
	assert.InDelta(t, want1, results[1].PV.InexactFloat64(), 1e-9)
}

func TestRun_BuildsEachCurveOnce(t *testing.T) {
	t.Parallel()

	src := constant(curve.YieldQuote{TenorMonths: 1, ParYieldBEY: 4}, curve.YieldQuote{TenorMonths: 120, ParYieldBEY: 5})
	cfg := testConfig(12)
	cfg.Economies = []string{"USD", "EUR"}
	cfg.Scenarios = []int{1, 8}
	cfg.Workers = 16
	d, err := valuation.New(cfg, src, nil)
	require.NoError(t, err)

	var flows []cashflow.Flow
	for i := 0; i < 25; i++ {
		deal := fmt.Sprintf("deal%02d", i)
		for k := 1; k <= 24; k++ {
			flows = append(flows, flow(deal, k, "1"))
		}
	}
	results, err := d.Run(context.Background(), valDate, flows)
	require.NoError(t, err)
	assert.Len(t, results, 2*2*13*25)

	assert.EqualValues(t, 2*2*13, src.calls.Load())
	for key, n := range src.keys {
		assert.Equal(t, 1, n, "curve %s", key)
	}

	// Ordered by economy (configured order), scenario, projection, deal.
	assert.Equal(t, "USD", results[0].Economy)
	assert.Equal(t, 1, results[0].Scenario)
	assert.Equal(t, "deal00", results[0].Deal)
	assert.Equal(t, "deal01", results[1].Deal)
	last := results[len(results)-1]
	assert.Equal(t, "EUR", last.Economy)
	assert.Equal(t, 8, last.Scenario)
	assert.Equal(t, 12, last.Projection)
	assert.Equal(t, "deal24", last.Deal)
}

func TestRun_OutOfRangePolicies(t *testing.T) {
	t.Parallel()

	quotes := []curve.YieldQuote{{TenorMonths: 1, ParYieldBEY: 4}, {TenorMonths: 2, ParYieldBEY: 4}}
	crv, err := curve.Build(quotes, curve.DefaultConfig)
	require.NoError(t, err)
	df1, _ := crv.DiscountFactor(1)
	df2, _ := crv.DiscountFactor(2)

	flows := []cashflow.Flow{flow("X", 1, "100"), flow("X", 5, "100")}

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		d, err := valuation.New(testConfig(0), constant(quotes...), nil)
		require.NoError(t, err)
		_, err = d.Run(context.Background(), valDate, flows)
		require.ErrorIs(t, err, curve.ErrOutOfRange)
		assert.Contains(t, err.Error(), "deal X")
	})

	t.Run("truncate", func(t *testing.T) {
		t.Parallel()
		before := testutil.ToFloat64(metrics.OutOfRangeCashflows.WithLabelValues("truncate"))

		cfg := testConfig(0)
		cfg.OutOfRange = valuation.PolicyTruncate
		d, err := valuation.New(cfg, constant(quotes...), nil)
		require.NoError(t, err)
		results, err := d.Run(context.Background(), valDate, flows)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 100*df1, results[0].PV.InexactFloat64(), 1e-9)

		after := testutil.ToFloat64(metrics.OutOfRangeCashflows.WithLabelValues("truncate"))
		assert.GreaterOrEqual(t, after-before, 1.0)
	})

	t.Run("flat", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(0)
		cfg.OutOfRange = valuation.PolicyFlat
		d, err := valuation.New(cfg, constant(quotes...), nil)
		require.NoError(t, err)
		results, err := d.Run(context.Background(), valDate, flows)
		require.NoError(t, err)
		require.Len(t, results, 1)
		want := 100*df1 + 100*math.Pow(df2, 5.0/2.0)
		assert.InDelta(t, want, results[0].PV.InexactFloat64(), 1e-9)
	})
}

func TestRun_QuoteErrorAbortsRun(t *testing.T) {
	t.Parallel()

	src := newSource(func(_ string, _ int, month string) ([]curve.YieldQuote, error) {
		if month == "202502" {
			return nil, fmt.Errorf("%w: no column for month %s", scenario.ErrMissingData, month)
		}
		return []curve.YieldQuote{{TenorMonths: 12, ParYieldBEY: 4}}, nil
	})
	d, err := valuation.New(testConfig(3), src, nil)
	require.NoError(t, err)

	results, err := d.Run(context.Background(), valDate, []cashflow.Flow{flow("A", 4, "1")})
	require.ErrorIs(t, err, scenario.ErrMissingData)
	assert.Contains(t, err.Error(), "USD/8/202502")
	assert.Nil(t, results)
}

func TestRun_CurveErrorAbortsRun(t *testing.T) {
	t.Parallel()

	src := constant(curve.YieldQuote{TenorMonths: 1, ParYieldBEY: 4}, curve.YieldQuote{TenorMonths: 1, ParYieldBEY: 5})
	d, err := valuation.New(testConfig(0), src, nil)
	require.NoError(t, err)

	_, err = d.Run(context.Background(), valDate, []cashflow.Flow{flow("A", 1, "1")})
	assert.ErrorIs(t, err, curve.ErrValidation)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	src := constant(curve.YieldQuote{TenorMonths: 12, ParYieldBEY: 4})
	d, err := valuation.New(testConfig(12), src, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := d.Run(ctx, valDate, []cashflow.Flow{flow("A", 1, "1")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestRun_NoFlows(t *testing.T) {
	t.Parallel()

	d, err := valuation.New(testConfig(3), constant(curve.YieldQuote{TenorMonths: 12, ParYieldBEY: 4}), nil)
	require.NoError(t, err)
	results, err := d.Run(context.Background(), valDate, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	src := constant()
	_, err := valuation.New(valuation.DefaultConfig(), nil, nil)
	assert.Error(t, err)

	tests := []struct {
		name   string
		mutate func(*valuation.Config)
	}{
		{"no economies", func(c *valuation.Config) { c.Economies = nil }},
		{"no scenarios", func(c *valuation.Config) { c.Scenarios = nil }},
		{"negative projection", func(c *valuation.Config) { c.ProjectionMonths = -1 }},
		{"no workers", func(c *valuation.Config) { c.Workers = 0 }},
		{"bad policy", func(c *valuation.Config) { c.OutOfRange = valuation.Policy(9) }},
		{"bad floor", func(c *valuation.Config) { c.Curve.Floor = 0 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valuation.DefaultConfig()
			tt.mutate(&cfg)
			_, err := valuation.New(cfg, src, nil)
			assert.Error(t, err)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]valuation.Policy{
		"":         valuation.PolicyError,
		"error":    valuation.PolicyError,
		"Truncate": valuation.PolicyTruncate,
		" flat ":   valuation.PolicyFlat,
	} {
		got, err := valuation.ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := valuation.ParsePolicy("extrapolate")
	assert.ErrorContains(t, err, "extrapolate")

	assert.Equal(t, "flat", valuation.PolicyFlat.String())
	assert.Equal(t, "Policy(7)", valuation.Policy(7).String())
}
