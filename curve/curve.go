package curve

import (
	"fmt"
	"math"

	"github.com/meenmo/mvl/utils"
)

// MonthlyCurvePoint is one month of a built curve.
type MonthlyCurvePoint struct {
	Month             int     `json:"month"`
	InterpolatedYield float64 `json:"interpolated_yield"`
	DiscountFactor    float64 `json:"discount_factor"`
}

// MonthlyCurve is a dense monthly par/zero curve, month 0 through the
// longest quoted tenor. It is immutable once built.
type MonthlyCurve struct {
	cfg     Config
	quotes  []ConvertedQuote
	yields  []float64 // AC percent, index = month
	dfs     []float64 // index = month
	floored []bool    // true where the floor clamp replaced the solved value
}

// Build converts, interpolates and bootstraps a quote set. Either the whole
// curve is returned or an error; the caller's slice is not retained.
func Build(quotes []YieldQuote, cfg Config) (*MonthlyCurve, error) {
	converted, err := ConvertQuotes(quotes, cfg)
	if err != nil {
		return nil, err
	}
	yields, err := InterpolateMonthly(converted)
	if err != nil {
		return nil, err
	}
	dfs, err := Bootstrap(yields, cfg.Floor)
	if err != nil {
		return nil, err
	}

	c := &MonthlyCurve{
		cfg:     cfg,
		quotes:  converted,
		yields:  yields,
		dfs:     dfs,
		floored: make([]bool, len(dfs)),
	}
	for i := 1; i < len(dfs); i++ {
		c.floored[i] = dfs[i] == cfg.Floor && c.unclamped(i) < cfg.Floor
	}
	return c, nil
}

// unclamped recomputes the raw bootstrap value at month i from the stored
// (already clamped) prior factors.
func (c *MonthlyCurve) unclamped(i int) float64 {
	coupon := c.yields[i] / 1200
	discounted := 0.0
	for j := 1; j < i; j++ {
		discounted += coupon * c.dfs[j]
	}
	return (1 - discounted) / (1 + coupon)
}

func (c *MonthlyCurve) check(month int) error {
	if month < 0 || month >= len(c.dfs) {
		return fmt.Errorf("%w: month %d outside [0, %d]", ErrOutOfRange, month, len(c.dfs)-1)
	}
	return nil
}

// MaxMonth returns the last month on the curve (the longest quoted tenor).
func (c *MonthlyCurve) MaxMonth() int {
	return len(c.dfs) - 1
}

// Config returns the configuration the curve was built with.
func (c *MonthlyCurve) Config() Config {
	return c.cfg
}

// DiscountFactor returns Z(month).
func (c *MonthlyCurve) DiscountFactor(month int) (float64, error) {
	if err := c.check(month); err != nil {
		return 0, err
	}
	return c.dfs[month], nil
}

// Yield returns the interpolated AC par yield at month, in percent.
func (c *MonthlyCurve) Yield(month int) (float64, error) {
	if err := c.check(month); err != nil {
		return 0, err
	}
	return c.yields[month], nil
}

// Point returns the full curve entry at month.
func (c *MonthlyCurve) Point(month int) (MonthlyCurvePoint, error) {
	if err := c.check(month); err != nil {
		return MonthlyCurvePoint{}, err
	}
	return MonthlyCurvePoint{
		Month:             month,
		InterpolatedYield: c.yields[month],
		DiscountFactor:    c.dfs[month],
	}, nil
}

// Floored reports whether the floor clamp replaced the solved factor at month.
func (c *MonthlyCurve) Floored(month int) (bool, error) {
	if err := c.check(month); err != nil {
		return false, err
	}
	return c.floored[month], nil
}

// FlooredMonths returns the months where the floor clamp fired, ascending.
func (c *MonthlyCurve) FlooredMonths() []int {
	var out []int
	for m, f := range c.floored {
		if f {
			out = append(out, m)
		}
	}
	return out
}

// ZeroRate returns the annualized monthly-compounding zero rate in percent,
// 1200 * (Z^(-1/m) - 1). Month 0 has no accrual and returns 0.
func (c *MonthlyCurve) ZeroRate(month int) (float64, error) {
	if err := c.check(month); err != nil {
		return 0, err
	}
	if month == 0 {
		return 0, nil
	}
	z := c.dfs[month]
	return utils.RoundTo(1200*(math.Pow(z, -1/float64(month))-1), 12), nil
}

// ParPrice prices the monthly-pay instrument of the given tenor with coupon
// yield/1200 on this curve. It is 1 wherever no floor clamp fired in 1..month.
// For diagnostic purposes.
func (c *MonthlyCurve) ParPrice(month int) (float64, error) {
	if err := c.check(month); err != nil {
		return 0, err
	}
	if month == 0 {
		return 1, nil
	}
	coupon := c.yields[month] / 1200
	pv := 0.0
	for j := 1; j <= month; j++ {
		pv += coupon * c.dfs[j]
	}
	return pv + c.dfs[month], nil
}

// Points returns a copy of every curve entry, month ascending.
func (c *MonthlyCurve) Points() []MonthlyCurvePoint {
	out := make([]MonthlyCurvePoint, len(c.dfs))
	for m := range c.dfs {
		out[m] = MonthlyCurvePoint{
			Month:             m,
			InterpolatedYield: c.yields[m],
			DiscountFactor:    c.dfs[m],
		}
	}
	return out
}

// DiscountFactors returns a copy of the factor vector indexed by month.
func (c *MonthlyCurve) DiscountFactors() []float64 {
	out := make([]float64, len(c.dfs))
	copy(out, c.dfs)
	return out
}

// Quotes returns the converted input quotes sorted by tenor.
func (c *MonthlyCurve) Quotes() []ConvertedQuote {
	out := make([]ConvertedQuote, len(c.quotes))
	copy(out, c.quotes)
	return out
}
