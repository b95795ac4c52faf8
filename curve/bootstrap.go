package curve

import (
	"fmt"
	"math"
)

// Bootstrap solves monthly zero-coupon discount factors from a dense monthly
// par curve (AC yields in percent, index = month).
//
// Z(0) is 1. For month i the monthly coupon is c = yields[i]/1200 and
//
//	Z(i) = (1 - sum_{j=1}^{i-1} c*Z(j)) / (1 + c)
//
// so that a monthly-pay par instrument of tenor i reprices to 1. Every prior
// coupon uses the coupon of tenor i, not its own period's rate. Each Z(i) is
// clamped to floor before later months use it, which can leave the curve
// non-monotonic once the clamp fires.
func Bootstrap(yields []float64, floor float64) ([]float64, error) {
	if len(yields) == 0 {
		return nil, fmt.Errorf("%w: empty yield curve", ErrValidation)
	}
	if !(floor > 0 && floor <= 1) {
		return nil, fmt.Errorf("%w: floor %v must be in (0, 1]", ErrValidation, floor)
	}

	zcb := make([]float64, len(yields))
	zcb[0] = 1.0

	for i := 1; i < len(yields); i++ {
		coupon := yields[i] / 1200
		denom := 1 + coupon
		if denom == 0 {
			return nil, fmt.Errorf("%w: month %d: coupon %v makes 1+c zero", ErrDomain, i, coupon)
		}

		// Coupons are re-discounted in month order at every step; the sum
		// order is part of the curve's bit-level output.
		discounted := 0.0
		for j := 1; j < i; j++ {
			discounted += coupon * zcb[j]
		}

		z := (1 - discounted) / denom
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, fmt.Errorf("%w: month %d: discount factor %v", ErrDomain, i, z)
		}
		zcb[i] = math.Max(z, floor)
	}
	return zcb, nil
}
