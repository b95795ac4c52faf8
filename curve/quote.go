package curve

import (
	"fmt"
	"math"
	"sort"
)

// YieldQuote is an observed par yield at a tenor.
//
// ParYieldBEY is in percentage points (5.0079 means 5.0079%), annualized
// with semi-annual compounding unless Config.PeriodsPerYear says otherwise.
type YieldQuote struct {
	TenorMonths int     `json:"tenor_months"`
	ParYieldBEY float64 `json:"par_yield_bey"`
}

// ConvertedQuote carries the monthly-compounding equivalent of a quote.
type ConvertedQuote struct {
	YieldQuote
	ParYieldAC float64 `json:"par_yield_ac"`
}

// ConvertBEYToAC re-expresses an annualized rate compounded periodsPerYear
// times a year as the annualized rate compounded monthly:
//
//	r_ac = 1200 * ((1 + r/(100*m))^(m/12) - 1)
//
// With m = 2 this is 1200 * ((1 + r/200)^(1/6) - 1). Rates at or below
// -100*m have no real equivalent and are rejected.
func ConvertBEYToAC(rate float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("%w: periods per year %d must be positive", ErrValidation, periodsPerYear)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: yield %v is not finite", ErrValidation, rate)
	}
	m := float64(periodsPerYear)
	if rate <= -100*m {
		return 0, fmt.Errorf("%w: yield %v at or below %v", ErrValidation, rate, -100*m)
	}
	if rate == 0 {
		return 0, nil
	}
	return 1200 * (math.Pow(1+rate/(100*m), m/12) - 1), nil
}

// ConvertQuotes validates the whole quote set and converts it. The result is
// sorted by tenor. Nothing is converted unless every quote is valid.
func ConvertQuotes(quotes []YieldQuote, cfg Config) ([]ConvertedQuote, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: empty quote set", ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(quotes))
	for _, q := range quotes {
		if q.TenorMonths < 0 {
			return nil, fmt.Errorf("%w: negative tenor %d", ErrValidation, q.TenorMonths)
		}
		if q.TenorMonths > cfg.MaxTenorMonths {
			return nil, fmt.Errorf("%w: tenor %d above %d months", ErrValidation, q.TenorMonths, cfg.MaxTenorMonths)
		}
		if _, dup := seen[q.TenorMonths]; dup {
			return nil, fmt.Errorf("%w: duplicate tenor %d", ErrValidation, q.TenorMonths)
		}
		seen[q.TenorMonths] = struct{}{}
	}

	out := make([]ConvertedQuote, 0, len(quotes))
	for _, q := range quotes {
		ac, err := ConvertBEYToAC(q.ParYieldBEY, cfg.PeriodsPerYear)
		if err != nil {
			return nil, fmt.Errorf("tenor %d: %w", q.TenorMonths, err)
		}
		out = append(out, ConvertedQuote{YieldQuote: q, ParYieldAC: ac})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TenorMonths < out[j].TenorMonths
	})
	return out, nil
}
