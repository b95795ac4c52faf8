package curve

import (
	"fmt"
	"math"
	"sort"
)

// InterpolateMonthly expands the quote set into one AC par yield per month
// from 0 through the longest tenor.
//
// Quoted tenors keep their value unchanged, months strictly between two
// quotes are linear in (tenor, rate), and months before the shortest tenor
// take the shortest tenor's value.
func InterpolateMonthly(quotes []ConvertedQuote) ([]float64, error) {
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: nothing to interpolate", ErrValidation)
	}

	sorted := make([]ConvertedQuote, len(quotes))
	copy(sorted, quotes)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TenorMonths < sorted[j].TenorMonths
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].TenorMonths == sorted[i-1].TenorMonths {
			return nil, fmt.Errorf("%w: duplicate tenor %d", ErrValidation, sorted[i].TenorMonths)
		}
	}
	if sorted[0].TenorMonths < 0 {
		return nil, fmt.Errorf("%w: negative tenor %d", ErrValidation, sorted[0].TenorMonths)
	}

	maxMonth := sorted[len(sorted)-1].TenorMonths
	if maxMonth == math.MaxInt {
		return nil, fmt.Errorf("%w: tenor %d has no monthly grid", ErrValidation, maxMonth)
	}
	yields := make([]float64, maxMonth+1)
	for m := range yields {
		yields[m] = rateAt(sorted, m)
	}
	return yields, nil
}

// rateAt returns the interpolated rate at month m. sorted must be ordered by
// tenor and m must not exceed the last tenor.
func rateAt(sorted []ConvertedQuote, m int) float64 {
	// First quote with tenor >= m.
	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].TenorMonths >= m
	})

	if idx < len(sorted) && sorted[idx].TenorMonths == m {
		return sorted[idx].ParYieldAC
	}
	if idx == 0 {
		// Before the shortest tenor: hold the edge value.
		return sorted[0].ParYieldAC
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1].ParYieldAC
	}

	lo, hi := sorted[idx-1], sorted[idx]
	w := float64(m-lo.TenorMonths) / float64(hi.TenorMonths-lo.TenorMonths)
	return lo.ParYieldAC + (hi.ParYieldAC-lo.ParYieldAC)*w
}
