package curve

import "fmt"

// Config holds the curve construction parameters.
type Config struct {
	// Floor is the minimum admissible discount factor. Each bootstrapped
	// factor is clamped to max(Z, Floor) before it feeds later months.
	Floor float64

	// PeriodsPerYear is the compounding frequency of the input quotes.
	// 2 means bond-equivalent (semi-annual) yields.
	PeriodsPerYear int

	// MaxTenorMonths bounds the longest accepted tenor. The curve holds one
	// point per month and the bootstrap is quadratic in its length.
	MaxTenorMonths int
}

// DefaultConfig matches the production curve: BEY input, 1% floor.
var DefaultConfig = Config{
	Floor:          0.01,
	PeriodsPerYear: 2,
	MaxTenorMonths: 1200,
}

// Validate reports whether the configuration can build a curve.
func (c Config) Validate() error {
	if !(c.Floor > 0 && c.Floor <= 1) {
		return fmt.Errorf("%w: floor %v must be in (0, 1]", ErrValidation, c.Floor)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods per year %d must be positive", ErrValidation, c.PeriodsPerYear)
	}
	if c.MaxTenorMonths <= 0 {
		return fmt.Errorf("%w: max tenor %d months must be positive", ErrValidation, c.MaxTenorMonths)
	}
	return nil
}
