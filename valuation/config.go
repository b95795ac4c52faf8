package valuation

import (
	"fmt"
	"strings"

	"github.com/meenmo/mvl/curve"
)

// Policy decides what happens to a cash flow dated past the curve's last month.
type Policy int

const (
	// PolicyError fails the run.
	PolicyError Policy = iota
	// PolicyTruncate drops the cash flow from the present value.
	PolicyTruncate
	// PolicyFlat discounts the cash flow at the last month's zero rate held flat.
	PolicyFlat
)

func (p Policy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyTruncate:
		return "truncate"
	case PolicyFlat:
		return "flat"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "error", "truncate" or "flat" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return PolicyError, nil
	case "truncate":
		return PolicyTruncate, nil
	case "flat":
		return PolicyFlat, nil
	default:
		return 0, fmt.Errorf("valuation: unknown out-of-range policy %q", s)
	}
}

// Config enumerates everything a valuation run is filtered and shaped by.
type Config struct {
	Economies        []string
	Scenarios        []int
	ProjectionMonths int // projections t = 0..ProjectionMonths
	Curve            curve.Config
	OutOfRange       Policy
	Workers          int
}

// DefaultConfig values USD scenario 8 over five projection years.
func DefaultConfig() Config {
	return Config{
		Economies:        []string{"USD"},
		Scenarios:        []int{8},
		ProjectionMonths: 12 * 5,
		Curve:            curve.DefaultConfig,
		OutOfRange:       PolicyError,
		Workers:          4,
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if len(c.Economies) == 0 {
		return fmt.Errorf("valuation: no economies configured")
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("valuation: no scenarios configured")
	}
	if c.ProjectionMonths < 0 {
		return fmt.Errorf("valuation: projection months %d must not be negative", c.ProjectionMonths)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("valuation: workers %d must be positive", c.Workers)
	}
	switch c.OutOfRange {
	case PolicyError, PolicyTruncate, PolicyFlat:
	default:
		return fmt.Errorf("valuation: unknown out-of-range policy %v", c.OutOfRange)
	}
	return c.Curve.Validate()
}
