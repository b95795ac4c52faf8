package config

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/valuation"
)

// Config holds the runtime configuration of a valuation run.
// Every field can be set from the environment (or a .env file); CLI flags
// override the environment.
type Config struct {
	ServiceName string `env:"MVL_SERVICE_NAME" envDefault:"mvl"`
	Env         string `env:"MVL_ENV" envDefault:"dev"` // "dev" or "prod"
	LogLevel    string `env:"MVL_LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"MVL_METRICS_ADDR"` // e.g. ":9100"; empty disables /metrics

	LedgerRoot         string `env:"MVL_LEDGER_ROOT" envDefault:"EPL"` // per-date subdirectories YYYYMMDD
	ScenarioFile       string `env:"MVL_SCENARIO_FILE" envDefault:"Rates/20241231/SCENARIO.fac"`
	ClassificationFile string `env:"MVL_CLASSIFICATION_FILE"` // YAML; empty uses the built-in classification
	OutputPath         string `env:"MVL_OUTPUT" envDefault:"out_mvl.csv"`
	Debug              bool   `env:"MVL_DEBUG"`

	Economies        []string `env:"MVL_ECONOMIES" envDefault:"USD" envSeparator:","`
	Scenarios        []int    `env:"MVL_SCENARIOS" envDefault:"8" envSeparator:","`
	ProjectionYears  int      `env:"MVL_PROJECTION_YEARS" envDefault:"5"`
	Floor            float64  `env:"MVL_DF_FLOOR" envDefault:"0.01"`
	PeriodsPerYear   int      `env:"MVL_QUOTE_PERIODS_PER_YEAR" envDefault:"2"`
	MaxTenorMonths   int      `env:"MVL_MAX_TENOR_MONTHS" envDefault:"1200"`
	Workers          int      `env:"MVL_WORKERS" envDefault:"4"`
	OutOfRangePolicy string   `env:"MVL_OUT_OF_RANGE" envDefault:"error"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Valuation maps the runtime configuration onto the driver configuration.
func (c *Config) Valuation() (valuation.Config, error) {
	policy, err := valuation.ParsePolicy(c.OutOfRangePolicy)
	if err != nil {
		return valuation.Config{}, err
	}
	vc := valuation.Config{
		Economies:        c.Economies,
		Scenarios:        c.Scenarios,
		ProjectionMonths: 12 * c.ProjectionYears,
		Curve: curve.Config{
			Floor:          c.Floor,
			PeriodsPerYear: c.PeriodsPerYear,
			MaxTenorMonths: c.MaxTenorMonths,
		},
		OutOfRange: policy,
		Workers:    c.Workers,
	}
	if err := vc.Validate(); err != nil {
		return valuation.Config{}, fmt.Errorf("config: %w", err)
	}
	return vc, nil
}
