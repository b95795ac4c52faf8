package cashflow

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Classification lists the ledger variables that make up net cash flow.
// Inflows count positive, outflows negative; anything else is ignored.
type Classification struct {
	Inflows  []string `yaml:"inflow"`
	Outflows []string `yaml:"outflow"`
}

// DefaultClassification is the GAAP cohort premium/benefit split.
func DefaultClassification() Classification {
	return Classification{
		Inflows: []string{
			"GAAP_PREM_INC_COHORT",
		},
		Outflows: []string{
			"GAAP_ANNUITY_OUTGO_COHORT",
			"GAAP_DEATH_OUTGO_COHORT",
			"GAAP_HEALTH_OUTGO_COHORT",
			"GAAP_SURR_OUTGO_COHORT",
			"GAAP_MAT_OUTGO_COHORT",
		},
	}
}

// LoadClassification reads a YAML file of the form
//
//	inflow:
//	  - GAAP_PREM_INC_COHORT
//	outflow:
//	  - GAAP_DEATH_OUTGO_COHORT
func LoadClassification(path string) (Classification, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Classification{}, fmt.Errorf("cashflow: read classification: %w", err)
	}
	var cls Classification
	if err := yaml.Unmarshal(raw, &cls); err != nil {
		return Classification{}, fmt.Errorf("cashflow: parse classification %s: %w", path, err)
	}
	if _, err := cls.signs(); err != nil {
		return Classification{}, err
	}
	return cls, nil
}

// signs maps each classified variable to +1 or -1.
func (c Classification) signs() (map[string]decimal.Decimal, error) {
	if len(c.Inflows)+len(c.Outflows) == 0 {
		return nil, fmt.Errorf("cashflow: classification lists no variables")
	}
	pos, neg := decimal.NewFromInt(1), decimal.NewFromInt(-1)
	out := make(map[string]decimal.Decimal, len(c.Inflows)+len(c.Outflows))
	for _, v := range c.Inflows {
		out[strings.TrimSpace(v)] = pos
	}
	for _, v := range c.Outflows {
		v = strings.TrimSpace(v)
		if _, dup := out[v]; dup {
			return nil, fmt.Errorf("cashflow: %s is classified as both inflow and outflow", v)
		}
		out[v] = neg
	}
	return out, nil
}
