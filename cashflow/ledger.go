package cashflow

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/mvl/utils"
)

const varNameColumn = "VAR_NAME"

// Flow is one deal's net cash flow for one projection month.
type Flow struct {
	Deal   string
	Month  time.Time // month end
	Offset int       // months after the valuation month, always > 0
	Net    decimal.Decimal
}

// Parse reads one ledger extract.
//
// The first line is a banner and is skipped; the second is the header. The
// first column is a row marker and is dropped. The VAR_NAME column names the
// ledger variable and every YYYYMM column holds that month's amount. Only
// months after the valuation month are returned, net of sign and rounded to
// cents.
func Parse(r io.Reader, deal string, valDate time.Time, cls Classification) ([]Flow, error) {
	signs, err := cls.signs()
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("cashflow: %s: read banner: %w", deal, err)
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("cashflow: %s: read header: %w", deal, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("cashflow: %s: header has %d columns", deal, len(header))
	}
	header = header[1:]

	varIdx := -1
	var monthIdx []int
	var months []time.Time
	for i, h := range header {
		h = strings.TrimSpace(h)
		switch {
		case h == varNameColumn:
			varIdx = i
		case utils.IsYYYYMM(h):
			m, err := utils.ParseYYYYMM(h)
			if err != nil {
				return nil, fmt.Errorf("cashflow: %s: %w", deal, err)
			}
			monthIdx = append(monthIdx, i)
			months = append(months, m)
		}
	}
	if varIdx < 0 {
		return nil, fmt.Errorf("cashflow: %s: no %s column", deal, varNameColumn)
	}
	if len(monthIdx) == 0 {
		return nil, fmt.Errorf("cashflow: %s: no YYYYMM columns", deal)
	}

	totals := make([]decimal.Decimal, len(monthIdx))
	for line := 3; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cashflow: %s: line %d: %w", deal, line, err)
		}
		if len(rec) < 2 {
			continue
		}
		rec = rec[1:]
		if varIdx >= len(rec) {
			continue
		}
		sign, ok := signs[strings.TrimSpace(rec[varIdx])]
		if !ok {
			continue
		}
		for k, col := range monthIdx {
			if col >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[col])
			if cell == "" {
				continue
			}
			v, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("cashflow: %s: line %d column %s: %w", deal, line, header[col], err)
			}
			totals[k] = totals[k].Add(v.Mul(sign))
		}
	}

	flows := make([]Flow, 0, len(months))
	for k, m := range months {
		offset := utils.MonthsBetween(valDate, m)
		if offset <= 0 {
			continue
		}
		flows = append(flows, Flow{
			Deal:   deal,
			Month:  m,
			Offset: offset,
			Net:    totals[k].Round(2),
		})
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Offset < flows[j].Offset })
	return flows, nil
}

// LoadDir parses every *.fac extract in dir. The deal name is the file stem.
func LoadDir(dir string, valDate time.Time, cls Classification) ([]Flow, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("cashflow: ledger directory: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.fac"))
	if err != nil {
		return nil, fmt.Errorf("cashflow: glob %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("cashflow: no .fac extracts in %s", dir)
	}
	sort.Strings(paths)

	var all []Flow
	for _, p := range paths {
		flows, err := loadFile(p, valDate, cls)
		if err != nil {
			return nil, err
		}
		all = append(all, flows...)
	}
	return all, nil
}

func loadFile(path string, valDate time.Time, cls Classification) ([]Flow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cashflow: %w", err)
	}
	defer f.Close()

	deal := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(f, deal, valDate, cls)
}

// GroupByDeal buckets flows per deal, keeping input order within a deal.
func GroupByDeal(flows []Flow) map[string][]Flow {
	out := make(map[string][]Flow)
	for _, f := range flows {
		out[f.Deal] = append(out[f.Deal], f)
	}
	return out
}

// Deals returns the distinct deal names, sorted.
func Deals(flows []Flow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range flows {
		if _, ok := seen[f.Deal]; ok {
			continue
		}
		seen[f.Deal] = struct{}{}
		out = append(out, f.Deal)
	}
	sort.Strings(out)
	return out
}
