package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/utils"
)

// Scenario extract columns.
const (
	ColEconomy  = "ECONOMY"
	ColScenario = "SCENARIO"
	ColClass    = "CLASS"
	ColTerm     = "OS_TERM"
)

// Rate classes summed into a par yield: the treasury curve plus the A spread.
const (
	ClassTreasury = "TRE"
	ClassA        = "A"
)

// ErrMissingData marks a quote request the extract cannot answer.
var ErrMissingData = errors.New("scenario: missing data")

// Filter selects the rows kept from an extract. Empty Economies or
// Scenarios keep every value; empty Classes means TRE and A.
type Filter struct {
	Economies []string
	Scenarios []int
	Classes   []string
}

// DefaultFilter keeps USD scenario 8, treasury plus A spread.
func DefaultFilter() Filter {
	return Filter{
		Economies: []string{"USD"},
		Scenarios: []int{8},
		Classes:   []string{ClassTreasury, ClassA},
	}
}

func (f Filter) classes() []string {
	if len(f.Classes) == 0 {
		return []string{ClassTreasury, ClassA}
	}
	return f.Classes
}

// keepRow reports whether economy and class pass; rows it drops are never
// parsed further.
func (f Filter) keepRow(economy, class string) bool {
	if len(f.Economies) > 0 && !slices.Contains(f.Economies, economy) {
		return false
	}
	return slices.Contains(f.classes(), class)
}

func (f Filter) keepScenario(scen int) bool {
	return len(f.Scenarios) == 0 || slices.Contains(f.Scenarios, scen)
}

type curveKey struct {
	economy  string
	scenario int
}

type rowKey struct {
	curveKey
	term  int
	class string
}

// Set is a filtered scenario extract: par-yield components per economy,
// scenario, term and class, for every month column.
type Set struct {
	classes  []string
	months   []string
	monthIdx map[string]int
	rows     map[rowKey][]string
	terms    map[curveKey]map[int]struct{}
}

// Load reads and filters a scenario extract from path.
func Load(path string, filter Filter) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()

	set, err := Parse(f, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse reads a scenario extract. The first line is a banner and the first
// column a row marker, both dropped.
func Parse(r io.Reader, filter Filter) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("scenario: read banner: %w", err)
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("scenario: read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("scenario: header has %d columns", len(header))
	}
	header = header[1:]

	cols := map[string]int{}
	set := &Set{
		classes:  filter.classes(),
		monthIdx: map[string]int{},
		rows:     map[rowKey][]string{},
		terms:    map[curveKey]map[int]struct{}{},
	}
	var monthCols []int
	for i, h := range header {
		h = strings.TrimSpace(h)
		if utils.IsYYYYMM(h) {
			set.monthIdx[h] = len(set.months)
			set.months = append(set.months, h)
			monthCols = append(monthCols, i)
			continue
		}
		cols[h] = i
	}
	for _, c := range []string{ColEconomy, ColScenario, ColClass, ColTerm} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("scenario: no %s column", c)
		}
	}

	for line := 3; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scenario: line %d: %w", line, err)
		}
		if len(rec) < 2 {
			continue
		}
		rec = rec[1:]
		field := func(name string) string {
			if i := cols[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		economy := field(ColEconomy)
		class := field(ColClass)
		if !filter.keepRow(economy, class) {
			continue
		}
		scen, err := strconv.Atoi(field(ColScenario))
		if err != nil {
			return nil, fmt.Errorf("scenario: line %d: %s %q: %w", line, ColScenario, field(ColScenario), err)
		}
		if !filter.keepScenario(scen) {
			continue
		}
		term, err := strconv.Atoi(field(ColTerm))
		if err != nil {
			return nil, fmt.Errorf("scenario: line %d: %s %q: %w", line, ColTerm, field(ColTerm), err)
		}

		key := rowKey{curveKey: curveKey{economy: economy, scenario: scen}, term: term, class: class}
		if _, dup := set.rows[key]; dup {
			return nil, fmt.Errorf("scenario: line %d: duplicate row %s/%d/%s/%d", line, economy, scen, class, term)
		}
		values := make([]string, len(monthCols))
		for k, col := range monthCols {
			if col < len(rec) {
				values[k] = strings.TrimSpace(rec[col])
			}
		}
		set.rows[key] = values
		if set.terms[key.curveKey] == nil {
			set.terms[key.curveKey] = map[int]struct{}{}
		}
		set.terms[key.curveKey][term] = struct{}{}
	}
	return set, nil
}

// Months returns the month columns in extract order.
func (s *Set) Months() []string {
	out := make([]string, len(s.months))
	copy(out, s.months)
	return out
}

// Terms returns the quoted terms (months) for a curve, ascending.
func (s *Set) Terms(economy string, scen int) []int {
	set := s.terms[curveKey{economy: economy, scenario: scen}]
	out := make([]int, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Quotes returns the par-yield quote set of one curve for one month: for
// each term the BEY yield is the sum of every class (treasury + spread).
func (s *Set) Quotes(economy string, scen int, month string) ([]curve.YieldQuote, error) {
	col, ok := s.monthIdx[month]
	if !ok {
		return nil, fmt.Errorf("%w: no column for month %s", ErrMissingData, month)
	}
	terms := s.Terms(economy, scen)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no rows for %s scenario %d", ErrMissingData, economy, scen)
	}

	ck := curveKey{economy: economy, scenario: scen}
	quotes := make([]curve.YieldQuote, 0, len(terms))
	for _, term := range terms {
		total := 0.0
		for _, class := range s.classes {
			values, ok := s.rows[rowKey{curveKey: ck, term: term, class: class}]
			if !ok {
				return nil, fmt.Errorf("%w: %s scenario %d term %d has no %s row", ErrMissingData, economy, scen, term, class)
			}
			cell := values[col]
			if cell == "" {
				return nil, fmt.Errorf("%w: %s scenario %d term %d %s empty in %s", ErrMissingData, economy, scen, term, class, month)
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("scenario: %s scenario %d term %d %s in %s: %w", economy, scen, term, class, month, err)
			}
			total += v
		}
		quotes = append(quotes, curve.YieldQuote{TenorMonths: term, ParYieldBEY: total})
	}
	return quotes, nil
}
