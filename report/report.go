package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/meenmo/mvl/cashflow"
	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/utils"
	"github.com/meenmo/mvl/valuation"
)

// ResultHeader is the header row of the PV report.
var ResultHeader = []string{"DEAL_NAME", "ECONOMY", "SCENARIO", "MONTHS", "PV"}

// WriteResults writes one row per result: MONTHS is the projection month as
// YYYYMM and PV is rounded to cents.
func WriteResults(w io.Writer, results []valuation.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Deal,
			r.Economy,
			strconv.Itoa(r.Scenario),
			r.Month,
			r.PV.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile creates (or truncates) path and writes the PV report.
func WriteResultsFile(path string, results []valuation.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := WriteResults(f, results); err != nil {
		f.Close()
		return fmt.Errorf("report: %s: %w", path, err)
	}
	return f.Close()
}

// WriteFlows dumps the loaded net cash flows.
func WriteFlows(w io.Writer, flows []cashflow.Flow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"DEAL_NAME", "MONTH", "OFFSET", "NET_CF"}); err != nil {
		return err
	}
	for _, f := range flows {
		row := []string{f.Deal, utils.YYYYMM(f.Month), strconv.Itoa(f.Offset), f.Net.StringFixed(2)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCurve dumps a built curve: month, AC yield, discount factor, floor flag.
func WriteCurve(w io.Writer, c *curve.MonthlyCurve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"MONTH", "YIELD_AC", "DISCOUNT_FACTOR", "FLOORED"}); err != nil {
		return err
	}
	for _, p := range c.Points() {
		floored, err := c.Floored(p.Month)
		if err != nil {
			return err
		}
		row := []string{
			strconv.Itoa(p.Month),
			strconv.FormatFloat(p.InterpolatedYield, 'f', -1, 64),
			strconv.FormatFloat(p.DiscountFactor, 'f', -1, 64),
			strconv.FormatBool(floored),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
