package zcb

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/mvl/curve"
)

// CurveInput defines the JSON input schema.
//
// Conventions:
// - yields are BEY in percent (e.g., 4.50 means 4.50%)
// - floor and periods_per_year are optional (0 means the default)
type CurveInput struct {
	Quotes         []curve.YieldQuote `json:"quotes"`
	Floor          float64            `json:"floor"`
	PeriodsPerYear int                `json:"periods_per_year"`
	MaxTenorMonths int                `json:"max_tenor_months"`
}

type CurveOutput struct {
	Points         []curve.MonthlyCurvePoint `json:"points,omitempty"`
	FlooredMonths  []int                     `json:"floored_months,omitempty"`
	Floor          float64                   `json:"floor,omitempty"`
	PeriodsPerYear int                       `json:"periods_per_year,omitempty"`
	Error          string                    `json:"error,omitempty"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("zcb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	inputBytes, err := readInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}

	var input CurveInput
	if err := json.Unmarshal(inputBytes, &input); err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse JSON input: %v", err))
	}

	output, err := buildCurve(input)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mvl zcb < input.json")
	fmt.Fprintln(w, "  mvl zcb -input /path/to/input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read par-yield quotes as JSON, bootstrap the monthly curve, output JSON to stdout.")
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) int {
	output := CurveOutput{Error: msg}
	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

func buildCurve(input CurveInput) (*CurveOutput, error) {
	if len(input.Quotes) == 0 {
		return nil, fmt.Errorf("quotes is required")
	}

	cfg := curve.DefaultConfig
	if input.Floor != 0 {
		cfg.Floor = input.Floor
	}
	if input.PeriodsPerYear != 0 {
		cfg.PeriodsPerYear = input.PeriodsPerYear
	}
	if input.MaxTenorMonths != 0 {
		cfg.MaxTenorMonths = input.MaxTenorMonths
	}

	crv, err := curve.Build(input.Quotes, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build curve: %v", err)
	}

	used := crv.Config()
	return &CurveOutput{
		Points:         crv.Points(),
		FlooredMonths:  crv.FlooredMonths(),
		Floor:          used.Floor,
		PeriodsPerYear: used.PeriodsPerYear,
	}, nil
}
