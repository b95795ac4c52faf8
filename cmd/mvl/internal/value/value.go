package value

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/mvl/cashflow"
	"github.com/meenmo/mvl/config"
	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/logger"
	"github.com/meenmo/mvl/metrics"
	"github.com/meenmo/mvl/report"
	"github.com/meenmo/mvl/scenario"
	"github.com/meenmo/mvl/utils"
	"github.com/meenmo/mvl/valuation"
)

var errUsage = errors.New("usage")

// options are the command-line overrides on top of config.Config.
type options struct {
	valDate        string
	ledgerDir      string
	scenarioFile   string
	classification string
	out            string
	policy         string
	debug          bool
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "mvl value: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("value", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.valDate, "val_date", "", "Valuation date YYYY-MM-DD (required)")
	fs.StringVar(&opts.ledgerDir, "ledger", "", "Directory of *.fac ledger extracts (default $MVL_LEDGER_ROOT/<YYYYMMDD>)")
	fs.StringVar(&opts.scenarioFile, "scenario", cfg.ScenarioFile, "Scenario extract")
	fs.StringVar(&opts.classification, "classification", cfg.ClassificationFile, "YAML inflow/outflow classification (optional)")
	fs.StringVar(&opts.out, "out", cfg.OutputPath, "PV report path")
	fs.StringVar(&opts.policy, "out_of_range", cfg.OutOfRangePolicy, "Cash flows past the curve: error, truncate or flat")
	fs.BoolVar(&opts.debug, "debug", cfg.Debug, "Debug logging and flow/curve dumps next to the report")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr, fs)
		return 0
	}
	if strings.TrimSpace(opts.valDate) == "" {
		fmt.Fprintln(stderr, "mvl value: -val_date is required")
		usage(stderr, fs)
		return 2
	}

	level := cfg.LogLevel
	if opts.debug {
		level = "debug"
	}
	logger.Init(cfg.ServiceName, cfg.Env, level)
	defer logger.Sync()
	log := logger.L()
	logger.S().Debugw("value.options",
		"val_date", opts.valDate,
		"ledger", opts.ledgerDir,
		"scenario", opts.scenarioFile,
		"out_of_range", opts.policy,
	)

	metrics.StartServer(cfg.MetricsAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n, err := execute(ctx, cfg, opts, log)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "mvl value: %v\n", err)
		return 2
	}
	if err != nil {
		log.Error("value.failed", zap.Error(err))
		fmt.Fprintf(stderr, "mvl value: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "wrote %d present values to %s\n", n, opts.out)
	return 0
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mvl value -val_date 2024-12-31 [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Value every ledger deal at each projection month and write the PV report.")
	fmt.Fprintln(w, "Defaults come from the environment (MVL_*) or .env.")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

func execute(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) (int, error) {
	valDate, err := utils.DateParser(strings.TrimSpace(opts.valDate))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}

	cfg.OutOfRangePolicy = opts.policy
	vc, err := cfg.Valuation()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUsage, err)
	}

	cls := cashflow.DefaultClassification()
	if opts.classification != "" {
		if cls, err = cashflow.LoadClassification(opts.classification); err != nil {
			return 0, err
		}
	}

	ledgerDir := opts.ledgerDir
	if ledgerDir == "" {
		ledgerDir = filepath.Join(cfg.LedgerRoot, valDate.Format("20060102"))
	}

	start := time.Now()
	flows, err := cashflow.LoadDir(ledgerDir, valDate, cls)
	if err != nil {
		return 0, err
	}
	log.Info("value.ledger_loaded",
		zap.String("dir", ledgerDir),
		zap.Int("deals", len(cashflow.Deals(flows))),
		zap.Int("flows", len(flows)),
	)

	filter := scenario.DefaultFilter()
	filter.Economies = vc.Economies
	filter.Scenarios = vc.Scenarios
	set, err := scenario.Load(opts.scenarioFile, filter)
	if err != nil {
		return 0, err
	}
	log.Info("value.scenarios_loaded",
		zap.String("file", opts.scenarioFile),
		zap.Int("months", len(set.Months())),
	)

	driver, err := valuation.New(vc, set, log)
	if err != nil {
		return 0, err
	}
	results, err := driver.Run(ctx, valDate, flows)
	if err != nil {
		return 0, err
	}

	if err := report.WriteResultsFile(opts.out, results); err != nil {
		return 0, err
	}
	if opts.debug {
		if err := writeDebug(opts.out, valDate, vc, set, flows); err != nil {
			return 0, err
		}
	}

	log.Info("value.completed",
		zap.String("out", opts.out),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return len(results), nil
}

// writeDebug dumps the loaded flows and the valuation-month curves next to
// the report.
func writeDebug(out string, valDate time.Time, vc valuation.Config, src valuation.QuoteSource, flows []cashflow.Flow) error {
	dir := filepath.Dir(out)

	if err := writeFile(filepath.Join(dir, "out_epl.csv"), func(w io.Writer) error {
		return report.WriteFlows(w, flows)
	}); err != nil {
		return err
	}

	month := utils.YYYYMM(valDate)
	for _, economy := range vc.Economies {
		for _, scen := range vc.Scenarios {
			quotes, err := src.Quotes(economy, scen, month)
			if err != nil {
				return err
			}
			crv, err := curve.Build(quotes, vc.Curve)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("out_curve_%s_%d_%s.csv", economy, scen, month)
			if err := writeFile(filepath.Join(dir, name), func(w io.Writer) error {
				return report.WriteCurve(w, crv)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("debug dump: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("debug dump %s: %w", path, err)
	}
	return f.Close()
}
