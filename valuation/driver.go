package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/mvl/cashflow"
	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/logger"
	"github.com/meenmo/mvl/metrics"
	"github.com/meenmo/mvl/utils"
)

// QuoteSource supplies the par-yield quote set of one curve for one month
// (YYYYMM). *scenario.Set satisfies it.
type QuoteSource interface {
	Quotes(economy string, scenario int, month string) ([]curve.YieldQuote, error)
}

// Result is the present value of one deal at one projection month.
type Result struct {
	Deal       string
	Economy    string
	Scenario   int
	Projection int    // months after the valuation date
	Month      string // YYYYMM of the projection month
	PV         decimal.Decimal
}

// Driver values cash-flow cohorts against monthly zero-coupon curves.
type Driver struct {
	cfg Config
	src QuoteSource
	log *zap.Logger
}

// New validates cfg and returns a driver. A nil logger logs nothing.
func New(cfg Config, src QuoteSource, log *zap.Logger) (*Driver, error) {
	if src == nil {
		return nil, fmt.Errorf("valuation: nil quote source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{cfg: cfg, src: src, log: logger.OrNop(log)}, nil
}

type task struct {
	economy    string
	scenario   int
	projection int
	month      string
	deal       string
}

// Run values every deal at every projection month t = 0..ProjectionMonths,
// for every configured economy and scenario. At projection t a flow with
// offset k is discounted with the curve of month valDate+t at k-t months;
// flows with k-t <= 0 have been paid and are skipped.
//
// Results are ordered by economy, scenario, projection and deal. Any curve or
// lookup error aborts the run; no partial results are returned.
func (d *Driver) Run(ctx context.Context, valDate time.Time, flows []cashflow.Flow) ([]Result, error) {
	start := time.Now()
	byDeal := cashflow.GroupByDeal(flows)
	deals := cashflow.Deals(flows)

	var tasks []task
	for _, economy := range d.cfg.Economies {
		for _, scen := range d.cfg.Scenarios {
			for t := 0; t <= d.cfg.ProjectionMonths; t++ {
				month := utils.ShiftMonth(valDate, t)
				for _, deal := range deals {
					tasks = append(tasks, task{
						economy:    economy,
						scenario:   scen,
						projection: t,
						month:      month,
						deal:       deal,
					})
				}
			}
		}
	}

	log := d.log.With(zap.String("run_id", uuid.NewString()))
	log.Info("valuation.started",
		zap.String("val_date", valDate.Format("2006-01-02")),
		zap.Int("deals", len(deals)),
		zap.Int("flows", len(flows)),
		zap.Int("projection_months", d.cfg.ProjectionMonths),
		zap.String("out_of_range", d.cfg.OutOfRange.String()),
	)

	cache := newCurveCache(func(economy string, scen int, month string) (*curve.MonthlyCurve, error) {
		return d.buildCurve(log, economy, scen, month)
	})
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i, tk := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			crv, err := cache.get(tk.economy, tk.scenario, tk.month)
			if err != nil {
				return err
			}
			pv, err := d.presentValue(crv, tk, byDeal[tk.deal])
			if err != nil {
				return err
			}
			results[i] = Result{
				Deal:       tk.deal,
				Economy:    tk.economy,
				Scenario:   tk.scenario,
				Projection: tk.projection,
				Month:      tk.month,
				PV:         pv,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("valuation.failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.ValuationResults.Add(float64(len(results)))
	log.Info("valuation.completed",
		zap.Int("results", len(results)),
		zap.Int("curves", cache.len()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// presentValue sums net cash flow times discount factor for the flows still
// outstanding at the task's projection month.
func (d *Driver) presentValue(crv *curve.MonthlyCurve, tk task, flows []cashflow.Flow) (decimal.Decimal, error) {
	pv := decimal.Zero
	for _, f := range flows {
		remaining := f.Offset - tk.projection
		if remaining <= 0 {
			continue
		}
		df, err := crv.DiscountFactor(remaining)
		if err != nil {
			if !errors.Is(err, curve.ErrOutOfRange) {
				return decimal.Zero, err
			}
			metrics.OutOfRangeCashflows.WithLabelValues(d.cfg.OutOfRange.String()).Inc()
			switch d.cfg.OutOfRange {
			case PolicyTruncate:
				continue
			case PolicyFlat:
				df = flatExtrapolate(crv, remaining)
			default:
				return decimal.Zero, fmt.Errorf("valuation: deal %s %s/%d month %s: cash flow %d months out: %w",
					tk.deal, tk.economy, tk.scenario, tk.month, remaining, err)
			}
		}
		pv = pv.Add(f.Net.Mul(decimal.NewFromFloat(df)))
	}
	return pv, nil
}

// flatExtrapolate extends the curve past its last month by holding the last
// month's zero rate: Z(n) = Z(N)^(n/N).
func flatExtrapolate(crv *curve.MonthlyCurve, month int) float64 {
	last := crv.MaxMonth()
	if last == 0 {
		return 1
	}
	zN, err := crv.DiscountFactor(last)
	if err != nil {
		return 1
	}
	return math.Pow(zN, float64(month)/float64(last))
}

func (d *Driver) buildCurve(log *zap.Logger, economy string, scen int, month string) (*curve.MonthlyCurve, error) {
	quotes, err := d.src.Quotes(economy, scen, month)
	if err != nil {
		return nil, fmt.Errorf("valuation: quotes %s/%d/%s: %w", economy, scen, month, err)
	}

	start := time.Now()
	crv, err := curve.Build(quotes, d.cfg.Curve)
	metrics.ObserveDuration(metrics.CurveBuildDuration, start)
	if err != nil {
		metrics.CurveBuildsTotal.WithLabelValues(buildStatus(err)).Inc()
		return nil, fmt.Errorf("valuation: curve %s/%d/%s: %w", economy, scen, month, err)
	}
	metrics.CurveBuildsTotal.WithLabelValues("ok").Inc()

	floored := crv.FlooredMonths()
	if len(floored) > 0 {
		metrics.FlooredDiscountFactors.Add(float64(len(floored)))
		log.Warn("valuation.curve_floored",
			zap.String("economy", economy),
			zap.Int("scenario", scen),
			zap.String("month", month),
			zap.Int("floored_months", len(floored)),
			zap.Int("first_floored", floored[0]),
		)
	}
	log.Debug("valuation.curve_built",
		zap.String("economy", economy),
		zap.Int("scenario", scen),
		zap.String("month", month),
		zap.Int("quotes", len(quotes)),
		zap.Int("max_month", crv.MaxMonth()),
	)
	return crv, nil
}

func buildStatus(err error) string {
	switch {
	case errors.Is(err, curve.ErrValidation):
		return "validation"
	case errors.Is(err, curve.ErrDomain):
		return "domain"
	default:
		return "error"
	}
}
