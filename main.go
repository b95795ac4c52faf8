package main

import (
	"fmt"
	"os"

	"github.com/meenmo/mvl/curve"
	"github.com/meenmo/mvl/report"
)

func main() {
	quotes := []curve.YieldQuote{
		{TenorMonths: 1, ParYieldBEY: 5.0079},
		{TenorMonths: 3, ParYieldBEY: 5.0079},
		{TenorMonths: 6, ParYieldBEY: 4.8499},
		{TenorMonths: 12, ParYieldBEY: 4.7313},
		{TenorMonths: 24, ParYieldBEY: 4.5636},
		{TenorMonths: 36, ParYieldBEY: 4.6010},
		{TenorMonths: 60, ParYieldBEY: 4.6806},
		{TenorMonths: 84, ParYieldBEY: 4.8686},
		{TenorMonths: 120, ParYieldBEY: 5.0429},
		{TenorMonths: 180, ParYieldBEY: 5.1775},
		{TenorMonths: 240, ParYieldBEY: 5.3121},
		{TenorMonths: 300, ParYieldBEY: 5.2682},
		{TenorMonths: 360, ParYieldBEY: 5.2243},
		{TenorMonths: 480, ParYieldBEY: 5.2243},
		{TenorMonths: 600, ParYieldBEY: 5.2243},
	}

	crv, err := curve.Build(quotes, curve.DefaultConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, m := range []int{1, 12, 60, 120, 360, 600} {
		df, _ := crv.DiscountFactor(m)
		zero, _ := crv.ZeroRate(m)
		fmt.Printf("Month %3d: DF %.6f  zero %.4f%%\n", m, df, zero)
	}
	fmt.Printf("Floored months: %d\n", len(crv.FlooredMonths()))

	if len(os.Args) > 1 && os.Args[1] == "-csv" {
		if err := report.WriteCurve(os.Stdout, crv); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
