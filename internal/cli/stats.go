package cli

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AmountStats summarises a series of transaction amounts. Values are
// float64 and for display only; the cache keeps exact decimals.
type AmountStats struct {
	Count    int
	Sum      float64
	Inflow   float64
	Outflow  float64
	Mean     float64
	StdDev   float64 // NaN with fewer than two values
	Min, Max float64
}

// ComputeAmountStats parses amounts and computes the summary. Unparseable
// or missing amounts are skipped.
func ComputeAmountStats(amounts []*string) AmountStats {
	values := make([]float64, 0, len(amounts))
	for _, a := range amounts {
		if a == nil {
			continue
		}
		d, err := decimal.NewFromString(*a)
		if err != nil {
			continue
		}
		values = append(values, d.InexactFloat64())
	}

	s := AmountStats{Count: len(values), StdDev: math.NaN()}
	if len(values) == 0 {
		return s
	}

	s.Sum = floats.Sum(values)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	for _, v := range values {
		if v >= 0 {
			s.Inflow += v
		} else {
			s.Outflow += v
		}
	}
	return s
}
