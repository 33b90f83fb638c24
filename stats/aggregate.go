// Package stats reduces measurements to summary statistics.
package stats

import (
	"math"
	"sort"

	mstats "github.com/aclements/go-moremath/stats"

	"imgbench/model"
)

// Aggregate summarises a set of measurements. The latency figures are taken
// over successful entries only; SuccessRate over all of them.
type Aggregate struct {
	Count       int     `json:"count" yaml:"count"`
	Successes   int     `json:"successes" yaml:"successes"`
	Mean        float64 `json:"mean" yaml:"mean"`
	Median      float64 `json:"median" yaml:"median"`
	Min         float64 `json:"min" yaml:"min"`
	Max         float64 `json:"max" yaml:"max"`
	StdDev      float64 `json:"stddev" yaml:"stddev"`
	SuccessRate float64 `json:"successRate" yaml:"success_rate"`
}

// Compute aggregates ms. It never returns NaN: with no successes every
// latency figure is 0.
func Compute(ms []model.Measurement) Aggregate {
	agg := Aggregate{Count: len(ms)}
	xs := Latencies(ms)
	agg.Successes = len(xs)

	if agg.Count > 0 {
		agg.SuccessRate = float64(agg.Successes) / float64(agg.Count) * 100
	}

	if len(xs) == 0 {
		return agg
	}

	agg.Mean = mstats.Mean(xs)
	agg.Min, agg.Max = mstats.Bounds(xs)
	agg.Median = median(xs)
	agg.StdDev = populationStdDev(xs, agg.Mean)

	return agg
}

// Latencies returns the elapsed times of the successful entries in order.
func Latencies(ms []model.Measurement) []float64 {
	var xs []float64

	for _, m := range ms {
		if m.Succeeded {
			xs = append(xs, m.ElapsedMs)
		}
	}

	return xs
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	n := len(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// population variance: divides by N, not N-1
func populationStdDev(xs []float64, mean float64) float64 {
	var sum float64

	for _, x := range xs {
		d := x - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(xs)))
}
