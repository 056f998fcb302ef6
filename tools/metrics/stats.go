package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes the distribution of the set values of a column.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Describe computes the statistics of values. An empty input gives a zero Stats, a
// single value has no deviation.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := Stats{
		Count:  len(sorted),
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		P25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		P75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
	}
	if len(sorted) == 1 {
		stats.Mean = sorted[0]
		return stats
	}
	stats.Mean, stats.StdDev = stat.MeanStdDev(sorted, nil)
	return stats
}

func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}
