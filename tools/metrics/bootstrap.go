// Package metrics summarizes indicator columns: descriptive statistics of the values
// and a bootstrap confidence interval of any measure over them.
package metrics

import (
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// BootstrapInterval is the result of Bootstrap.
//
// Mean and StdDev describe the distribution of the measure over the resamples, not the
// raw values. Lower and Upper bound the range where the measure of the whole population
// falls with the requested confidence, eg. with 0.95 the true mean of an RSI column is
// expected between Lower and Upper 95 times out of 100.
type BootstrapInterval struct {
	Lower  float64
	Upper  float64
	StdDev float64
	Mean   float64
}

// Bootstrap estimates the confidence interval of measure by resampling values with
// replacement sampleSize times.
//
// values is the observed sample, eg. every rsi_14 of a symbol. measure reduces one
// resample to a number (stat.Mean, a median, a max). sampleSize is the number of
// resamples drawn; confidence lies in (0, 1).
func Bootstrap(values []float64, measure func([]float64) float64, sampleSize int,
	confidence float64) BootstrapInterval {
	if len(values) == 0 || sampleSize <= 0 {
		return BootstrapInterval{}
	}

	// Every resample has the size of the original sample and is drawn with
	// replacement, so a value can appear several times or not at all. The spread of
	// measure across resamples approximates its sampling distribution.
	data := make([]float64, 0, sampleSize)
	for i := 0; i < sampleSize; i++ {
		samples := make([]float64, len(values))
		for j := range values {
			samples[j] = lo.Sample(values)
		}
		data = append(data, measure(samples))
	}

	// tail is the probability left outside the interval, split evenly between both
	// sides: 0.95 confidence keeps the 2.5% and 97.5% quantiles as bounds.
	// stat.Quantile requires sorted input.
	tail := 1 - confidence
	sort.Float64s(data)
	mean, stdDev := stat.MeanStdDev(data, nil)
	upper := stat.Quantile(1-tail/2, stat.LinInterp, data, nil)
	lower := stat.Quantile(tail/2, stat.LinInterp, data, nil)

	return BootstrapInterval{
		Lower:  lower,
		Upper:  upper,
		StdDev: stdDev,
		Mean:   mean,
	}
}
