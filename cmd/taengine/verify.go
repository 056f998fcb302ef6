package main

import (
	"math"

	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/indicator/reference"
	"github.com/rodrigo-brito/taengine/model"
)

type check struct {
	name string
	diff reference.Diff
}

// verify computes the indicators of bars that TA-Lib implements with the same
// conventions and measures the difference. The stochastic rows built on a flat window
// are left out, TA-Lib gives 0 there instead of 50.
func verify(bars []model.PriceBar, config indicator.Config) ([]check, error) {
	df := model.NewDataframe("", bars)
	var checks []check

	for _, period := range config.SMAPeriods {
		values, err := indicator.SMASeries(df.Close, period)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check{indicator.SMAColumn(period), reference.Compare(values, reference.SMA(df.Close, period))})
	}

	rsi, err := indicator.RSISeries(df.Close, config.RSIPeriod)
	if err != nil {
		return nil, err
	}
	checks = append(checks, check{indicator.RSIColumn(config.RSIPeriod),
		reference.Compare(rsi, reference.RSI(df.Close, config.RSIPeriod))})

	bands, err := indicator.BollingerSeries(df.Close, config.Bollinger.Period, config.Bollinger.Multiplier)
	if err != nil {
		return nil, err
	}
	upper, middle, lower := reference.BB(df.Close, config.Bollinger.Period, config.Bollinger.Multiplier)
	checks = append(checks,
		check{indicator.ColumnBBUpper, reference.Compare(bands.Upper, upper)},
		check{indicator.ColumnBBMiddle, reference.Compare(bands.Middle, middle)},
		check{indicator.ColumnBBLower, reference.Compare(bands.Lower, lower)},
	)

	ranges, err := indicator.TrueRangeSeries(bars)
	if err != nil {
		return nil, err
	}
	trueRange := make([]*float64, len(ranges))
	for i := range ranges {
		trueRange[i] = model.Float(ranges[i])
	}
	checks = append(checks, check{"true_range", reference.Compare(trueRange, reference.TrueRange(df.High, df.Low, df.Close))})

	k, d, err := indicator.StochasticSeries(bars, config.Stochastic.Period, config.Stochastic.Signal)
	if err != nil {
		return nil, err
	}
	expectedK, expectedD := reference.StochF(df.High, df.Low, df.Close, config.Stochastic.Period, config.Stochastic.Signal)
	k, d = maskFlat(bars, k, d, config.Stochastic.Period, config.Stochastic.Signal)
	checks = append(checks,
		check{indicator.ColumnStochK, reference.Compare(k, expectedK)},
		check{indicator.ColumnStochD, reference.Compare(d, expectedD)},
	)

	return checks, nil
}

// maskFlat clears %K where the trailing period has no range, and %D where any of the
// %K values it averages was cleared.
func maskFlat(bars []model.PriceBar, k, d []*float64, period, signal int) (maskedK, maskedD []*float64) {
	maskedK = append([]*float64(nil), k...)
	maskedD = append([]*float64(nil), d...)

	flat := make([]bool, len(bars))
	for i := period - 1; i < len(bars); i++ {
		window := bars[i-period+1 : i+1]
		high, low := window[0].High, window[0].Low
		for _, bar := range window[1:] {
			high = math.Max(high, bar.High)
			low = math.Min(low, bar.Low)
		}
		flat[i] = high == low
	}

	lastFlat := -1
	for i := range bars {
		if flat[i] {
			maskedK[i] = nil
			lastFlat = i
		}
		if lastFlat >= 0 && i-lastFlat < signal {
			maskedD[i] = nil
		}
	}
	return maskedK, maskedD
}
