// Package reference wraps TA-Lib for the indicators whose conventions match the
// streaming engine. Results use nil for the lookback positions of TA-Lib, so they can
// be compared row by row with the engine output.
//
// EMA, MACD and ATR are not wrapped: TA-Lib seeds EMA with a simple average and
// smooths ATR with Wilder's method, both differ from the engine.
package reference

import "github.com/markcheno/go-talib"

type MaType = talib.MaType

const TypeSMA = talib.SMA

func nullable(values []float64, lookback int) []*float64 {
	out := make([]*float64, len(values))
	for i := lookback; i < len(values); i++ {
		v := values[i]
		out[i] = &v
	}
	return out
}

// SMA is the TA-Lib simple moving average, set from index period-1.
func SMA(input []float64, period int) []*float64 {
	if len(input) < period {
		return make([]*float64, len(input))
	}
	return nullable(talib.Sma(input, period), period-1)
}

// RSI is the TA-Lib Wilder RSI, set from index period.
func RSI(input []float64, period int) []*float64 {
	if len(input) <= period {
		return make([]*float64, len(input))
	}
	return nullable(talib.Rsi(input, period), period)
}

// BB returns the upper, middle and lower Bollinger bands over a simple average.
// TA-Lib uses the population standard deviation as the engine does.
func BB(input []float64, period int, deviation float64) (upper, middle, lower []*float64) {
	if len(input) < period {
		empty := make([]*float64, len(input))
		return empty, empty, empty
	}
	u, m, l := talib.BBands(input, period, deviation, deviation, TypeSMA)
	return nullable(u, period-1), nullable(m, period-1), nullable(l, period-1)
}

// TrueRange is unset at index 0, TA-Lib needs a previous close.
func TrueRange(high, low, close []float64) []*float64 {
	if len(close) < 2 {
		return make([]*float64, len(close))
	}
	return nullable(talib.TRange(high, low, close), 1)
}

// StochF returns the fast stochastic %K and %D (simple average). TA-Lib starts both
// at index fastKPeriod+fastDPeriod-2 and yields 0 on a flat range where the engine
// yields 50, so compare only windows with a range.
func StochF(high, low, close []float64, fastKPeriod, fastDPeriod int) (k, d []*float64) {
	lookback := fastKPeriod - 1 + fastDPeriod - 1
	if len(close) <= lookback {
		empty := make([]*float64, len(close))
		return empty, empty
	}
	fastK, fastD := talib.StochF(high, low, close, fastKPeriod, fastDPeriod, TypeSMA)
	return nullable(fastK, lookback), nullable(fastD, lookback)
}
