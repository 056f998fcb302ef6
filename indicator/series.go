package indicator

import "github.com/rodrigo-brito/taengine/model"

// The batch helpers below replay a whole series through the streaming indicators.
// Output slices have the length of the input, nil marks warm-up positions.

func checkFinite(series []float64) error {
	for i, v := range series {
		if !model.Finite(v) {
			return &DataError{Index: i, Reason: "non-finite value"}
		}
	}
	return nil
}

func collect(n int, update func(i int), value func() (float64, bool)) []*float64 {
	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		update(i)
		if v, ok := value(); ok {
			out[i] = model.Float(v)
		}
	}
	return out
}

// SMASeries returns the simple moving average of series.
func SMASeries(series []float64, period int) ([]*float64, error) {
	sma, err := NewSMA(period)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(series); err != nil {
		return nil, err
	}
	return collect(len(series), func(i int) { sma.Update(series[i]) }, sma.Value), nil
}

// EMASeries returns the exponential moving average of series, set from index 0.
func EMASeries(series []float64, period int) ([]*float64, error) {
	ema, err := NewEMA(period)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(series); err != nil {
		return nil, err
	}
	return collect(len(series), func(i int) { ema.Update(series[i]) }, ema.Value), nil
}

// RSISeries returns the Wilder RSI of series, set from index period.
func RSISeries(series []float64, period int) ([]*float64, error) {
	rsi, err := NewRSI(period)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(series); err != nil {
		return nil, err
	}
	return collect(len(series), func(i int) { rsi.Update(series[i]) }, rsi.Value), nil
}

// MACDSeries returns the MACD line, signal line and histogram of series.
func MACDSeries(series []float64, fast, slow, signal int) (line, signalLine, histogram []*float64, err error) {
	macd, err := NewMACD(fast, slow, signal)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkFinite(series); err != nil {
		return nil, nil, nil, err
	}

	line = make([]*float64, len(series))
	signalLine = make([]*float64, len(series))
	histogram = make([]*float64, len(series))
	for i, v := range series {
		macd.Update(v)
		l, s, h, ok := macd.Value()
		if ok {
			line[i], signalLine[i], histogram[i] = model.Float(l), model.Float(s), model.Float(h)
		}
	}
	return line, signalLine, histogram, nil
}

// Bands holds the Bollinger series of BollingerSeries.
type Bands struct {
	Middle, Upper, Lower, Width []*float64
}

// BollingerSeries returns the Bollinger bands of series. Width is relative to the middle
// band and stays nil on a window whose mean is zero.
func BollingerSeries(series []float64, period int, multiplier float64) (Bands, error) {
	bands, err := NewBollinger(period, multiplier)
	if err != nil {
		return Bands{}, err
	}
	if err := checkFinite(series); err != nil {
		return Bands{}, err
	}

	out := Bands{
		Middle: make([]*float64, len(series)),
		Upper:  make([]*float64, len(series)),
		Lower:  make([]*float64, len(series)),
		Width:  make([]*float64, len(series)),
	}
	for i, v := range series {
		bands.Update(v)
		middle, upper, lower, width, ok := bands.Value()
		if ok {
			out.Middle[i], out.Upper[i] = model.Float(middle), model.Float(upper)
			out.Lower[i] = model.Float(lower)
			if middle != 0 {
				out.Width[i] = model.Float(width)
			}
		}
	}
	return out, nil
}

func checkBars(bars []model.PriceBar) error {
	for i, bar := range bars {
		if !model.Finite(bar.Open, bar.High, bar.Low, bar.Close, bar.Volume) {
			return &DataError{Symbol: bar.Symbol, Time: bar.Time, Index: i, Reason: "non-finite value"}
		}
	}
	return nil
}

// StochasticSeries returns %K and %D of bars.
func StochasticSeries(bars []model.PriceBar, period, signal int) (k, d []*float64, err error) {
	stoch, err := NewStochastic(period, signal)
	if err != nil {
		return nil, nil, err
	}
	if err := checkBars(bars); err != nil {
		return nil, nil, err
	}

	k = make([]*float64, len(bars))
	d = make([]*float64, len(bars))
	for i, bar := range bars {
		stoch.Update(bar)
		kv, kOK, dv, dOK := stoch.Value()
		if kOK {
			k[i] = model.Float(kv)
		}
		if dOK {
			d[i] = model.Float(dv)
		}
	}
	return k, d, nil
}

// TrueRangeSeries returns the true range of every bar, the first one being its
// high-low range.
func TrueRangeSeries(bars []model.PriceBar) ([]float64, error) {
	if err := checkBars(bars); err != nil {
		return nil, err
	}
	out := make([]float64, len(bars))
	for i, bar := range bars {
		if i == 0 {
			out[i] = TrueRange(bar, 0, false)
			continue
		}
		out[i] = TrueRange(bar, bars[i-1].Close, true)
	}
	return out, nil
}

// ATRSeries returns the simple average true range of bars.
func ATRSeries(bars []model.PriceBar, period int) ([]*float64, error) {
	atr, err := NewATR(period)
	if err != nil {
		return nil, err
	}
	if err := checkBars(bars); err != nil {
		return nil, err
	}
	return collect(len(bars), func(i int) { atr.Update(bars[i]) }, atr.Value), nil
}

// VWAPSeries returns the cumulative VWAP of bars as a single session.
func VWAPSeries(bars []model.PriceBar) ([]*float64, error) {
	if err := checkBars(bars); err != nil {
		return nil, err
	}
	vwap := NewVWAP()
	return collect(len(bars), func(i int) { vwap.Update(bars[i]) }, vwap.Value), nil
}
