package indicator

import "github.com/rodrigo-brito/taengine/model"

// RSI is the Relative Strength Index with Wilder's smoothing.
//
// The first period deltas are accumulated and averaged to seed the gain and loss
// averages (first value at index period), after that each update applies
//
//	avg = (avg * (period-1) + delta) / period
//
// An average loss of zero yields 100.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, configError("rsi.period", "must be positive, got %d", period)
	}
	return &RSI{period: period}, nil
}

func (r *RSI) Period() int { return r.period }

func (r *RSI) Warmup() int { return r.period }

func (r *RSI) Update(price float64) {
	r.count++
	if r.count == 1 {
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count <= r.period+1 {
		r.avgGain += gain
		r.avgLoss += loss
		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = relativeStrength(r.avgGain, r.avgLoss)
		}
		return
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = relativeStrength(r.avgGain, r.avgLoss)
}

func (r *RSI) Value() (float64, bool) {
	return r.current, r.count > r.period
}

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}

func relativeStrength(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// neutralStochastic is the %K of a window without range (highest == lowest).
const neutralStochastic = 50.0

// Stochastic is the fast stochastic oscillator: %K over the trailing period bars and
// %D as the simple average of the last signal %K values.
type Stochastic struct {
	period int
	signal int
	highs  *window
	lows   *window
	k      float64
	d      *SMA

	scratch []float64
}

func NewStochastic(period, signal int) (*Stochastic, error) {
	if period <= 0 {
		return nil, configError("stochastic.period", "must be positive, got %d", period)
	}
	if signal <= 0 {
		return nil, configError("stochastic.signal", "must be positive, got %d", signal)
	}
	d, err := NewSMA(signal)
	if err != nil {
		return nil, err
	}
	return &Stochastic{
		period:  period,
		signal:  signal,
		highs:   newWindow(period),
		lows:    newWindow(period),
		d:       d,
		scratch: make([]float64, 0, period),
	}, nil
}

// Warmup returns the leading unset values of %K and %D.
func (s *Stochastic) Warmup() (k, d int) {
	return s.period - 1, s.period - 1 + s.signal - 1
}

func (s *Stochastic) Update(bar model.PriceBar) {
	s.highs.push(bar.High)
	s.lows.push(bar.Low)
	if !s.highs.full() {
		return
	}

	highest := s.highs.values(s.scratch).Max()
	lowest := s.lows.values(s.scratch).Min()
	if highest == lowest {
		s.k = neutralStochastic
	} else {
		s.k = 100 * (bar.Close - lowest) / (highest - lowest)
	}
	s.d.Update(s.k)
}

// Value returns %K and %D with their readiness.
func (s *Stochastic) Value() (k float64, kOK bool, d float64, dOK bool) {
	d, dOK = s.d.Value()
	return s.k, s.highs.full(), d, dOK
}

func (s *Stochastic) Reset() {
	s.highs.reset()
	s.lows.reset()
	s.d.Reset()
	s.k = 0
}
