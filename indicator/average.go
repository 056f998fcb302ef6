package indicator

// SMA is a simple moving average over the last period values.
type SMA struct {
	period  int
	values  *window
	current float64
}

// NewSMA creates a simple moving average. The value is unset until period values
// were received.
func NewSMA(period int) (*SMA, error) {
	if period <= 0 {
		return nil, configError("sma.period", "must be positive, got %d", period)
	}
	return &SMA{period: period, values: newWindow(period)}, nil
}

func (s *SMA) Period() int { return s.period }

// Warmup is the number of leading unset values.
func (s *SMA) Warmup() int { return s.period - 1 }

func (s *SMA) Update(v float64) {
	s.values.push(v)
	if s.values.full() {
		s.current = s.values.sum() / float64(s.period)
	}
}

func (s *SMA) Value() (float64, bool) {
	return s.current, s.values.full()
}

func (s *SMA) Reset() {
	s.values.reset()
	s.current = 0
}

// EMA is an exponential moving average seeded with the first value, so it is set
// from the first update onwards.
type EMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
}

func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, configError("ema.period", "must be positive, got %d", period)
	}
	return &EMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}, nil
}

func (e *EMA) Period() int { return e.period }

func (e *EMA) Warmup() int { return 0 }

func (e *EMA) Update(v float64) {
	e.count++
	if e.count == 1 {
		e.current = v
		return
	}
	e.current = v*e.multiplier + e.current*(1-e.multiplier)
}

func (e *EMA) Value() (float64, bool) {
	return e.current, e.count > 0
}

func (e *EMA) Reset() {
	e.current = 0
	e.count = 0
}
