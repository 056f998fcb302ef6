package indicator

// MACD composes a fast and a slow EMA of the close and an EMA of their difference.
// With first-value EMA seeding the line, the signal and the histogram are all set
// from the first bar.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	line      float64
	histogram float64
	count     int
}

func NewMACD(fast, slow, signal int) (*MACD, error) {
	if fast <= 0 {
		return nil, configError("macd.fast", "must be positive, got %d", fast)
	}
	if slow <= 0 {
		return nil, configError("macd.slow", "must be positive, got %d", slow)
	}
	if signal <= 0 {
		return nil, configError("macd.signal", "must be positive, got %d", signal)
	}
	if fast >= slow {
		return nil, configError("macd.fast", "must be lower than macd.slow (%d >= %d)", fast, slow)
	}

	fastEMA, _ := NewEMA(fast)
	slowEMA, _ := NewEMA(slow)
	signalEMA, _ := NewEMA(signal)
	return &MACD{fast: fastEMA, slow: slowEMA, signal: signalEMA}, nil
}

func (m *MACD) Warmup() int { return 0 }

func (m *MACD) Update(price float64) {
	m.count++
	m.fast.Update(price)
	m.slow.Update(price)

	fast, _ := m.fast.Value()
	slow, _ := m.slow.Value()
	m.line = fast - slow

	m.signal.Update(m.line)
	signal, _ := m.signal.Value()
	m.histogram = m.line - signal
}

// Value returns the MACD line, the signal line and the histogram.
func (m *MACD) Value() (line, signal, histogram float64, ok bool) {
	signal, _ = m.signal.Value()
	return m.line, signal, m.histogram, m.count > 0
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
	m.line, m.histogram, m.count = 0, 0, 0
}
