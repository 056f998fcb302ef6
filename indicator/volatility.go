package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rodrigo-brito/taengine/model"
)

// Bollinger computes bands at mid ± k·σ, where mid is the simple average of the last
// period closes and σ their population standard deviation.
type Bollinger struct {
	period     int
	multiplier float64
	closes     *window
	scratch    []float64

	middle, upper, lower, width float64
}

func NewBollinger(period int, multiplier float64) (*Bollinger, error) {
	if period <= 0 {
		return nil, configError("bollinger.period", "must be positive, got %d", period)
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return nil, configError("bollinger.mult", "must be a positive number, got %v", multiplier)
	}
	return &Bollinger{
		period:     period,
		multiplier: multiplier,
		closes:     newWindow(period),
		scratch:    make([]float64, 0, period),
	}, nil
}

func (b *Bollinger) Warmup() int { return b.period - 1 }

func (b *Bollinger) Update(price float64) {
	b.closes.push(price)
	if !b.closes.full() {
		return
	}

	// the middle band shares the window sum of SMA so both columns agree bit for bit
	_, sigma := stat.PopMeanStdDev(b.closes.values(b.scratch), nil)
	b.middle = b.closes.sum() / float64(b.period)
	b.upper = b.middle + b.multiplier*sigma
	b.lower = b.middle - b.multiplier*sigma
	b.width = (b.upper - b.lower) / b.middle * 100
}

// Value returns the middle, upper and lower bands and the band width in percent of
// the middle band.
func (b *Bollinger) Value() (middle, upper, lower, width float64, ok bool) {
	return b.middle, b.upper, b.lower, b.width, b.closes.full()
}

func (b *Bollinger) Reset() {
	b.closes.reset()
	b.middle, b.upper, b.lower, b.width = 0, 0, 0, 0
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|). Without a
// previous close the range of the bar itself is used.
func TrueRange(bar model.PriceBar, prevClose float64, hasPrev bool) float64 {
	tr := bar.High - bar.Low
	if !hasPrev {
		return tr
	}
	return math.Max(tr, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// ATR is the simple average of the true range over period bars. It does not use
// Wilder's smoothing.
type ATR struct {
	ranges    *SMA
	prevClose float64
	hasPrev   bool
}

func NewATR(period int) (*ATR, error) {
	if period <= 0 {
		return nil, configError("atr.period", "must be positive, got %d", period)
	}
	ranges, _ := NewSMA(period)
	return &ATR{ranges: ranges}, nil
}

func (a *ATR) Period() int { return a.ranges.Period() }

func (a *ATR) Warmup() int { return a.ranges.Warmup() }

func (a *ATR) Update(bar model.PriceBar) {
	a.ranges.Update(TrueRange(bar, a.prevClose, a.hasPrev))
	a.prevClose = bar.Close
	a.hasPrev = true
}

func (a *ATR) Value() (float64, bool) {
	return a.ranges.Value()
}

func (a *ATR) Reset() {
	a.ranges.Reset()
	a.prevClose = 0
	a.hasPrev = false
}
