package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/rodrigo-brito/taengine/model"
)

// calculator binds one indicator to its output columns.
type calculator struct {
	columns []string
	warmups []int
	update  func(bar model.PriceBar)
	collect func(values map[string]*float64)
	reset   func()
}

func setValue(values map[string]*float64, column string, v float64, ok bool) {
	if ok {
		values[column] = model.Float(v)
		return
	}
	values[column] = nil
}

func closeSMA(column string, period int, source func(model.PriceBar) float64) calculator {
	sma, _ := NewSMA(period)
	return calculator{
		columns: []string{column},
		warmups: []int{sma.Warmup()},
		update:  func(bar model.PriceBar) { sma.Update(source(bar)) },
		collect: func(values map[string]*float64) {
			v, ok := sma.Value()
			setValue(values, column, v, ok)
		},
		reset: sma.Reset,
	}
}

func closeEMA(period int) calculator {
	ema, _ := NewEMA(period)
	column := EMAColumn(period)
	return calculator{
		columns: []string{column},
		warmups: []int{ema.Warmup()},
		update:  func(bar model.PriceBar) { ema.Update(bar.Close) },
		collect: func(values map[string]*float64) {
			v, ok := ema.Value()
			setValue(values, column, v, ok)
		},
		reset: ema.Reset,
	}
}

func closeRSI(period int) calculator {
	rsi, _ := NewRSI(period)
	column := RSIColumn(period)
	return calculator{
		columns: []string{column},
		warmups: []int{rsi.Warmup()},
		update:  func(bar model.PriceBar) { rsi.Update(bar.Close) },
		collect: func(values map[string]*float64) {
			v, ok := rsi.Value()
			setValue(values, column, v, ok)
		},
		reset: rsi.Reset,
	}
}

func closeMACD(config MACDConfig) calculator {
	macd, _ := NewMACD(config.Fast, config.Slow, config.Signal)
	return calculator{
		columns: []string{ColumnMACDLine, ColumnMACDSignal, ColumnMACDHistogram},
		warmups: []int{0, 0, 0},
		update:  func(bar model.PriceBar) { macd.Update(bar.Close) },
		collect: func(values map[string]*float64) {
			line, signal, histogram, ok := macd.Value()
			setValue(values, ColumnMACDLine, line, ok)
			setValue(values, ColumnMACDSignal, signal, ok)
			setValue(values, ColumnMACDHistogram, histogram, ok)
		},
		reset: macd.Reset,
	}
}

func closeBollinger(config BollingerConfig) calculator {
	bands, _ := NewBollinger(config.Period, config.Multiplier)
	warmup := bands.Warmup()
	return calculator{
		columns: []string{ColumnBBMiddle, ColumnBBUpper, ColumnBBLower, ColumnBBWidth},
		warmups: []int{warmup, warmup, warmup, warmup},
		update:  func(bar model.PriceBar) { bands.Update(bar.Close) },
		collect: func(values map[string]*float64) {
			middle, upper, lower, width, ok := bands.Value()
			setValue(values, ColumnBBMiddle, middle, ok)
			setValue(values, ColumnBBUpper, upper, ok)
			setValue(values, ColumnBBLower, lower, ok)
			setValue(values, ColumnBBWidth, width, ok)
		},
		reset: bands.Reset,
	}
}

func barStochastic(config StochasticConfig) calculator {
	stoch, _ := NewStochastic(config.Period, config.Signal)
	kWarmup, dWarmup := stoch.Warmup()
	return calculator{
		columns: []string{ColumnStochK, ColumnStochD},
		warmups: []int{kWarmup, dWarmup},
		update:  stoch.Update,
		collect: func(values map[string]*float64) {
			k, kOK, d, dOK := stoch.Value()
			setValue(values, ColumnStochK, k, kOK)
			setValue(values, ColumnStochD, d, dOK)
		},
		reset: stoch.Reset,
	}
}

func barATR(period int) calculator {
	atr, _ := NewATR(period)
	column := ATRColumn(period)
	return calculator{
		columns: []string{column},
		warmups: []int{atr.Warmup()},
		update:  atr.Update,
		collect: func(values map[string]*float64) {
			v, ok := atr.Value()
			setValue(values, column, v, ok)
		},
		reset: atr.Reset,
	}
}

func barVWAP(vwap *VWAP) calculator {
	return calculator{
		columns: []string{ColumnVWAP},
		warmups: []int{0},
		update:  vwap.Update,
		collect: func(values map[string]*float64) {
			v, ok := vwap.Value()
			setValue(values, ColumnVWAP, v, ok)
		},
		reset: vwap.Reset,
	}
}

// Engine computes the configured indicator set over the bars of one symbol and
// assembles one IndicatorRecord per bar.
//
// An Engine is not safe for concurrent use: feed the bars of a symbol from a single
// goroutine and use one Engine per symbol to process symbols in parallel.
type Engine struct {
	symbol      string
	config      Config
	calculators []calculator
	columns     []string
	warmups     map[string]int
	vwap        *VWAP

	lastTime time.Time
	count    int
}

// NewEngine validates config and builds the indicators. An empty symbol accepts bars
// of any symbol, otherwise bars of other symbols are rejected.
func NewEngine(symbol string, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		symbol:  symbol,
		config:  config,
		warmups: make(map[string]int),
	}

	for _, period := range config.SMAPeriods {
		engine.add(closeSMA(SMAColumn(period), period, func(bar model.PriceBar) float64 { return bar.Close }))
	}
	for _, period := range config.EMAPeriods {
		engine.add(closeEMA(period))
	}
	engine.add(closeRSI(config.RSIPeriod))
	engine.add(closeMACD(config.MACD))
	engine.add(closeBollinger(config.Bollinger))
	engine.add(barStochastic(config.Stochastic))
	engine.add(barATR(config.ATRPeriod))
	engine.add(closeSMA(VolumeSMAColumn(config.VolumeSMAPeriod), config.VolumeSMAPeriod,
		func(bar model.PriceBar) float64 { return bar.Volume }))
	if config.VWAP {
		engine.vwap = NewVWAP()
		engine.add(barVWAP(engine.vwap))
	}

	return engine, nil
}

func (e *Engine) add(c calculator) {
	e.calculators = append(e.calculators, c)
	for i, column := range c.columns {
		e.columns = append(e.columns, column)
		e.warmups[column] = c.warmups[i]
	}
}

func (e *Engine) Symbol() string { return e.symbol }

func (e *Engine) Config() Config { return e.config }

// Columns returns the output columns in configuration order.
func (e *Engine) Columns() []string {
	columns := make([]string, len(e.columns))
	copy(columns, e.columns)
	return columns
}

// Warmup returns the number of leading nil values of a column.
func (e *Engine) Warmup(column string) (int, bool) {
	warmup, ok := e.warmups[column]
	return warmup, ok
}

// SlowestColumn returns the column with the longest warm-up, the first configured
// one on ties.
func (e *Engine) SlowestColumn() string {
	slowest, longest := "", -1
	for _, column := range e.columns {
		if e.warmups[column] > longest {
			slowest, longest = column, e.warmups[column]
		}
	}
	return slowest
}

// Count returns the number of bars accepted since the last reset.
func (e *Engine) Count() int { return e.count }

// Feed validates bar, updates every indicator and returns the record of the bar.
// A rejected bar returns a *DataError and leaves the engine unchanged.
func (e *Engine) Feed(bar model.PriceBar) (model.IndicatorRecord, error) {
	if err := e.Validate(bar); err != nil {
		return model.IndicatorRecord{}, err
	}

	for _, c := range e.calculators {
		c.update(bar)
	}
	e.lastTime = bar.Time
	e.count++

	record := model.IndicatorRecord{
		Symbol: bar.Symbol,
		Time:   bar.Time,
		Values: make(map[string]*float64, len(e.columns)),
	}
	if record.Symbol == "" {
		record.Symbol = e.symbol
	}
	for _, c := range e.calculators {
		c.collect(record.Values)
	}
	return record, nil
}

// Compute resets the engine and replays bars from the start, so the output only
// depends on the given series.
func (e *Engine) Compute(bars []model.PriceBar) ([]model.IndicatorRecord, error) {
	e.Reset()
	records := make([]model.IndicatorRecord, 0, len(bars))
	for _, bar := range bars {
		record, err := e.Feed(bar)
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Reset clears every indicator, the next bar starts a new series.
func (e *Engine) Reset() {
	for _, c := range e.calculators {
		c.reset()
	}
	e.lastTime = time.Time{}
	e.count = 0
}

// ResetVWAP starts a new VWAP session, other indicators keep their state.
func (e *Engine) ResetVWAP() {
	if e.vwap != nil {
		e.vwap.Reset()
	}
}

// Validate checks bar against the engine state without changing it, Feed returns the
// same error for the same bar.
func (e *Engine) Validate(bar model.PriceBar) error {
	reject := func(format string, args ...interface{}) error {
		return &DataError{
			Symbol: bar.Symbol,
			Time:   bar.Time,
			Index:  e.count,
			Reason: fmt.Sprintf(format, args...),
		}
	}

	if e.symbol != "" && bar.Symbol != "" && bar.Symbol != e.symbol {
		return reject("unexpected symbol, engine handles %s", e.symbol)
	}
	if bar.Time.IsZero() {
		return reject("missing timestamp")
	}
	if e.count > 0 && !bar.Time.After(e.lastTime) {
		return reject("timestamp not after previous bar %s", e.lastTime.Format(time.RFC3339))
	}
	if !model.Finite(bar.Open, bar.High, bar.Low, bar.Close, bar.Volume) {
		return reject("non-finite value in bar %v", []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume})
	}
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return reject("prices must be positive")
	}
	if bar.Volume < 0 {
		return reject("negative volume %v", bar.Volume)
	}
	if bar.High < bar.Low {
		return reject("high %v below low %v", bar.High, bar.Low)
	}
	if bar.Low > math.Min(bar.Open, bar.Close) || math.Max(bar.Open, bar.Close) > bar.High {
		return reject("open/close outside of the low-high range")
	}
	return nil
}

// FilterReady drops the leading records until every given column is set. It is a
// post-processing step for callers that only want fully warmed up rows.
func FilterReady(records []model.IndicatorRecord, columns ...string) []model.IndicatorRecord {
	for i, record := range records {
		if record.Ready(columns...) {
			return records[i:]
		}
	}
	return nil
}
