package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// PriceBar is one OHLCV observation of a symbol. Bars are immutable once observed,
// a corrected bar is a new input.
type PriceBar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (b PriceBar) Empty() bool {
	return b.Symbol == "" && b.Close == 0 && b.Open == 0 && b.Volume == 0
}

// TypicalPrice returns (high + low + close) / 3.
func (b PriceBar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// ToSlice formats the bar in the CSV layout read by the feed package:
// time, open, close, low, high, volume.
func (b PriceBar) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", b.Time.Unix()),
		strconv.FormatFloat(b.Open, 'f', precision, 64),
		strconv.FormatFloat(b.Close, 'f', precision, 64),
		strconv.FormatFloat(b.Low, 'f', precision, 64),
		strconv.FormatFloat(b.High, 'f', precision, 64),
		strconv.FormatFloat(b.Volume, 'f', precision, 64),
	}
}

// HeikinAshi keeps the previous smoothed bar of a series.
type HeikinAshi struct {
	PreviousBar PriceBar
}

func NewHeikinAshi() *HeikinAshi {
	return &HeikinAshi{}
}

func (ha *HeikinAshi) Calculate(b PriceBar) PriceBar {
	openValue := ha.PreviousBar.Open
	closeValue := ha.PreviousBar.Close
	if ha.PreviousBar.Empty() {
		openValue = b.Open
		closeValue = b.Close
	}

	smoothed := b
	smoothed.Open = (openValue + closeValue) / 2
	smoothed.Close = (b.Open + b.High + b.Low + b.Close) / 4
	smoothed.High = math.Max(b.High, math.Max(smoothed.Open, smoothed.Close))
	smoothed.Low = math.Min(b.Low, math.Min(smoothed.Open, smoothed.Close))
	ha.PreviousBar = smoothed

	return smoothed
}

// IndicatorRecord is the output of one bar. Values holds one entry per configured
// column; a nil entry means the indicator has not finished its warm-up yet.
type IndicatorRecord struct {
	Symbol string              `json:"symbol"`
	Time   time.Time           `json:"time"`
	Values map[string]*float64 `json:"values"`
}

// Get returns the value of a column and whether it is set.
func (r IndicatorRecord) Get(column string) (float64, bool) {
	v, ok := r.Values[column]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Ready reports whether every given column holds a value.
func (r IndicatorRecord) Ready(columns ...string) bool {
	for _, column := range columns {
		if _, ok := r.Get(column); !ok {
			return false
		}
	}
	return true
}

// Columns returns the record column names in lexical order.
func (r IndicatorRecord) Columns() []string {
	columns := make([]string, 0, len(r.Values))
	for column := range r.Values {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func (r IndicatorRecord) Less(j Item) bool {
	other := j.(IndicatorRecord)
	if !r.Time.Equal(other.Time) {
		return r.Time.Before(other.Time)
	}
	return r.Symbol < other.Symbol
}

// Float returns a pointer to v, handy to fill IndicatorRecord values.
func Float(v float64) *float64 {
	return &v
}

// Dataframe is a columnar view of a bar series.
type Dataframe struct {
	Symbol string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]
}

func NewDataframe(symbol string, bars []PriceBar) Dataframe {
	df := Dataframe{
		Symbol: symbol,
		Close:  make(Series[float64], 0, len(bars)),
		Open:   make(Series[float64], 0, len(bars)),
		High:   make(Series[float64], 0, len(bars)),
		Low:    make(Series[float64], 0, len(bars)),
		Volume: make(Series[float64], 0, len(bars)),
	}
	for _, bar := range bars {
		df.Close = append(df.Close, bar.Close)
		df.Open = append(df.Open, bar.Open)
		df.High = append(df.High, bar.High)
		df.Low = append(df.Low, bar.Low)
		df.Volume = append(df.Volume, bar.Volume)
	}
	return df
}
