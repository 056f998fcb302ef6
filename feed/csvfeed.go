// Package feed loads price bars from CSV files and resamples them to the timeframe the
// indicators are computed on.
package feed

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/StudioSol/set"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"

	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/tools/log"
)

// SymbolFeed describes the CSV file of one symbol.
type SymbolFeed struct {
	Symbol     string
	File       string
	Timeframe  string
	HeikinAshi bool
}

type CSVFeed struct {
	Feeds              map[string]SymbolFeed
	BarSymbolTimeframe map[string][]model.PriceBar
	TargetTimeframe    string
	symbols            *set.LinkedHashSetString
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// parseTime accepts unix seconds or one of timeLayouts, always in UTC.
func parseTime(value string) (time.Time, error) {
	if timestamp, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(timestamp, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", value)
}

var barColumns = []string{"time", "open", "close", "low", "high", "volume"}

// parseHeaders maps the known columns to their position. Files without a header use
// the layout time, open, close, low, high, volume. A header must name every known column.
func parseHeaders(headers []string) (index map[string]int, additional []string, ok bool, err error) {
	if _, err := parseTime(headers[0]); err == nil {
		headerMap := make(map[string]int, len(barColumns))
		for i, column := range barColumns {
			headerMap[column] = i
		}
		return headerMap, nil, false, nil
	}

	headerMap := make(map[string]int, len(headers))
	for index, h := range headers {
		if !lo.Contains(barColumns, h) {
			additional = append(additional, h)
		}
		headerMap[h] = index
	}

	missing := lo.Filter(barColumns, func(column string, _ int) bool {
		_, ok := headerMap[column]
		return !ok
	})
	if len(missing) > 0 {
		return nil, nil, true, errors.Errorf("missing columns %s", strings.Join(missing, ", "))
	}

	return headerMap, additional, true, nil
}

func readBars(feed SymbolFeed) ([]model.PriceBar, error) {
	csvFile, err := os.Open(feed.File)
	if err != nil {
		return nil, errors.Wrapf(err, "open feed of %s", feed.Symbol)
	}
	defer csvFile.Close()

	csvLines, err := csv.NewReader(csvFile).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", feed.File)
	}
	if len(csvLines) == 0 {
		return nil, nil
	}

	headerMap, additional, hasHeaders, err := parseHeaders(csvLines[0])
	if err != nil {
		return nil, errors.Wrapf(err, "header of %s", feed.File)
	}
	if hasHeaders {
		csvLines = csvLines[1:]
		if len(additional) > 0 {
			log.WithField("symbol", feed.Symbol).Debugf("ignoring columns %v", additional)
		}
	}

	ha := model.NewHeikinAshi()
	bars := make([]model.PriceBar, 0, len(csvLines))
	for i, line := range csvLines {
		bar := model.PriceBar{Symbol: feed.Symbol}
		bar.Time, err = parseTime(line[headerMap["time"]])
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", feed.File, i+1)
		}

		for column, target := range map[string]*float64{
			"open":   &bar.Open,
			"close":  &bar.Close,
			"low":    &bar.Low,
			"high":   &bar.High,
			"volume": &bar.Volume,
		} {
			*target, err = strconv.ParseFloat(line[headerMap[column]], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d: %s", feed.File, i+1, column)
			}
		}

		if feed.HeikinAshi {
			bar = ha.Calculate(bar)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// NewCSVFeed reads every feed and resamples it to targetTimeframe.
func NewCSVFeed(targetTimeframe string, feeds ...SymbolFeed) (*CSVFeed, error) {
	csvFeed := &CSVFeed{
		Feeds:              make(map[string]SymbolFeed),
		BarSymbolTimeframe: make(map[string][]model.PriceBar),
		TargetTimeframe:    targetTimeframe,
		symbols:            set.NewLinkedHashSetString(),
	}

	for _, feed := range feeds {
		if feed.Timeframe == "" {
			feed.Timeframe = targetTimeframe
		}
		csvFeed.Feeds[feed.Symbol] = feed
		csvFeed.symbols.Add(feed.Symbol)

		bars, err := readBars(feed)
		if err != nil {
			return nil, err
		}
		csvFeed.BarSymbolTimeframe[csvFeed.feedTimeframeKey(feed.Symbol, feed.Timeframe)] = bars

		err = csvFeed.resample(feed.Symbol, feed.Timeframe, targetTimeframe)
		if err != nil {
			return nil, err
		}
		log.WithField("symbol", feed.Symbol).Infof("loaded %d bars from %s",
			len(csvFeed.Bars(feed.Symbol)), feed.File)
	}

	return csvFeed, nil
}

func (c CSVFeed) feedTimeframeKey(symbol, timeframe string) string {
	return fmt.Sprintf("%s--%s", symbol, timeframe)
}

// Symbols returns the feed symbols in loading order.
func (c CSVFeed) Symbols() []string {
	symbols := make([]string, 0, len(c.Feeds))
	for symbol := range c.symbols.Iter() {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// Bars returns the bars of symbol in the target timeframe.
func (c CSVFeed) Bars(symbol string) []model.PriceBar {
	return c.BarSymbolTimeframe[c.feedTimeframeKey(symbol, c.TargetTimeframe)]
}

// All returns the bars of every symbol in the target timeframe.
func (c CSVFeed) All() map[string][]model.PriceBar {
	return lo.SliceToMap(c.Symbols(), func(symbol string) (string, []model.PriceBar) {
		return symbol, c.Bars(symbol)
	})
}

// WriteCSV saves the target timeframe bars of symbol to path without a header, in the
// layout NewCSVFeed reads back. A precision of -1 keeps the shortest exact form.
func (c CSVFeed) WriteCSV(symbol, path string, precision int) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	for _, bar := range c.Bars(symbol) {
		if err := writer.Write(bar.ToSlice(precision)); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return file.Close()
}

// BarsByPeriod returns the target timeframe bars of symbol between start and end,
// both included.
func (c CSVFeed) BarsByPeriod(symbol string, start, end time.Time) []model.PriceBar {
	return lo.Filter(c.Bars(symbol), func(bar model.PriceBar, _ int) bool {
		return !bar.Time.Before(start) && !bar.Time.After(end)
	})
}

// Limit keeps only the bars of the last duration of every series.
func (c *CSVFeed) Limit(duration time.Duration) *CSVFeed {
	for key, bars := range c.BarSymbolTimeframe {
		if len(bars) == 0 {
			continue
		}
		start := bars[len(bars)-1].Time.Add(-duration)
		c.BarSymbolTimeframe[key] = lo.Filter(bars, func(bar model.PriceBar, _ int) bool {
			return bar.Time.After(start)
		})
	}
	return c
}

func isFirstBarPeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, errors.Wrapf(err, "invalid timeframe %s", fromTimeframe)
	}

	prev := t.Add(-fromDuration).UTC()
	return isLastBarPeriod(prev, fromTimeframe, targetTimeframe)
}

// isLastBarPeriod reports whether the bar at t closes a targetTimeframe period. Periods
// are aligned on the zero time, so weeks start on Monday.
func isLastBarPeriod(t time.Time, fromTimeframe, targetTimeframe string) (bool, error) {
	if fromTimeframe == targetTimeframe {
		return true, nil
	}

	fromDuration, err := str2duration.ParseDuration(fromTimeframe)
	if err != nil {
		return false, errors.Wrapf(err, "invalid timeframe %s", fromTimeframe)
	}
	targetDuration, err := str2duration.ParseDuration(targetTimeframe)
	if err != nil {
		return false, errors.Wrapf(err, "invalid timeframe %s", targetTimeframe)
	}
	if targetDuration < fromDuration || targetDuration%fromDuration != 0 {
		return false, fmt.Errorf("can not resample %s into %s", fromTimeframe, targetTimeframe)
	}

	next := t.Add(fromDuration).UTC()
	return next.Truncate(targetDuration).Equal(next), nil
}

// resample merges the source bars of symbol into targetTimeframe bars: first open,
// last close, highest high, lowest low and summed volume. Leading bars before the
// first complete period and a trailing incomplete period are dropped.
func (c *CSVFeed) resample(symbol, sourceTimeframe, targetTimeframe string) error {
	sourceKey := c.feedTimeframeKey(symbol, sourceTimeframe)
	targetKey := c.feedTimeframeKey(symbol, targetTimeframe)
	source := c.BarSymbolTimeframe[sourceKey]

	var i int
	for ; i < len(source); i++ {
		if ok, err := isFirstBarPeriod(source[i].Time, sourceTimeframe, targetTimeframe); err != nil {
			return err
		} else if ok {
			break
		}
	}

	bars := make([]model.PriceBar, 0)
	complete := true
	for ; i < len(source); i++ {
		bar := source[i]
		last, err := isLastBarPeriod(bar.Time, sourceTimeframe, targetTimeframe)
		if err != nil {
			return err
		}

		lastIndex := len(bars) - 1
		if lastIndex >= 0 && !complete {
			bar.Time = bars[lastIndex].Time
			bar.Open = bars[lastIndex].Open
			bar.High = math.Max(bars[lastIndex].High, bar.High)
			bar.Low = math.Min(bars[lastIndex].Low, bar.Low)
			bar.Volume += bars[lastIndex].Volume
			bars[lastIndex] = bar
		} else {
			bars = append(bars, bar)
		}
		complete = last
	}

	if len(bars) > 0 && !complete {
		bars = bars[:len(bars)-1]
	}

	c.BarSymbolTimeframe[targetKey] = bars
	return nil
}
