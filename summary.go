package taengine

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/tools/metrics"
)

const (
	histogramBins   = 15
	bootstrapSample = 1000
)

// Summary writes the statistics of column for the records of the last run.
func (b *Backfill) Summary(w io.Writer, column string) error {
	return Summarize(w, b.Records(), column)
}

// Summarize writes a per symbol table with the statistics of the set values of
// column, a histogram of all of them and the 95% confidence interval of each mean.
func Summarize(w io.Writer, records []model.IndicatorRecord, column string) error {
	bySymbol := lo.GroupBy(records, func(record model.IndicatorRecord) string {
		return record.Symbol
	})
	symbols := lo.Keys(bySymbol)
	sort.Strings(symbols)

	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"Symbol", "Bars", "Ready", "Mean", "StdDev", "Min", "P25", "Median", "P75", "Max"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	var all []float64
	values := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		values[symbol] = columnValues(bySymbol[symbol], column)
		all = append(all, values[symbol]...)
		table.Append(statsRow(symbol, len(bySymbol[symbol]), metrics.Describe(values[symbol])))
	}
	table.SetFooter(statsRow("TOTAL", len(records), metrics.Describe(all)))
	table.Render()

	if _, err := fmt.Fprintf(w, "------ %s -------\n%s\n", column, buffer.String()); err != nil {
		return err
	}
	if len(all) == 0 {
		_, err := fmt.Fprintf(w, "no value for %s\n", column)
		return err
	}

	hist := histogram.Hist(histogramBins, all)
	if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\n------ CONFIDENCE INTERVAL (95%) -------"); err != nil {
		return err
	}
	for _, symbol := range symbols {
		if len(values[symbol]) == 0 {
			continue
		}
		interval := metrics.Bootstrap(values[symbol], metrics.Mean, bootstrapSample, 0.95)
		_, err := fmt.Fprintf(w, "%s MEAN: %.4f (%.4f ~ %.4f)\n", symbol, interval.Mean, interval.Lower, interval.Upper)
		if err != nil {
			return err
		}
	}
	return nil
}

func columnValues(records []model.IndicatorRecord, column string) []float64 {
	return lo.FilterMap(records, func(record model.IndicatorRecord, _ int) (float64, bool) {
		return record.Get(column)
	})
}

func statsRow(label string, bars int, stats metrics.Stats) []string {
	format := func(v float64) string {
		if stats.Count == 0 {
			return "-"
		}
		return fmt.Sprintf("%.4f", v)
	}
	return []string{
		label,
		strconv.Itoa(bars),
		strconv.Itoa(stats.Count),
		format(stats.Mean),
		format(stats.StdDev),
		format(stats.Min),
		format(stats.P25),
		format(stats.Median),
		format(stats.P75),
		format(stats.Max),
	}
}
