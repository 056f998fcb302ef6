// Package export writes stored indicator records to CSV, one row per symbol and time.
package export

import (
	"context"
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"

	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/storage"
	"github.com/rodrigo-brito/taengine/tools/log"
)

const batchSize = 500

type Exporter struct {
	source storage.Storage
}

func NewExporter(source storage.Storage) Exporter {
	return Exporter{source: source}
}

type Parameters struct {
	Start     time.Time
	End       time.Time
	Symbol    string
	Columns   []string
	ReadyOnly bool
	Precision int
	Progress  bool
}

type Option func(*Parameters)

func WithInterval(start, end time.Time) Option {
	return func(parameters *Parameters) {
		parameters.Start = start
		parameters.End = end
	}
}

func WithSymbol(symbol string) Option {
	return func(parameters *Parameters) {
		parameters.Symbol = symbol
	}
}

// WithColumns sets the exported columns and their order. By default every stored
// column is exported in lexical order.
func WithColumns(columns ...string) Option {
	return func(parameters *Parameters) {
		parameters.Columns = columns
	}
}

// WithReadyOnly skips the rows where one of the exported columns is unset.
func WithReadyOnly() Option {
	return func(parameters *Parameters) {
		parameters.ReadyOnly = true
	}
}

// WithPrecision sets the number of decimals, -1 writes the shortest exact form.
func WithPrecision(precision int) Option {
	return func(parameters *Parameters) {
		parameters.Precision = precision
	}
}

func WithProgress(enabled bool) Option {
	return func(parameters *Parameters) {
		parameters.Progress = enabled
	}
}

func header(columns []string) []string {
	return append([]string{"symbol", "time"}, columns...)
}

func row(record model.IndicatorRecord, columns []string, precision int) []string {
	line := make([]string, 0, len(columns)+2)
	line = append(line, record.Symbol, record.Time.UTC().Format(time.RFC3339))
	for _, column := range columns {
		value, ok := record.Get(column)
		if !ok {
			line = append(line, "")
			continue
		}
		line = append(line, strconv.FormatFloat(value, 'f', precision, 64))
	}
	return line
}

// Export writes the matching records to output, nil values as empty cells.
func (e Exporter) Export(ctx context.Context, output string, options ...Option) error {
	parameters := &Parameters{Precision: -1}
	for _, option := range options {
		option(parameters)
	}

	var filters []storage.RecordFilter
	if parameters.Symbol != "" {
		filters = append(filters, storage.WithSymbol(parameters.Symbol))
	}
	if !parameters.Start.IsZero() || !parameters.End.IsZero() {
		end := parameters.End
		if end.IsZero() {
			end = time.Now()
		}
		filters = append(filters, storage.WithTimeBetween(parameters.Start, end))
	}

	records, err := e.source.Records(filters...)
	if err != nil {
		return err
	}

	columns := parameters.Columns
	if len(columns) == 0 {
		columns = lo.Uniq(lo.FlatMap(records, func(record model.IndicatorRecord, _ int) []string {
			return record.Columns()
		}))
		sort.Strings(columns)
	}
	if parameters.ReadyOnly {
		records = lo.Filter(records, func(record model.IndicatorRecord, _ int) bool {
			return record.Ready(columns...)
		})
	}

	recordFile, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "create %s", output)
	}
	defer recordFile.Close()

	log.Infof("Exporting %d records to %s", len(records), output)
	writer := csv.NewWriter(recordFile)
	progressBar := progressbar.NewOptions64(int64(len(records)),
		progressbar.OptionSetDescription("exporting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(parameters.Progress),
	)

	if err = writer.Write(header(columns)); err != nil {
		return err
	}

	for _, batch := range lo.Chunk(records, batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, record := range batch {
			if err := writer.Write(row(record, columns, parameters.Precision)); err != nil {
				return errors.Wrapf(err, "write %s", output)
			}
		}
		if err := progressBar.Add(len(batch)); err != nil {
			log.Warnf("update progressbar fail: %s", err.Error())
		}
	}

	if err = progressBar.Close(); err != nil {
		log.Warnf("close progressbar fail: %s", err.Error())
	}

	writer.Flush()
	return writer.Error()
}
