// Package storage persists indicator records. Saving a record twice for the same
// symbol and time replaces the first copy, so a backfill can be replayed.
package storage

import (
	"time"

	"github.com/rodrigo-brito/taengine/model"
)

type RecordFilter func(model.IndicatorRecord) bool

type Storage interface {
	SaveRecords(records ...model.IndicatorRecord) error
	// Records returns the stored records in time order, symbol breaking ties.
	Records(filters ...RecordFilter) ([]model.IndicatorRecord, error)
	Close() error
}

func WithSymbol(symbol string) RecordFilter {
	return func(record model.IndicatorRecord) bool {
		return record.Symbol == symbol
	}
}

// WithTimeBetween keeps records from start to end, both included.
func WithTimeBetween(start, end time.Time) RecordFilter {
	return func(record model.IndicatorRecord) bool {
		return !record.Time.Before(start) && !record.Time.After(end)
	}
}

// WithReady keeps records where every column is set.
func WithReady(columns ...string) RecordFilter {
	return func(record model.IndicatorRecord) bool {
		return record.Ready(columns...)
	}
}

func match(record model.IndicatorRecord, filters []RecordFilter) bool {
	for _, filter := range filters {
		if !filter(record) {
			return false
		}
	}
	return true
}
