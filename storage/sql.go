package storage

import (
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rodrigo-brito/taengine/model"
)

const batchSize = 500

// IndicatorValue is one cell of a record in long format. A nil Value is a column
// still warming up.
type IndicatorValue struct {
	Symbol string    `gorm:"primaryKey;size:32"`
	Time   time.Time `gorm:"primaryKey;index"`
	Name   string    `gorm:"primaryKey;size:32"`
	Value  *float64
}

type SQL struct {
	db *gorm.DB
}

func FromSQL(dialect gorm.Dialector, opts ...gorm.Option) (Storage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(&IndicatorValue{})
	if err != nil {
		return nil, errors.Wrap(err, "migrate indicator values")
	}

	return &SQL{db: db}, nil
}

func (s *SQL) SaveRecords(records ...model.IndicatorRecord) error {
	rows := lo.FlatMap(records, func(record model.IndicatorRecord, _ int) []IndicatorValue {
		return lo.Map(record.Columns(), func(column string, _ int) IndicatorValue {
			return IndicatorValue{
				Symbol: record.Symbol,
				Time:   record.Time.UTC(),
				Name:   column,
				Value:  record.Values[column],
			}
		})
	})
	if len(rows) == 0 {
		return nil
	}

	result := s.db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, batchSize)
	return errors.Wrap(result.Error, "save records")
}

func (s *SQL) Records(filters ...RecordFilter) ([]model.IndicatorRecord, error) {
	var rows []IndicatorValue
	result := s.db.Order("time, symbol, name").Find(&rows)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(result.Error, "read records")
	}

	records := make([]model.IndicatorRecord, 0)
	for _, row := range rows {
		last := len(records) - 1
		if last < 0 || records[last].Symbol != row.Symbol || !records[last].Time.Equal(row.Time) {
			records = append(records, model.IndicatorRecord{
				Symbol: row.Symbol,
				Time:   row.Time.UTC(),
				Values: make(map[string]*float64),
			})
			last++
		}
		records[last].Values[row.Name] = row.Value
	}

	return lo.Filter(records, func(record model.IndicatorRecord, _ int) bool {
		return match(record, filters)
	}), nil
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
