package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/tools/log"
)

const timeIndex = "time_index"

type Bunt struct {
	db *buntdb.DB
}

// buntRecord adds a numeric timestamp to the record, the time index sorts on it.
type buntRecord struct {
	model.IndicatorRecord
	Timestamp int64 `json:"timestamp"`
}

func FromMemory() (Storage, error) {
	return newBunt(":memory:")
}

func FromFile(file string) (Storage, error) {
	return newBunt(file)
}

func newBunt(sourceFile string) (*Bunt, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open buntdb %s", sourceFile)
	}

	err = db.CreateIndex(timeIndex, "*", buntdb.IndexJSON("timestamp"))
	if err != nil {
		return nil, errors.Wrap(err, "create time index")
	}
	return &Bunt{db: db}, nil
}

func recordKey(symbol string, t time.Time) string {
	return fmt.Sprintf("%s:%020d", symbol, t.UnixNano())
}

func (b *Bunt) SaveRecords(records ...model.IndicatorRecord) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, record := range records {
			record.Time = record.Time.UTC()
			content, err := json.Marshal(buntRecord{IndicatorRecord: record, Timestamp: record.Time.UnixNano()})
			if err != nil {
				return errors.Wrapf(err, "encode %s record", record.Symbol)
			}

			_, _, err = tx.Set(recordKey(record.Symbol, record.Time), string(content), nil)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bunt) Records(filters ...RecordFilter) ([]model.IndicatorRecord, error) {
	records := make([]model.IndicatorRecord, 0)
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(timeIndex, func(key, value string) bool {
			var record buntRecord
			err := json.Unmarshal([]byte(value), &record)
			if err != nil {
				log.WithField("key", key).Warnf("skipping unreadable record: %v", err)
				return true
			}
			if match(record.IndicatorRecord, filters) {
				records = append(records, record.IndicatorRecord)
			}
			return true
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "read records")
	}
	return records, nil
}

func (b *Bunt) Close() error {
	return b.db.Close()
}
