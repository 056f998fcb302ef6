package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigo-brito/taengine/model"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func record(symbol string, day int, sma *float64) model.IndicatorRecord {
	return model.IndicatorRecord{
		Symbol: symbol,
		Time:   start.AddDate(0, 0, day),
		Values: map[string]*float64{
			"sma_5":  sma,
			"rsi_14": model.Float(float64(50 + day)),
		},
	}
}

func backends(t *testing.T) map[string]Storage {
	t.Helper()

	memory, err := FromMemory()
	require.NoError(t, err)

	file, err := FromFile(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)

	sql, err := FromSQL(sqlite.Open(filepath.Join(t.TempDir(), "records.sqlite")))
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, s := range []Storage{memory, file, sql} {
			assert.NoError(t, s.Close())
		}
	})
	return map[string]Storage{"bunt memory": memory, "bunt file": file, "sql": sql}
}

func assertRecords(t *testing.T, expected, actual []model.IndicatorRecord) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Equal(t, expected[i].Symbol, actual[i].Symbol)
		assert.True(t, expected[i].Time.Equal(actual[i].Time), "%s != %s", expected[i].Time, actual[i].Time)
		assert.Equal(t, expected[i].Values, actual[i].Values)
	}
}

func TestStorage(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			records, err := s.Records()
			require.NoError(t, err)
			assert.Empty(t, records)

			require.NoError(t, s.SaveRecords(
				record("ETH", 1, model.Float(2)),
				record("BTC", 1, model.Float(3)),
				record("BTC", 0, nil),
			))
			require.NoError(t, s.SaveRecords())

			records, err = s.Records()
			require.NoError(t, err)
			assertRecords(t, []model.IndicatorRecord{
				record("BTC", 0, nil),
				record("BTC", 1, model.Float(3)),
				record("ETH", 1, model.Float(2)),
			}, records)

			t.Run("upsert", func(t *testing.T) {
				require.NoError(t, s.SaveRecords(record("BTC", 0, model.Float(9))))
				records, err := s.Records(WithSymbol("BTC"))
				require.NoError(t, err)
				assertRecords(t, []model.IndicatorRecord{
					record("BTC", 0, model.Float(9)),
					record("BTC", 1, model.Float(3)),
				}, records)
			})

			t.Run("filters", func(t *testing.T) {
				records, err := s.Records(WithTimeBetween(start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)))
				require.NoError(t, err)
				assert.Len(t, records, 2)

				records, err = s.Records(WithSymbol("ETH"), WithReady("sma_5", "rsi_14"))
				require.NoError(t, err)
				assert.Len(t, records, 1)

				records, err = s.Records(WithReady("missing"))
				require.NoError(t, err)
				assert.Empty(t, records)
			})
		})
	}
}
