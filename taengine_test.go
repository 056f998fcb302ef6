package taengine

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rodrigo-brito/taengine/config"
	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/model"
	"github.com/rodrigo-brito/taengine/storage"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) SaveRecords(records ...model.IndicatorRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

func (m *mockStorage) Records(filters ...storage.RecordFilter) ([]model.IndicatorRecord, error) {
	args := m.Called(filters)
	return args.Get(0).([]model.IndicatorRecord), args.Error(1)
}

func (m *mockStorage) Close() error {
	return m.Called().Error(0)
}

type recorder struct {
	sync.Mutex
	records []model.IndicatorRecord
}

func (r *recorder) OnRecord(record model.IndicatorRecord) {
	r.Lock()
	defer r.Unlock()
	r.records = append(r.records, record)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Indicators.SMAPeriods = []int{3}
	cfg.Indicators.EMAPeriods = []int{2}
	return cfg
}

func hourlyBars(symbol string, n int, offset float64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		price := 100 + offset + math.Sin(float64(i))*5
		bars[i] = model.PriceBar{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 10,
		}
	}
	return bars
}

func TestBackfill_Run(t *testing.T) {
	s := new(mockStorage)
	s.On("SaveRecords", mock.AnythingOfType("[]model.IndicatorRecord")).Return(nil)

	subscriber := &recorder{}
	backfill, err := New(testConfig(), WithStorage(s), WithSubscriber(subscriber))
	require.NoError(t, err)

	err = backfill.Run(context.Background(), map[string][]model.PriceBar{
		"BTC": hourlyBars("BTC", 30, 0),
		"ETH": hourlyBars("ETH", 20, 50),
	})
	require.NoError(t, err)

	records := backfill.Records()
	require.Len(t, records, 50)
	assert.Equal(t, records, subscriber.records)
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].Less(records[i-1]), "record %d out of order", i)
	}
	assert.Equal(t, "BTC", records[0].Symbol)
	assert.Equal(t, "ETH", records[1].Symbol)

	saved := 0
	for _, call := range s.Calls {
		saved += len(call.Arguments.Get(0).([]model.IndicatorRecord))
	}
	assert.Equal(t, 50, saved)
	s.AssertExpectations(t)

	engine, err := indicator.NewEngine("BTC", testConfig().Indicators)
	require.NoError(t, err)
	expected, err := engine.Compute(hourlyBars("BTC", 30, 0))
	require.NoError(t, err)
	btc := make([]model.IndicatorRecord, 0, 30)
	for _, record := range records {
		if record.Symbol == "BTC" {
			btc = append(btc, record)
		}
	}
	assert.Equal(t, expected, btc)
	assert.Equal(t, engine.Columns(), backfill.Columns())
}

func TestBackfill_Session(t *testing.T) {
	backfill, err := New(testConfig(), WithSession(2*time.Hour))
	require.NoError(t, err)

	bars := []model.PriceBar{
		{Symbol: "BTC", Time: start, Open: 10, High: 12, Low: 8, Close: 10, Volume: 100},
		{Symbol: "BTC", Time: start.Add(time.Hour), Open: 20, High: 22, Low: 18, Close: 20, Volume: 100},
		{Symbol: "BTC", Time: start.Add(2 * time.Hour), Open: 30, High: 32, Low: 28, Close: 30, Volume: 100},
	}
	require.NoError(t, backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": bars}))

	vwap := func(i int) float64 {
		value, ok := backfill.Records()[i].Get(indicator.ColumnVWAP)
		require.True(t, ok)
		return value
	}
	assert.InDelta(t, 10, vwap(0), 1e-9)
	assert.InDelta(t, 15, vwap(1), 1e-9)
	assert.InDelta(t, 30, vwap(2), 1e-9)
}

func TestBackfill_InvalidBars(t *testing.T) {
	bars := hourlyBars("BTC", 10, 0)
	bars[4].High = bars[4].Low - 1

	t.Run("abort", func(t *testing.T) {
		s := new(mockStorage)
		backfill, err := New(testConfig(), WithStorage(s))
		require.NoError(t, err)

		err = backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": bars})
		require.ErrorIs(t, err, indicator.ErrData)
		var dataErr *indicator.DataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, 4, dataErr.Index)
		assert.Empty(t, backfill.Records())
		s.AssertNotCalled(t, "SaveRecords", mock.Anything)
	})

	t.Run("skip", func(t *testing.T) {
		backfill, err := New(testConfig(), WithSkipInvalid(true))
		require.NoError(t, err)

		err = backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": bars})
		require.NoError(t, err)
		assert.Len(t, backfill.Records(), 9)
		assert.Equal(t, map[string]int{"BTC": 1}, backfill.Skipped())
	})
}

func TestBackfill_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Indicators.RSIPeriod = -1
		_, err := New(cfg)
		assert.ErrorIs(t, err, indicator.ErrConfiguration)
	})

	t.Run("negative session", func(t *testing.T) {
		_, err := New(testConfig(), WithSession(-time.Hour))
		assert.Error(t, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		s := new(mockStorage)
		s.On("SaveRecords", mock.Anything).Return(errors.New("disk full"))
		backfill, err := New(testConfig(), WithStorage(s))
		require.NoError(t, err)

		err = backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": hourlyBars("BTC", 5, 0)})
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		backfill, err := New(testConfig())
		require.NoError(t, err)
		err = backfill.Run(ctx, map[string][]model.PriceBar{"BTC": hourlyBars("BTC", 5, 0)})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBackfill_Storage(t *testing.T) {
	s, err := storage.FromMemory()
	require.NoError(t, err)
	defer s.Close()

	backfill, err := New(testConfig(), WithStorage(s))
	require.NoError(t, err)
	bars := hourlyBars("BTC", 24, 0)
	require.NoError(t, backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": bars}))

	// replaying the same bars replaces the stored records
	require.NoError(t, backfill.Run(context.Background(), map[string][]model.PriceBar{"BTC": bars}))

	stored, err := s.Records(storage.WithSymbol("BTC"))
	require.NoError(t, err)
	assert.Len(t, stored, 24)
}

func TestSummary(t *testing.T) {
	backfill, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, backfill.Run(context.Background(), map[string][]model.PriceBar{
		"BTC": hourlyBars("BTC", 40, 0),
		"ETH": hourlyBars("ETH", 40, 10),
	}))

	var out bytes.Buffer
	require.NoError(t, backfill.Summary(&out, "rsi_14"))
	assert.Contains(t, out.String(), "------ rsi_14 -------")
	assert.Contains(t, out.String(), "BTC")
	assert.Contains(t, out.String(), "TOTAL")
	assert.Contains(t, out.String(), "CONFIDENCE INTERVAL")

	out.Reset()
	require.NoError(t, Summarize(&out, backfill.Records(), "unknown"))
	assert.Contains(t, out.String(), "no value for unknown")
}
