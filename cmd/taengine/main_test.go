package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodrigo-brito/taengine/indicator"
	"github.com/rodrigo-brito/taengine/model"
)

func TestParseFeeds(t *testing.T) {
	feeds, err := parseFeeds([]string{"btcusdt=./btc.csv", "ETH=eth.csv"}, "1h", true)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "BTCUSDT", feeds[0].Symbol)
	assert.Equal(t, "./btc.csv", feeds[0].File)
	assert.Equal(t, "1h", feeds[1].Timeframe)
	assert.True(t, feeds[1].HeikinAshi)

	for _, value := range []string{"btc.csv", "=btc.csv", "BTC="} {
		_, err := parseFeeds([]string{value}, "1h", false)
		assert.Error(t, err, value)
	}
}

func TestVerify(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, 300)
	for i := range bars {
		price := 100 + 10*math.Sin(float64(i)/7) + float64(i%5)
		bars[i] = model.PriceBar{
			Time: start.AddDate(0, 0, i), Open: price, High: price + 2, Low: price - 1.5, Close: price + 0.5, Volume: 10,
		}
	}

	checks, err := verify(bars, indicator.DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, checks, 3+1+3+1+2)
	for _, check := range checks {
		assert.Positive(t, check.diff.Compared, check.name)
		assert.True(t, check.diff.Within(1e-6), "%s differs by %v", check.name, check.diff.MaxAbs)
	}
}

func TestVerify_FlatStretch(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, 300)
	for i := range bars {
		// integer prices keep the TA-Lib running variance exact on the flat part
		price := 100 + math.Round(10*math.Sin(float64(i)/7)) + float64(i%5)
		bars[i] = model.PriceBar{
			Time: start.AddDate(0, 0, i), Open: price, High: price + 2, Low: price - 1, Close: price + 1, Volume: 10,
		}
		if i >= 120 && i < 150 {
			bars[i] = model.PriceBar{Time: start.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100, Volume: 10}
		}
	}

	checks, err := verify(bars, indicator.DefaultConfig())
	require.NoError(t, err)
	for _, check := range checks {
		assert.Positive(t, check.diff.Compared, check.name)
		assert.True(t, check.diff.Within(1e-6), "%s differs by %v at %d", check.name, check.diff.MaxAbs, check.diff.Index)
	}

	config := indicator.DefaultConfig().Stochastic
	k, d, err := indicator.StochasticSeries(bars, config.Period, config.Signal)
	require.NoError(t, err)
	maskedK, maskedD := maskFlat(bars, k, d, config.Period, config.Signal)
	for i := range bars {
		flatK := i >= 120+config.Period-1 && i < 150
		flatD := i >= 120+config.Period-1 && i < 150+config.Signal-1
		assert.Equal(t, flatK, maskedK[i] == nil && k[i] != nil, "k[%d]", i)
		assert.Equal(t, flatD, maskedD[i] == nil && d[i] != nil, "d[%d]", i)
	}
	require.NotNil(t, k[140])
	assert.Equal(t, 50.0, *k[140])
}
