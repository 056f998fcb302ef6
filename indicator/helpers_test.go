package indicator

import (
	"math"
	"math/rand"
	"time"

	"github.com/rodrigo-brito/taengine/model"
)

var start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// randomBars builds a deterministic random walk that honours the OHLC invariants.
func randomBars(symbol string, n int, seed int64) []model.PriceBar {
	random := rand.New(rand.NewSource(seed))
	bars := make([]model.PriceBar, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		open := price
		price = math.Max(1, price*(1+random.NormFloat64()*0.02))
		high := math.Max(open, price) * (1 + random.Float64()*0.01)
		low := math.Min(open, price) * (1 - random.Float64()*0.01)
		bars = append(bars, model.PriceBar{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 10 + random.Float64()*1000,
		})
	}
	return bars
}

func randomCloses(n int, seed int64) []float64 {
	bars := randomBars("RND", n, seed)
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// closeBars wraps closes into bars with a one point range around the close.
func closeBars(symbol string, closes ...float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Symbol: symbol,
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return bars
}
