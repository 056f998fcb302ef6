package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

func TestSMA(t *testing.T) {
	t.Run("known series", func(t *testing.T) {
		sma, err := NewSMA(3)
		require.NoError(t, err)

		prices := []float64{100, 102, 104, 103, 105}
		expected := []float64{0, 0, 102, 103, 104}
		for i, price := range prices {
			sma.Update(price)
			value, ok := sma.Value()
			assert.Equal(t, i >= 2, ok, "index %d", i)
			if ok {
				assert.InDelta(t, expected[i], value, delta)
			}
		}
	})

	t.Run("constant series", func(t *testing.T) {
		values, err := SMASeries([]float64{7, 7, 7, 7, 7, 7}, 4)
		require.NoError(t, err)
		for i, v := range values {
			if i < 3 {
				assert.Nil(t, v)
				continue
			}
			require.NotNil(t, v)
			assert.Equal(t, 7.0, *v)
		}
	})

	t.Run("literal mean", func(t *testing.T) {
		series := randomCloses(300, 7)
		for _, period := range []int{1, 5, 20, 200} {
			values, err := SMASeries(series, period)
			require.NoError(t, err)

			nulls := 0
			for i, v := range values {
				if v == nil {
					nulls++
					continue
				}
				sum := 0.0
				for _, price := range series[i-period+1 : i+1] {
					sum += price
				}
				assert.InDelta(t, sum/float64(period), *v, delta)
			}
			assert.Equal(t, period-1, nulls, "period %d", period)
		}
	})

	t.Run("reset", func(t *testing.T) {
		sma, _ := NewSMA(2)
		sma.Update(1)
		sma.Update(3)
		sma.Reset()
		sma.Update(10)
		_, ok := sma.Value()
		assert.False(t, ok)
		sma.Update(20)
		value, ok := sma.Value()
		assert.True(t, ok)
		assert.Equal(t, 15.0, value)
	})

	t.Run("invalid period", func(t *testing.T) {
		for _, period := range []int{0, -3} {
			_, err := NewSMA(period)
			assert.ErrorIs(t, err, ErrConfiguration)
		}
	})

	t.Run("non finite input", func(t *testing.T) {
		_, err := SMASeries([]float64{1, math.NaN(), 3}, 2)
		var dataErr *DataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, 1, dataErr.Index)

		_, err = EMASeries([]float64{1, math.Inf(1)}, 2)
		assert.ErrorIs(t, err, ErrData)
	})
}

func TestEMA(t *testing.T) {
	t.Run("seeded with the first value", func(t *testing.T) {
		values, err := EMASeries([]float64{10, 11, 12}, 3)
		require.NoError(t, err)

		// alpha = 2 / (3 + 1)
		require.NotNil(t, values[0])
		assert.Equal(t, 10.0, *values[0])
		assert.InDelta(t, 10.5, *values[1], delta)
		assert.InDelta(t, 11.25, *values[2], delta)
	})

	t.Run("constant series converges", func(t *testing.T) {
		series := make([]float64, 500)
		for i := range series {
			series[i] = 42.5
		}
		for _, period := range []int{1, 12, 26, 200} {
			values, err := EMASeries(series, period)
			require.NoError(t, err)
			assert.Equal(t, 42.5, *values[0])
			assert.InDelta(t, 42.5, *values[len(values)-1], delta)
		}
	})

	t.Run("step converges to new level", func(t *testing.T) {
		ema, err := NewEMA(10)
		require.NoError(t, err)
		ema.Update(1)
		for i := 0; i < 400; i++ {
			ema.Update(2)
		}
		value, ok := ema.Value()
		assert.True(t, ok)
		assert.InDelta(t, 2, value, 1e-6)
	})

	t.Run("unset before the first value", func(t *testing.T) {
		ema, _ := NewEMA(5)
		_, ok := ema.Value()
		assert.False(t, ok)
		assert.Equal(t, 0, ema.Warmup())
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := NewEMA(0)
		var configErr *ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "ema.period", configErr.Field)
	})
}
