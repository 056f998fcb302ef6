package model

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestPriorityQueue(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record := func(symbol string, hours int) IndicatorRecord {
		return IndicatorRecord{Symbol: symbol, Time: start.Add(time.Duration(hours) * time.Hour)}
	}

	t.Run("ordered by time then symbol", func(t *testing.T) {
		queue := NewPriorityQueue([]Item{record("B", 1), record("A", 2)})
		queue.Push(record("A", 1), record("C", 0))

		require.Equal(t, 4, queue.Len())

		var got []IndicatorRecord
		err := queue.Drain(func(item Item) error {
			got = append(got, item.(IndicatorRecord))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []IndicatorRecord{record("C", 0), record("A", 1), record("B", 1), record("A", 2)}, got)
		assert.Nil(t, queue.Pop())
	})

	t.Run("concurrent producers", func(t *testing.T) {
		queue := NewPriorityQueue(nil)
		var wg sync.WaitGroup
		for _, symbol := range []string{"A", "B", "C", "D"} {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				for _, i := range rand.New(rand.NewSource(int64(symbol[0]))).Perm(100) {
					queue.Push(record(symbol, i))
				}
			}(symbol)
		}
		wg.Wait()

		var previous Item
		count := 0
		require.NoError(t, queue.Drain(func(item Item) error {
			if previous != nil {
				assert.False(t, item.Less(previous))
			}
			previous = item
			count++
			return nil
		}))
		assert.Equal(t, 400, count)
	})

	t.Run("drain stops on error", func(t *testing.T) {
		queue := NewPriorityQueue(nil)
		queue.Push(record("A", 1), record("A", 2))
		stop := errors.New("stop")
		err := queue.Drain(func(Item) error { return stop })
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, queue.Len())
	})
}
