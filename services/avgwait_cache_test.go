package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageWaitTimeCache_MissingLocation(t *testing.T) {
	cache := NewAverageWaitTimeCache()

	_, ok := cache.TryGetAverage("location-1")
	assert.False(t, ok)
}

func TestAverageWaitTimeCache_SetAndGet(t *testing.T) {
	cache := NewAverageWaitTimeCache()

	cache.SetAverage("location-1", 22.5)

	got, ok := cache.TryGetAverage("location-1")
	assert.True(t, ok)
	assert.Equal(t, 22.5, got)

	// Other locations stay unaffected.
	_, ok = cache.TryGetAverage("location-2")
	assert.False(t, ok)
}

func TestAverageWaitTimeCache_Overwrite(t *testing.T) {
	cache := NewAverageWaitTimeCache()

	cache.SetAverage("location-1", 20)
	cache.SetAverage("location-1", 35)

	got, ok := cache.TryGetAverage("location-1")
	assert.True(t, ok)
	assert.Equal(t, 35.0, got)
}

func TestAverageWaitTimeCache_ConcurrentAccess(t *testing.T) {
	cache := NewAverageWaitTimeCache()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			cache.SetAverage(fmt.Sprintf("location-%d", i%5), float64(i))
		}(i)
		go func(i int) {
			defer wg.Done()
			cache.TryGetAverage(fmt.Sprintf("location-%d", i%5))
		}(i)
	}
	wg.Wait()

	_, ok := cache.TryGetAverage("location-0")
	assert.True(t, ok)
}
