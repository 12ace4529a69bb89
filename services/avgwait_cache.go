package services

import "sync"

// AverageWaitTimeCache holds per-location overrides of the average service
// duration in minutes. It is constructed once at startup and injected into its
// consumers; there is no package-level instance. Values live for the process
// lifetime, absence means "fall back to the location's historical average".
type AverageWaitTimeCache struct {
	mu      sync.RWMutex
	minutes map[string]float64
}

func NewAverageWaitTimeCache() *AverageWaitTimeCache {
	return &AverageWaitTimeCache{minutes: make(map[string]float64)}
}

// SetAverage overwrites the override for a location.
func (c *AverageWaitTimeCache) SetAverage(locationID string, minutes float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minutes[locationID] = minutes
}

// TryGetAverage returns the override for a location, if one was set.
func (c *AverageWaitTimeCache) TryGetAverage(locationID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	minutes, ok := c.minutes[locationID]
	return minutes, ok
}
