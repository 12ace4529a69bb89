package monitoring

import (
	"log"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_entries_total",
			Help: "Current queue entries per location and status",
		},
		[]string{"location_id", "status"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "location_id", "status"},
	)

	lateEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_late_evictions_total",
			Help: "Waiting entries evicted by the late-cap sweeper",
		},
		[]string{"location_id"},
	)

	waitEstimates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_wait_estimate_minutes",
			Help:    "Distribution of served wait-time estimates",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"location_id"},
	)
)

// Monitor periodically samples live entry counts from storage and exposes
// counters the services feed directly.
type Monitor struct {
	app      core.App
	interval time.Duration
	stopChan chan struct{}
}

func NewMonitor(app core.App, interval time.Duration) *Monitor {
	monitor := &Monitor{
		app:      app,
		interval: interval,
		stopChan: make(chan struct{}),
	}

	go monitor.collectLoop()

	return monitor
}

func (m *Monitor) collectLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectEntryCounts()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) collectEntryCounts() {
	var rows []struct {
		LocationID string `db:"location_id"`
		Status     string `db:"status"`
		Count      int    `db:"cnt"`
	}

	err := m.app.DB().NewQuery(
		`SELECT q.location AS location_id, e.status AS status, COUNT(*) AS cnt
		 FROM queue_entries e
		 JOIN queues q ON q.id = e.queue
		 WHERE e.status IN ('waiting', 'called', 'checked_in')
		 GROUP BY q.location, e.status`,
	).All(&rows)
	if err != nil {
		log.Printf("Error collecting queue entry counts: %v", err)
		return
	}

	queueEntries.Reset()
	for _, row := range rows {
		queueEntries.WithLabelValues(row.LocationID, row.Status).Set(float64(row.Count))
	}
}

// TrackQueueOperation counts a mutation attempt and its outcome.
func (m *Monitor) TrackQueueOperation(operation, locationID, outcome string) {
	queueOperations.WithLabelValues(operation, locationID, outcome).Inc()
}

// TrackLateEvictions counts entries removed by the late-cap sweeper.
func (m *Monitor) TrackLateEvictions(locationID string, count int) {
	lateEvictions.WithLabelValues(locationID).Add(float64(count))
}

// ObserveWaitEstimate records a served estimate. Sentinel values are skipped.
func (m *Monitor) ObserveWaitEstimate(locationID string, minutes int) {
	if minutes < 0 {
		return
	}
	waitEstimates.WithLabelValues(locationID).Observe(float64(minutes))
}

func (m *Monitor) Stop() {
	close(m.stopChan)
}
