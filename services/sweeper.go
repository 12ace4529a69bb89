package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// LateSweeper periodically runs the late-cap eviction over all active queues.
// One goroutine handles every queue; per-queue work still goes through the
// queue service's writer lock.
type LateSweeper struct {
	queues   *QueueService
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewLateSweeper(queues *QueueService, interval time.Duration) *LateSweeper {
	return &LateSweeper{
		queues:   queues,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *LateSweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *LateSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Println("Late-customer sweeper started")

	for {
		select {
		case <-ticker.C:
			removed, err := s.queues.SweepLateCustomers(ctx)
			if err != nil {
				log.Printf("Error sweeping late customers: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Swept %d late customers", removed)
			}
		case <-ctx.Done():
			log.Println("Late-customer sweeper stopping")
			return
		case <-s.stopChan:
			log.Println("Late-customer sweeper stopping")
			return
		}
	}
}

// Stop signals the sweeper and waits for the loop to exit.
func (s *LateSweeper) Stop() {
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("Timeout waiting for sweeper to stop")
	}
}
