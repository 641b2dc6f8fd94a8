package service

import (
	"context"
	"log"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

// idleSessionAge is how long a tracking session may go unseen before the
// sweep drops it.
const idleSessionAge = 48 * time.Hour

// SweepWorker is a periodic background job that prunes stale-day view rows,
// idle tracking sessions, and abandoned in-memory view sessions. Claims are
// untouched: they are the permanent audit record.
type SweepWorker struct {
	views    *repository.ViewRepo
	viewSvc  *ViewService
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweepWorker creates a worker that ticks every interval.
func NewSweepWorker(views *repository.ViewRepo, viewSvc *ViewService, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		views:    views,
		viewSvc:  viewSvc,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. It runs one tick immediately, then
// every interval.
func (w *SweepWorker) Start(ctx context.Context) {
	log.Printf("sweep-worker: starting (interval=%s)", w.interval)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Println("sweep-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Println("sweep-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *SweepWorker) Stop() {
	close(w.stopCh)
}

// tick runs one sweep cycle.
func (w *SweepWorker) tick(ctx context.Context) {
	start := time.Now()
	today := refday.Today()

	staleViews, err := w.views.PruneAllStale(ctx, today)
	if err != nil {
		log.Printf("sweep-worker: stale view prune error: %v", err)
	}

	idleSessions, err := w.views.DeleteIdleSessions(ctx, time.Now().Add(-idleSessionAge))
	if err != nil {
		log.Printf("sweep-worker: idle session prune error: %v", err)
	}

	abandonedViews := 0
	if w.viewSvc != nil {
		abandonedViews = w.viewSvc.SweepExpired(time.Now())
	}

	elapsed := time.Since(start)
	if staleViews+idleSessions > 0 || abandonedViews > 0 {
		log.Printf("sweep-worker: tick complete — %d stale views, %d idle sessions, %d abandoned view sessions removed (%s)",
			staleViews, idleSessions, abandonedViews, elapsed.Round(time.Millisecond))
	}
}
