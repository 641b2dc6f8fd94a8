package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/events"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

// ClaimWorker listens for PostgreSQL NOTIFY on the 'claim_changes' channel
// and batches pending-claim resolution. A burst of claims from one viewer
// still costs one trust recomputation per flush window.
type ClaimWorker struct {
	pool      *pgxpool.Pool
	claims    *repository.ClaimRepo
	viewers   *repository.ViewerRepo
	trust     *TrustService
	cache     *CacheService
	publisher *events.Publisher
	batchMs   time.Duration

	mu      sync.Mutex
	pending map[string]struct{} // claim IDs waiting for resolution
}

// NewClaimWorker creates a claim resolution worker.
func NewClaimWorker(pool *pgxpool.Pool, claims *repository.ClaimRepo, viewers *repository.ViewerRepo, trust *TrustService, cache *CacheService, publisher *events.Publisher) *ClaimWorker {
	return &ClaimWorker{
		pool:      pool,
		claims:    claims,
		viewers:   viewers,
		trust:     trust,
		cache:     cache,
		publisher: publisher,
		batchMs:   5 * time.Second,
		pending:   make(map[string]struct{}),
	}
}

// Start begins listening for claim_changes notifications and processing
// batches.
func (w *ClaimWorker) Start(ctx context.Context) {
	log.Printf("claim-worker: starting (batch window=%s)", w.batchMs)

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				log.Println("claim-worker: stopping (context cancelled)")
				return
			}
			log.Printf("claim-worker: listen error, reconnecting in 5s: %v", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				log.Println("claim-worker: stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs on claim_changes, and
// accumulates notifications into batched windows.
func (w *ClaimWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, "LISTEN claim_changes")
	if err != nil {
		return err
	}
	log.Println("claim-worker: listening on claim_changes")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		claimID := notification.Payload
		if claimID == "" {
			continue
		}

		w.mu.Lock()
		w.pending[claimID] = struct{}{}
		w.mu.Unlock()
	}
}

// flushLoop periodically drains the pending set and resolves claims.
func (w *ClaimWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.batchMs)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			// Final flush before exit
			w.flush(context.Background())
			return
		}
	}
}

// flush resolves every queued claim: recompute the viewer's trust score,
// then confirm or reject.
func (w *ClaimWorker) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	confirmed, rejected := 0, 0
	for claimID := range batch {
		status, err := w.resolve(ctx, claimID)
		if err != nil {
			log.Printf("claim-worker: resolve error for %s: %v", claimID, err)
			continue
		}
		if status == model.ClaimConfirmed {
			confirmed++
		} else {
			rejected++
		}
	}

	if confirmed+rejected > 0 {
		log.Printf("claim-worker: batch complete — %d confirmed, %d rejected (from %d notifications)",
			confirmed, rejected, len(batch))
	}
}

// resolve settles one pending claim against the viewer's current standing.
func (w *ClaimWorker) resolve(ctx context.Context, claimID string) (model.ClaimStatus, error) {
	claim, err := w.claims.Get(ctx, claimID)
	if err != nil {
		return "", err
	}
	if claim.Status != model.ClaimPending {
		return claim.Status, nil
	}

	viewer, err := w.viewers.FindByViewerID(ctx, claim.ViewerID)
	if err != nil {
		return "", err
	}

	score := w.trust.ComputeTrustScore(viewer)
	if err := w.viewers.UpdateTrustScore(ctx, viewer.ViewerID, score); err != nil {
		log.Printf("claim-worker: trust score update error for %s: %v", viewer.ViewerID, err)
	}

	status := model.ClaimRejected
	if w.trust.ShouldConfirm(viewer) {
		status = model.ClaimConfirmed
	}

	if err := w.claims.Resolve(ctx, claimID, status); err != nil {
		return "", err
	}

	if w.cache != nil {
		if err := w.cache.InvalidateViewer(ctx, claim.ViewerID, refday.Today()); err != nil {
			log.Printf("claim-worker: cache invalidate error for %s: %v", claim.ViewerID, err)
		}
	}
	if w.publisher != nil {
		w.publisher.PublishClaim(ctx, events.ClaimEvent{
			ClaimID:        claim.ID,
			ViewerID:       claim.ViewerID,
			AdID:           claim.AdID,
			AdType:         string(claim.AdType),
			WalletAmount:   claim.WalletAmount,
			DonationAmount: claim.DonationAmount,
			Status:         string(status),
			OccurredAt:     time.Now(),
		})
	}

	return status, nil
}
