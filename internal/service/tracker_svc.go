package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

// FallbackIP is stored when a client's address cannot be determined. The IP
// is a heuristic session key, never a security boundary.
const FallbackIP = "127.0.0.1"

// SessionStore is the persistence surface the tracker needs: session rows
// keyed by viewer plus the day-scoped credited-view ledger.
type SessionStore interface {
	GetSession(ctx context.Context, viewerID string) (*model.ViewerSession, error)
	UpsertSession(ctx context.Context, s model.ViewerSession) error
	ReplaceSession(ctx context.Context, s model.ViewerSession) error
	UpdateSessionIP(ctx context.Context, viewerID, clientIP string) error
	TouchSession(ctx context.Context, viewerID string) error
	HasViewedToday(ctx context.Context, viewerID, adID, day string) (bool, error)
	RecordView(ctx context.Context, v model.AdView) error
	CountViewsForDay(ctx context.Context, viewerID, day string) (int, error)
	ViewedAdIDs(ctx context.Context, viewerID, day string) (map[string]bool, error)
	PruneStaleDays(ctx context.Context, viewerID, today string) (int64, error)
	ClearHistory(ctx context.Context, viewerID string) error
}

// MegaClaimChecker answers whether a viewer already holds a non-rejected
// claim for an accumulating-pool ad. That set never resets with the day.
type MegaClaimChecker interface {
	HasMegaClaim(ctx context.Context, viewerID, adID string) (bool, error)
}

// TrackerService is the authority for "has this viewer already been credited
// for ad X today". Unlike the legacy client-side tracker it fails CLOSED: a
// storage error blocks claiming instead of silently allowing re-claims.
type TrackerService struct {
	store      SessionStore
	megaClaims MegaClaimChecker
}

func NewTrackerService(store SessionStore, megaClaims MegaClaimChecker) *TrackerService {
	return &TrackerService{store: store, megaClaims: megaClaims}
}

// Initialize bootstraps the tracking session for a viewer. A stored session
// whose IP matches the fresh one is kept; a mismatched IP replaces the
// session row only. The credited-view ledger survives either way — it is the
// dedup authority, and an unauthenticated re-initialize must never re-open
// same-day claims. Stale-day view rows are pruned on every call, so calling
// it twice with the same inputs leaves the view list unchanged.
func (s *TrackerService) Initialize(ctx context.Context, viewerID, clientIP, fingerprintHash string) (*model.SessionResponse, error) {
	if clientIP == "" {
		clientIP = FallbackIP
	}
	today := refday.Today()

	stored, err := s.store.GetSession(ctx, viewerID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = s.store.UpsertSession(ctx, model.ViewerSession{
			ViewerID:        viewerID,
			ClientIP:        clientIP,
			FingerprintHash: fingerprintHash,
		})
		if err != nil {
			return nil, err
		}
		return &model.SessionResponse{ViewerID: viewerID, Fresh: true, Day: today}, nil

	case err != nil:
		return nil, err
	}

	fresh := false
	if stored.ClientIP != clientIP {
		// New network, same viewer. Re-key the session but keep ad_views:
		// dropping them here would let any client re-claim today's rewards
		// by hopping networks and re-initializing.
		err = s.store.ReplaceSession(ctx, model.ViewerSession{
			ViewerID:        viewerID,
			ClientIP:        clientIP,
			FingerprintHash: fingerprintHash,
		})
		if err != nil {
			return nil, err
		}
		fresh = true
	} else if err := s.store.TouchSession(ctx, viewerID); err != nil {
		return nil, err
	}

	pruned, err := s.store.PruneStaleDays(ctx, viewerID, today)
	if err != nil {
		return nil, err
	}
	if pruned > 0 {
		log.Printf("tracker: pruned %d stale-day views for viewer", pruned)
	}

	count, err := s.store.CountViewsForDay(ctx, viewerID, today)
	if err != nil {
		return nil, err
	}

	return &model.SessionResponse{
		ViewerID:   viewerID,
		Fresh:      fresh,
		ViewsToday: count,
		Day:        today,
	}, nil
}

// HasViewedToday reports whether the viewer was credited for adID on the
// current reference-zone day.
func (s *TrackerService) HasViewedToday(ctx context.Context, viewerID, adID string) (bool, error) {
	return s.store.HasViewedToday(ctx, viewerID, adID, refday.Today())
}

// CanClaim reports whether the viewer may still be credited for the ad. For
// daily tiers that is the negation of HasViewedToday; mega ads additionally
// check the permanent claim set, which outlives the daily ledger's prune
// cycle. On storage error it returns (false, err): the claim path is
// blocked, never failed open.
func (s *TrackerService) CanClaim(ctx context.Context, viewerID, adID string, adType model.AdType) (bool, error) {
	viewed, err := s.HasViewedToday(ctx, viewerID, adID)
	if err != nil {
		return false, err
	}
	if viewed {
		return false, nil
	}
	if adType == model.AdTypeMega {
		claimed, err := s.megaClaims.HasMegaClaim(ctx, viewerID, adID)
		if err != nil {
			return false, err
		}
		if claimed {
			return false, nil
		}
	}
	return true, nil
}

// RecordView appends a credited view for today. The unique index makes this
// safe to call from concurrent sessions; the loser gets ErrAlreadyViewed.
func (s *TrackerService) RecordView(ctx context.Context, viewerID, adID, clientIP string) error {
	if clientIP == "" {
		clientIP = FallbackIP
	}
	return s.store.RecordView(ctx, model.AdView{
		ViewerID:  viewerID,
		AdID:      adID,
		ViewDay:   refday.Today(),
		ClientIP:  clientIP,
		CreatedAt: time.Now(),
	})
}

// RefreshIP re-keys the session to a newly observed address without touching
// view history.
func (s *TrackerService) RefreshIP(ctx context.Context, viewerID, clientIP string) error {
	if clientIP == "" {
		clientIP = FallbackIP
	}
	return s.store.UpdateSessionIP(ctx, viewerID, clientIP)
}

// ClearHistory wipes all of a viewer's view rows. Clearing re-opens same-day
// claims, so the handler gates this behind the admin token.
func (s *TrackerService) ClearHistory(ctx context.Context, viewerID string) error {
	return s.store.ClearHistory(ctx, viewerID)
}

// ViewedToday returns the viewer's daily completion set for catalog slots.
func (s *TrackerService) ViewedToday(ctx context.Context, viewerID string) (map[string]bool, error) {
	return s.store.ViewedAdIDs(ctx, viewerID, refday.Today())
}
