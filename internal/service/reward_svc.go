package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/events"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/pkg/hash"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

var (
	ErrAdNotFound     = errors.New("ad not found")
	ErrAdNotActive    = errors.New("ad is not active")
	ErrDurationTooLow = errors.New("reported watch duration below the ad's required watch time")
)

// RewardService is the authoritative credit path. The wallet gets 100% of
// the ad's reward; the donation pool gets the flat amount regardless of ad
// size. Claims are written pending and resolved by the claim worker.
type RewardService struct {
	ads       *repository.AdRepo
	claims    *repository.ClaimRepo
	cache     *CacheService
	publisher *events.Publisher
	ipSalt    string
}

func NewRewardService(ads *repository.AdRepo, claims *repository.ClaimRepo, cache *CacheService, publisher *events.Publisher, ipSalt string) *RewardService {
	return &RewardService{ads: ads, claims: claims, cache: cache, publisher: publisher, ipSalt: ipSalt}
}

// Credit validates and applies one reward claim. A reported duration of zero
// means "not supplied" and is accepted; a non-zero duration below the tier's
// required watch time is rejected as implausible.
func (s *RewardService) Credit(ctx context.Context, req CreditRequest) (*model.RewardSummary, error) {
	ad, err := s.ads.FindByID(ctx, req.AdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	if ad.Status != model.AdStatusActive {
		return nil, ErrAdNotActive
	}

	requiredMs := int64(ad.Type.WatchSeconds()) * 1000
	if req.DurationMs > 0 && req.DurationMs < requiredMs {
		return nil, fmt.Errorf("%w: got %dms, need %dms", ErrDurationTooLow, req.DurationMs, requiredMs)
	}

	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = FallbackIP
	}

	claim := model.RewardClaim{
		ID:             uuid.NewString(),
		ViewerID:       req.ViewerID,
		AdID:           ad.ID,
		AdType:         ad.Type,
		WalletAmount:   ad.RewardAmount,
		DonationAmount: model.FlatDonationAmount,
		DurationMs:     req.DurationMs,
		IPHash:         hash.HashIP(clientIP, s.ipSalt),
		UserAgent:      req.UserAgent,
	}
	if req.Fingerprint != "" {
		claim.FingerprintHash = hash.HashFingerprint(req.Fingerprint, s.ipSalt)
	}

	view := model.AdView{
		ViewerID:  req.ViewerID,
		AdID:      ad.ID,
		ViewDay:   refday.Today(),
		ClientIP:  clientIP,
		CreatedAt: time.Now(),
	}

	claim, err = s.claims.Credit(ctx, claim, view)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateViewer(ctx, req.ViewerID, view.ViewDay); err != nil {
			log.Printf("cache: invalidate viewer error: %v", err)
		}
	}
	if s.publisher != nil {
		s.publisher.PublishClaim(ctx, events.ClaimEvent{
			ClaimID:        claim.ID,
			ViewerID:       claim.ViewerID,
			AdID:           claim.AdID,
			AdType:         string(claim.AdType),
			WalletAmount:   claim.WalletAmount,
			DonationAmount: claim.DonationAmount,
			Status:         string(claim.Status),
			OccurredAt:     claim.CreatedAt,
		})
	}

	return &model.RewardSummary{
		AdID:           claim.AdID,
		WalletAmount:   claim.WalletAmount,
		DonationAmount: claim.DonationAmount,
		DurationMs:     claim.DurationMs,
	}, nil
}
