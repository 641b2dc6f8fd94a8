package service

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
)

type ViewerService struct {
	repo  *repository.ViewerRepo
	cache *CacheService
}

func NewViewerService(repo *repository.ViewerRepo, cache *CacheService) *ViewerService {
	return &ViewerService{repo: repo, cache: cache}
}

// Lookup returns the viewer response for a given viewer ID.
func (s *ViewerService) Lookup(ctx context.Context, viewerID string) (*model.ViewerResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetViewer(ctx, viewerID); err != nil {
			log.Printf("cache: viewer get error: %v", err)
		} else if cached != nil {
			var resp model.ViewerResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	v, err := s.repo.FindByViewerID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	accountAge := int(math.Floor(time.Since(v.FirstSeen).Hours() / 24))

	resp := &model.ViewerResponse{
		ViewerID:      v.ViewerID,
		WalletBalance: v.WalletBalance,
		DonationTotal: v.DonationTotal,
		TrustScore:    v.TrustScore,
		TotalClaims:   v.TotalClaims,
		AccuracyRate:  v.AccuracyRate,
		AccountAge:    accountAge,
	}

	if s.cache != nil {
		if err := s.cache.SetViewer(ctx, viewerID, resp); err != nil {
			log.Printf("cache: viewer set error: %v", err)
		}
	}

	return resp, nil
}

// GetStats returns aggregate platform statistics.
func (s *ViewerService) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	return s.repo.GetStats(ctx)
}
