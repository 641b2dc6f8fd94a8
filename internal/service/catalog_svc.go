package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

const (
	// Mega pool capacity scales with the advertiser's referred
	// sub-advertisers holding an active package, capped.
	PerAffiliateSlotCount = 5
	MaxAffiliatesCap      = 40

	// Daily pool slot counts for the lower tiers.
	DailySlotsStandardLow = 5
	DailySlotsMini        = 4
	DailySlotsStandard    = 6
)

// dailyPools maps each surface to its fixed daily slot scheme.
var dailyPools = map[string]map[model.AdType]int{
	model.SurfaceLanding: {
		model.AdTypeStandardHigh: DailySlotsStandard,
	},
	model.SurfaceUser: {
		model.AdTypeStandardHigh: DailySlotsStandard,
		model.AdTypeStandardLow:  DailySlotsStandardLow,
		model.AdTypeMini:         DailySlotsMini,
	},
	model.SurfaceAdvertiser: {
		model.AdTypeStandardLow: DailySlotsStandardLow,
		model.AdTypeMini:        DailySlotsMini,
	},
}

// MegaCapacity derives the accumulating pool's slot count:
// min(activeReferred, cap) × perAffiliateSlotCount.
func MegaCapacity(activeReferred int) int {
	if activeReferred < 0 {
		return 0
	}
	return min(activeReferred, MaxAffiliatesCap) * PerAffiliateSlotCount
}

// RequirementsMet gates the advertiser surface: no task slots are shown
// until the advertiser has published at least one ad AND one banner.
func RequirementsMet(adv *model.Advertiser) bool {
	return adv != nil && adv.ActiveAds > 0 && adv.ActiveBanners > 0
}

// BuildSlots slices fetched ads to the pool capacity, maps them into slot
// view-models carrying the viewed flag, and backfills remaining capacity
// with inert placeholder slots (nil ad id).
func BuildSlots(ads []model.Ad, capacity int, done map[string]bool) []model.Slot {
	if capacity <= 0 {
		return []model.Slot{}
	}
	if len(ads) > capacity {
		ads = ads[:capacity]
	}

	slots := make([]model.Slot, 0, capacity)
	for _, ad := range ads {
		id := ad.ID
		slots = append(slots, model.Slot{
			AdID:         &id,
			Title:        ad.Title,
			ImageURL:     ad.ImageURL,
			RewardAmount: ad.RewardAmount,
			Type:         ad.Type,
			Label:        ad.Type.Label(),
			Viewed:       done[ad.ID],
		})
	}
	for len(slots) < capacity {
		slots = append(slots, model.Slot{Placeholder: true, Title: "Coming soon"})
	}
	return slots
}

// CatalogService assembles per-surface slot layouts from active ads, the
// daily completion set (resets with the reference-zone day) and the
// permanent mega completion set.
type CatalogService struct {
	ads         *repository.AdRepo
	views       *repository.ViewRepo
	claims      *repository.ClaimRepo
	advertisers *repository.AdvertiserRepo
	cache       *CacheService
}

func NewCatalogService(
	ads *repository.AdRepo,
	views *repository.ViewRepo,
	claims *repository.ClaimRepo,
	advertisers *repository.AdvertiserRepo,
	cache *CacheService,
) *CatalogService {
	return &CatalogService{ads: ads, views: views, claims: claims, advertisers: advertisers, cache: cache}
}

// Surface builds the catalog for one surface. viewerID may be empty on the
// landing surface; viewed flags are then all false.
func (s *CatalogService) Surface(ctx context.Context, surface, viewerID string) (*model.CatalogResponse, error) {
	today := refday.Today()

	if s.cache != nil {
		if cached, err := s.cache.GetCatalog(ctx, surface, viewerID, today); err != nil {
			log.Printf("cache: catalog get error: %v", err)
		} else if cached != nil {
			var resp model.CatalogResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	resp := &model.CatalogResponse{
		Surface:         surface,
		RequirementsMet: true,
		Daily:           make(map[string][]model.Slot),
		Mega:            []model.Slot{},
		Day:             today,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	var adv *model.Advertiser
	if surface == model.SurfaceAdvertiser && viewerID != "" {
		var err error
		adv, err = s.advertisers.Get(ctx, viewerID)
		if err != nil {
			log.Printf("catalog: advertiser lookup failed: %v", err)
		}
		if !RequirementsMet(adv) {
			// Business gate: whole catalog load short-circuits.
			resp.RequirementsMet = false
			return resp, nil
		}
	}

	daily := s.dailyDone(ctx, viewerID)

	for adType, capacity := range dailyPools[surface] {
		ads, err := s.ads.ListActive(ctx, surface, adType)
		if err != nil {
			log.Printf("catalog: fetch %s/%s failed, using fallback: %v", surface, adType, err)
			ads = fallbackAds(adType)
		}
		resp.Daily[string(adType)] = BuildSlots(ads, capacity, daily)
	}

	if surface == model.SurfaceAdvertiser && adv != nil {
		capacity := MegaCapacity(adv.ActiveReferred)
		resp.MegaCapacity = capacity
		if capacity > 0 {
			megaAds, err := s.ads.ListActive(ctx, surface, model.AdTypeMega)
			if err != nil {
				log.Printf("catalog: mega fetch failed, using fallback: %v", err)
				megaAds = fallbackAds(model.AdTypeMega)
			}
			megaDone := s.megaDone(ctx, viewerID)
			resp.Mega = BuildSlots(megaAds, capacity, megaDone)
		}
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, surface, viewerID, today, resp); err != nil {
			log.Printf("cache: catalog set error: %v", err)
		}
	}

	return resp, nil
}

// dailyDone loads the day-scoped completion set. Failures degrade to an
// empty set: slots render as unviewed, and the credit path still enforces
// the real dedup.
func (s *CatalogService) dailyDone(ctx context.Context, viewerID string) map[string]bool {
	if viewerID == "" {
		return nil
	}
	done, err := s.views.ViewedAdIDs(ctx, viewerID, refday.Today())
	if err != nil {
		log.Printf("catalog: daily completion set error: %v", err)
		return nil
	}
	return done
}

// megaDone loads the permanent mega completion set: a mega ad viewed today
// stays viewed tomorrow.
func (s *CatalogService) megaDone(ctx context.Context, viewerID string) map[string]bool {
	done, err := s.claims.MegaClaimedAdIDs(ctx, viewerID)
	if err != nil {
		log.Printf("catalog: mega completion set error: %v", err)
		return nil
	}
	return done
}

// fallbackAds is the built-in sample set used when a catalog fetch fails:
// the surface is never empty, and these entries carry no reward.
func fallbackAds(adType model.AdType) []model.Ad {
	return []model.Ad{
		{
			ID:           "sample-" + string(adType) + "-1",
			Title:        "Discover PubliHazClick",
			Description:  "Sample ad shown while the catalog is unavailable",
			TargetURL:    "https://publihazclick.com",
			RewardAmount: 0,
			Type:         adType,
			Status:       model.AdStatusActive,
		},
		{
			ID:           "sample-" + string(adType) + "-2",
			Title:        "Advertise with us",
			Description:  "Sample ad shown while the catalog is unavailable",
			TargetURL:    "https://publihazclick.com/packages",
			RewardAmount: 0,
			Type:         adType,
			Status:       model.AdStatusActive,
		},
	}
}
