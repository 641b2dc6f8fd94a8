package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

type AdvertiserRepo struct {
	pool *pgxpool.Pool
}

func NewAdvertiserRepo(pool *pgxpool.Pool) *AdvertiserRepo {
	return &AdvertiserRepo{pool: pool}
}

// Get returns the business-rule inputs for an advertiser: published-content
// counts for the requirements gate, and the number of referred advertisers
// currently holding an active package for the mega pool capacity.
func (r *AdvertiserRepo) Get(ctx context.Context, advertiserID string) (*model.Advertiser, error) {
	query := `
		SELECT
			a.advertiser_id,
			(SELECT COUNT(*) FROM ads WHERE advertiser_id = a.advertiser_id AND status = 'active') AS active_ads,
			(SELECT COUNT(*) FROM banners WHERE advertiser_id = a.advertiser_id AND status = 'active') AS active_banners,
			(SELECT COUNT(*)
			 FROM referrals ref
			 JOIN advertisers sub ON sub.advertiser_id = ref.referred_id
			 WHERE ref.referrer_id = a.advertiser_id AND sub.has_active_package) AS active_referred,
			a.has_active_package
		FROM advertisers a
		WHERE a.advertiser_id = $1`

	var adv model.Advertiser
	err := r.pool.QueryRow(ctx, query, advertiserID).Scan(
		&adv.AdvertiserID, &adv.ActiveAds, &adv.ActiveBanners,
		&adv.ActiveReferred, &adv.HasActivePackage,
	)
	if err != nil {
		return nil, err
	}
	return &adv, nil
}
