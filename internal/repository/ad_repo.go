package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

type AdRepo struct {
	pool *pgxpool.Pool
}

func NewAdRepo(pool *pgxpool.Pool) *AdRepo {
	return &AdRepo{pool: pool}
}

const adColumns = `
	id, advertiser_id, title, description, image_url, video_url, target_url,
	reward_amount, ad_type, location, daily_limit, status, created_at, updated_at`

// ListActive returns active ads for a surface, optionally restricted to one
// tier, newest first.
func (r *AdRepo) ListActive(ctx context.Context, location string, adType model.AdType) ([]model.Ad, error) {
	query := `
		SELECT` + adColumns + `
		FROM ads
		WHERE status = 'active' AND location = $1`
	args := []any{location}
	if adType != "" {
		query += ` AND ad_type = $2`
		args = append(args, adType)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []model.Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// FindByID returns a single ad regardless of status, or pgx.ErrNoRows.
func (r *AdRepo) FindByID(ctx context.Context, adID string) (*model.Ad, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+adColumns+` FROM ads WHERE id = $1`, adID)
	ad, err := scanAd(row)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(row rowScanner) (model.Ad, error) {
	var ad model.Ad
	err := row.Scan(
		&ad.ID, &ad.AdvertiserID, &ad.Title, &ad.Description, &ad.ImageURL,
		&ad.VideoURL, &ad.TargetURL, &ad.RewardAmount, &ad.Type, &ad.Location,
		&ad.DailyLimit, &ad.Status, &ad.CreatedAt, &ad.UpdatedAt,
	)
	return ad, err
}
