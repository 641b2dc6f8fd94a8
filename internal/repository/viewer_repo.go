package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

type ViewerRepo struct {
	pool *pgxpool.Pool
}

func NewViewerRepo(pool *pgxpool.Pool) *ViewerRepo {
	return &ViewerRepo{pool: pool}
}

// FindByViewerID returns a single viewer with wallet and trust metadata.
func (r *ViewerRepo) FindByViewerID(ctx context.Context, viewerID string) (*model.Viewer, error) {
	query := `
		SELECT viewer_id, wallet_balance, donation_total, trust_score, accuracy_rate,
		       total_claims, confirmed_claims, first_seen, last_active, is_flagged, flag_reason
		FROM viewers
		WHERE viewer_id = $1`

	var v model.Viewer
	err := r.pool.QueryRow(ctx, query, viewerID).Scan(
		&v.ViewerID, &v.WalletBalance, &v.DonationTotal, &v.TrustScore, &v.AccuracyRate,
		&v.TotalClaims, &v.ConfirmedClaims, &v.FirstSeen, &v.LastActive, &v.IsFlagged, &v.FlagReason,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateIfNotExists inserts a new viewer with default values.
func (r *ViewerRepo) CreateIfNotExists(ctx context.Context, viewerID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO viewers (viewer_id) VALUES ($1)
		ON CONFLICT (viewer_id) DO NOTHING`, viewerID)
	return err
}

// UpdateTrustScore persists a recomputed trust score.
func (r *ViewerRepo) UpdateTrustScore(ctx context.Context, viewerID string, score float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE viewers SET trust_score = $1 WHERE viewer_id = $2`, score, viewerID)
	return err
}

// GetStats returns aggregate platform statistics.
func (r *ViewerRepo) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM ads WHERE status = 'active') AS total_ads,
			(SELECT COUNT(*) FROM viewers) AS total_viewers,
			(SELECT COUNT(*) FROM claims) AS total_claims,
			(SELECT COUNT(*) FROM claims WHERE status = 'confirmed') AS confirmed_claims,
			(SELECT COALESCE(SUM(donation_total), 0) FROM viewers) AS donation_pool,
			(SELECT COUNT(*) FROM viewers WHERE last_active > NOW() - INTERVAL '24 hours') AS active_viewers_24h`

	var stats model.StatsResponse
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalAds, &stats.TotalViewers, &stats.TotalClaims,
		&stats.ConfirmedClaims, &stats.DonationPool, &stats.ActiveViewers24h,
	)
	if err != nil {
		return nil, err
	}

	catQuery := `
		SELECT ad_type, COUNT(*) AS total
		FROM claims
		GROUP BY ad_type
		ORDER BY total DESC`

	rows, err := r.pool.Query(ctx, catQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.ClaimsByAdType = make(map[string]int)
	for rows.Next() {
		var adType string
		var count int
		if err := rows.Scan(&adType, &count); err != nil {
			return nil, err
		}
		stats.ClaimsByAdType[adType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}
