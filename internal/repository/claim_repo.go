package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

type ClaimRepo struct {
	pool *pgxpool.Pool
}

func NewClaimRepo(pool *pgxpool.Pool) *ClaimRepo {
	return &ClaimRepo{pool: pool}
}

// Credit atomically records a view and its pending reward claim, and applies
// the optimistic wallet/donation credit. The ad_views unique index is the
// real daily-dedup guard: a collision aborts the whole transaction with
// ErrAlreadyViewed and nothing is credited. Mega claims carry a second,
// permanent guard — ad_views rows are pruned daily, so the claims table
// itself must block a re-credit on a later day.
func (r *ClaimRepo) Credit(ctx context.Context, claim model.RewardClaim, view model.AdView) (model.RewardClaim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return claim, err
	}
	defer tx.Rollback(ctx)

	if claim.AdType == model.AdTypeMega {
		var claimed bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM claims
				WHERE viewer_id = $1 AND ad_id = $2 AND ad_type = $3 AND status <> 'rejected'
			)`, claim.ViewerID, claim.AdID, model.AdTypeMega).Scan(&claimed)
		if err != nil {
			return claim, err
		}
		if claimed {
			return claim, ErrAlreadyViewed
		}
	}

	// Ensure viewer exists (auto-create with defaults on first claim)
	_, err = tx.Exec(ctx, `
		INSERT INTO viewers (viewer_id) VALUES ($1)
		ON CONFLICT (viewer_id) DO UPDATE SET last_active = NOW()`,
		claim.ViewerID)
	if err != nil {
		return claim, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO ad_views (viewer_id, ad_id, view_day, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (viewer_id, ad_id, view_day) DO NOTHING`,
		view.ViewerID, view.AdID, view.ViewDay, view.ClientIP, view.CreatedAt)
	if err != nil {
		return claim, err
	}
	if tag.RowsAffected() == 0 {
		return claim, ErrAlreadyViewed
	}

	claim.Status = model.ClaimPending
	claim.CreatedAt = time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO claims (id, viewer_id, ad_id, ad_type, wallet_amount, donation_amount,
		                    duration_ms, status, ip_hash, user_agent, fingerprint_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		claim.ID, claim.ViewerID, claim.AdID, claim.AdType, claim.WalletAmount,
		claim.DonationAmount, claim.DurationMs, claim.Status, claim.IPHash,
		claim.UserAgent, claim.FingerprintHash, claim.CreatedAt)
	if err != nil {
		return claim, err
	}

	// Optimistic credit — reversed by Resolve if the claim is rejected.
	_, err = tx.Exec(ctx, `
		UPDATE viewers
		SET wallet_balance = wallet_balance + $1,
		    donation_total = donation_total + $2,
		    total_claims = total_claims + 1,
		    last_active = NOW()
		WHERE viewer_id = $3`,
		claim.WalletAmount, claim.DonationAmount, claim.ViewerID)
	if err != nil {
		return claim, err
	}

	// Wake the claim worker
	_, err = tx.Exec(ctx, `SELECT pg_notify('claim_changes', $1)`, claim.ID)
	if err != nil {
		return claim, err
	}

	err = tx.Commit(ctx)
	return claim, err
}

// ListPending returns up to limit unresolved claims, oldest first.
func (r *ClaimRepo) ListPending(ctx context.Context, limit int) ([]model.RewardClaim, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, viewer_id, ad_id, ad_type, wallet_amount, donation_amount,
		       duration_ms, status, ip_hash, user_agent, fingerprint_hash, created_at
		FROM claims
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []model.RewardClaim
	for rows.Next() {
		var c model.RewardClaim
		err := rows.Scan(&c.ID, &c.ViewerID, &c.AdID, &c.AdType, &c.WalletAmount,
			&c.DonationAmount, &c.DurationMs, &c.Status, &c.IPHash,
			&c.UserAgent, &c.FingerprintHash, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// Get returns a single claim by ID.
func (r *ClaimRepo) Get(ctx context.Context, claimID string) (*model.RewardClaim, error) {
	var c model.RewardClaim
	err := r.pool.QueryRow(ctx, `
		SELECT id, viewer_id, ad_id, ad_type, wallet_amount, donation_amount,
		       duration_ms, status, ip_hash, user_agent, fingerprint_hash, created_at, resolved_at
		FROM claims
		WHERE id = $1`, claimID).Scan(
		&c.ID, &c.ViewerID, &c.AdID, &c.AdType, &c.WalletAmount, &c.DonationAmount,
		&c.DurationMs, &c.Status, &c.IPHash, &c.UserAgent, &c.FingerprintHash,
		&c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve moves a pending claim to confirmed or rejected. Rejection reverses
// the optimistic credit; confirmation feeds the viewer's accuracy rate used
// by trust scoring.
func (r *ClaimRepo) Resolve(ctx context.Context, claimID string, status model.ClaimStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var viewerID string
	var wallet, donation float64
	err = tx.QueryRow(ctx, `
		UPDATE claims SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'
		RETURNING viewer_id, wallet_amount, donation_amount`,
		status, claimID).Scan(&viewerID, &wallet, &donation)
	if err != nil {
		return err // pgx.ErrNoRows when already resolved
	}

	switch status {
	case model.ClaimConfirmed:
		_, err = tx.Exec(ctx, `
			UPDATE viewers
			SET confirmed_claims = confirmed_claims + 1,
			    accuracy_rate = (confirmed_claims + 1)::float / GREATEST(total_claims, 1)
			WHERE viewer_id = $1`, viewerID)
	case model.ClaimRejected:
		_, err = tx.Exec(ctx, `
			UPDATE viewers
			SET wallet_balance = GREATEST(wallet_balance - $1, 0),
			    donation_total = GREATEST(donation_total - $2, 0),
			    accuracy_rate = confirmed_claims::float / GREATEST(total_claims, 1)
			WHERE viewer_id = $3`, wallet, donation, viewerID)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// HasMegaClaim reports whether the viewer holds a non-rejected mega-tier
// claim for the ad. The open path uses it to refuse a countdown for a slot
// the catalog already shows as consumed.
func (r *ClaimRepo) HasMegaClaim(ctx context.Context, viewerID, adID string) (bool, error) {
	var claimed bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM claims
			WHERE viewer_id = $1 AND ad_id = $2 AND ad_type = $3 AND status <> 'rejected'
		)`, viewerID, adID, model.AdTypeMega).Scan(&claimed)
	return claimed, err
}

// MegaClaimedAdIDs returns the ad IDs of non-rejected mega-tier claims for a
// viewer. This is the permanent completion set for the accumulating pool:
// unlike the daily set it never resets with the day.
func (r *ClaimRepo) MegaClaimedAdIDs(ctx context.Context, viewerID string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ad_id FROM claims
		WHERE viewer_id = $1 AND ad_type = $2 AND status <> 'rejected'`,
		viewerID, model.AdTypeMega)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make(map[string]bool)
	for rows.Next() {
		var adID string
		if err := rows.Scan(&adID); err != nil {
			return nil, err
		}
		claimed[adID] = true
	}
	return claimed, rows.Err()
}
