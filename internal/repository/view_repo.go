package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

// ErrAlreadyViewed is returned when a view insert collides with an existing
// credited view for the same (viewer, ad, day).
var ErrAlreadyViewed = errors.New("ad already viewed today")

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

// GetSession returns the tracking session for a viewer, or pgx.ErrNoRows.
func (r *ViewRepo) GetSession(ctx context.Context, viewerID string) (*model.ViewerSession, error) {
	var s model.ViewerSession
	err := r.pool.QueryRow(ctx, `
		SELECT viewer_id, client_ip, fingerprint_hash, first_visit, last_seen
		FROM viewer_sessions
		WHERE viewer_id = $1`, viewerID).Scan(
		&s.ViewerID, &s.ClientIP, &s.FingerprintHash, &s.FirstVisit, &s.LastSeen,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertSession creates or refreshes the session row for a viewer.
func (r *ViewRepo) UpsertSession(ctx context.Context, s model.ViewerSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO viewer_sessions (viewer_id, client_ip, fingerprint_hash, first_visit, last_seen)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (viewer_id) DO UPDATE
		SET client_ip = EXCLUDED.client_ip,
		    fingerprint_hash = EXCLUDED.fingerprint_hash,
		    last_seen = NOW()`,
		s.ViewerID, s.ClientIP, s.FingerprintHash)
	return err
}

// ReplaceSession discards a stale session (fetched IP no longer matches) and
// starts a fresh one. View rows are untouched: the ledger outlives the
// session that wrote it.
func (r *ViewRepo) ReplaceSession(ctx context.Context, s model.ViewerSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM viewer_sessions WHERE viewer_id = $1`, s.ViewerID)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO viewer_sessions (viewer_id, client_ip, fingerprint_hash, first_visit, last_seen)
		VALUES ($1, $2, $3, NOW(), NOW())`,
		s.ViewerID, s.ClientIP, s.FingerprintHash)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateSessionIP rewrites the stored IP without touching view history.
func (r *ViewRepo) UpdateSessionIP(ctx context.Context, viewerID, clientIP string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE viewer_sessions SET client_ip = $1, last_seen = NOW()
		WHERE viewer_id = $2`, clientIP, viewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HasViewedToday reports whether a credited view exists for (viewer, ad) on
// the given reference-zone day.
func (r *ViewRepo) HasViewedToday(ctx context.Context, viewerID, adID, day string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ad_views
			WHERE viewer_id = $1 AND ad_id = $2 AND view_day = $3
		)`, viewerID, adID, day).Scan(&exists)
	return exists, err
}

// RecordView inserts a credited view. The unique index on
// (viewer_id, ad_id, view_day) makes the daily dedup authoritative even
// under concurrent claims; a collision surfaces as ErrAlreadyViewed.
func (r *ViewRepo) RecordView(ctx context.Context, v model.AdView) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO ad_views (viewer_id, ad_id, view_day, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (viewer_id, ad_id, view_day) DO NOTHING`,
		v.ViewerID, v.AdID, v.ViewDay, v.ClientIP, v.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyViewed
	}
	return nil
}

// CountViewsForDay returns how many ads the viewer has been credited for on
// the given day.
func (r *ViewRepo) CountViewsForDay(ctx context.Context, viewerID, day string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM ad_views WHERE viewer_id = $1 AND view_day = $2`,
		viewerID, day).Scan(&n)
	return n, err
}

// ViewedAdIDs returns the set of ad IDs the viewer was credited for on the
// given day. This is the daily completion set for catalog slots.
func (r *ViewRepo) ViewedAdIDs(ctx context.Context, viewerID, day string) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ad_id FROM ad_views WHERE viewer_id = $1 AND view_day = $2`,
		viewerID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	viewed := make(map[string]bool)
	for rows.Next() {
		var adID string
		if err := rows.Scan(&adID); err != nil {
			return nil, err
		}
		viewed[adID] = true
	}
	return viewed, rows.Err()
}

// PruneStaleDays drops view rows from previous reference-zone days. Claims
// remain the permanent audit record; ad_views only answers "today".
func (r *ViewRepo) PruneStaleDays(ctx context.Context, viewerID, today string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM ad_views WHERE viewer_id = $1 AND view_day <> $2`,
		viewerID, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PruneAllStale is the sweep-worker variant of PruneStaleDays covering every
// viewer at once.
func (r *ViewRepo) PruneAllStale(ctx context.Context, today string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ad_views WHERE view_day <> $1`, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClearHistory removes all of a viewer's view rows. Admin escape hatch:
// clearing history re-opens same-day claims, so callers must gate it.
func (r *ViewRepo) ClearHistory(ctx context.Context, viewerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ad_views WHERE viewer_id = $1`, viewerID)
	return err
}

// TouchSession bumps last_seen for idle-session sweeping.
func (r *ViewRepo) TouchSession(ctx context.Context, viewerID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE viewer_sessions SET last_seen = NOW() WHERE viewer_id = $1`, viewerID)
	return err
}

// DeleteIdleSessions removes sessions unseen since the cutoff.
func (r *ViewRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM viewer_sessions WHERE last_seen < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
