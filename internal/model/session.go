package model

import "time"

// AdView is one credited view: at most one per (viewer, ad, reference-zone
// day). The database enforces that uniqueness; services only read it.
type AdView struct {
	ID        int64     `json:"id"`
	ViewerID  string    `json:"viewerId"`
	AdID      string    `json:"adId"`
	ViewDay   string    `json:"viewDay"`
	ClientIP  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// ViewerSession is the per-client tracking record. A session is keyed by
// viewer ID; the stored IP is a heuristic anti-reuse signal, not a security
// boundary — when the fetched IP no longer matches, the session is replaced.
type ViewerSession struct {
	ViewerID        string    `json:"viewerId"`
	ClientIP        string    `json:"-"`
	FingerprintHash string    `json:"-"`
	FirstVisit      time.Time `json:"firstVisit"`
	LastSeen        time.Time `json:"lastSeen"`
}

// SessionRequest is the API request body for session initialization.
type SessionRequest struct {
	ViewerID    string `json:"viewerId"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// SessionResponse is returned after session initialization or IP refresh.
type SessionResponse struct {
	ViewerID   string `json:"viewerId"`
	Fresh      bool   `json:"fresh"`
	ViewsToday int    `json:"viewsToday"`
	Day        string `json:"day"`
}
