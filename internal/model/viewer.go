package model

import "time"

// Viewer represents a rewards-platform user with wallet and trust metadata.
type Viewer struct {
	ViewerID        string    `json:"viewerId"`
	WalletBalance   float64   `json:"walletBalance"`
	DonationTotal   float64   `json:"donationTotal"`
	TrustScore      float64   `json:"trustScore"`
	AccuracyRate    float64   `json:"accuracyRate"`
	TotalClaims     int       `json:"totalClaims"`
	ConfirmedClaims int       `json:"-"`
	FirstSeen       time.Time `json:"-"`
	LastActive      time.Time `json:"-"`
	IsFlagged       bool      `json:"-"`
	FlagReason      string    `json:"-"`
}

// ViewerResponse is the API response for viewer lookups.
type ViewerResponse struct {
	ViewerID      string  `json:"viewerId"`
	WalletBalance float64 `json:"walletBalance"`
	DonationTotal float64 `json:"donationTotal"`
	TrustScore    float64 `json:"trustScore"`
	TotalClaims   int     `json:"totalClaims"`
	AccuracyRate  float64 `json:"accuracyRate"`
	AccountAge    int     `json:"accountAge"`
}

// StatsResponse is the API response for global platform statistics.
type StatsResponse struct {
	TotalAds         int            `json:"totalAds"`
	TotalViewers     int            `json:"totalViewers"`
	TotalClaims      int            `json:"totalClaims"`
	ConfirmedClaims  int            `json:"confirmedClaims"`
	DonationPool     float64        `json:"donationPool"`
	ActiveViewers24h int            `json:"activeViewers24h"`
	ClaimsByAdType   map[string]int `json:"claimsByAdType"`
}
