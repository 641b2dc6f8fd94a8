package model

import "time"

// AdType is the closed set of ad tiers. New tiers must be added here and to
// every switch below so the compiler (and exhaustive switches) catch gaps.
type AdType string

const (
	AdTypeMega         AdType = "mega"
	AdTypeStandardHigh AdType = "standard_high"
	AdTypeStandardLow  AdType = "standard_low"
	AdTypeMini         AdType = "mini"
)

// AdTypes lists all valid ad tiers in display order.
var AdTypes = []AdType{AdTypeMega, AdTypeStandardHigh, AdTypeStandardLow, AdTypeMini}

// Valid reports whether t is a known ad tier.
func (t AdType) Valid() bool {
	switch t {
	case AdTypeMega, AdTypeStandardHigh, AdTypeStandardLow, AdTypeMini:
		return true
	}
	return false
}

// WatchSeconds returns the required watch duration for the tier.
// The mini tier runs a shorter countdown; every other tier requires a full minute.
func (t AdType) WatchSeconds() int {
	if t == AdTypeMini {
		return 30
	}
	return 60
}

// Label returns the human-readable tier name.
func (t AdType) Label() string {
	switch t {
	case AdTypeMega:
		return "Mega"
	case AdTypeStandardHigh:
		return "Standard Plus"
	case AdTypeStandardLow:
		return "Standard"
	case AdTypeMini:
		return "Mini"
	}
	return string(t)
}

// AdStatus is the moderation lifecycle of an ad.
type AdStatus string

const (
	AdStatusPending   AdStatus = "pending"
	AdStatusActive    AdStatus = "active"
	AdStatusPaused    AdStatus = "paused"
	AdStatusRejected  AdStatus = "rejected"
	AdStatusCompleted AdStatus = "completed"
)

// Ad represents a published PTC ad. Immutable for the duration of a single
// view; moderation state changes happen between views.
type Ad struct {
	ID           string    `json:"id"`
	AdvertiserID string    `json:"advertiserId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	VideoURL     string    `json:"videoUrl,omitempty"`
	TargetURL    string    `json:"targetUrl"`
	RewardAmount float64   `json:"rewardAmount"`
	Type         AdType    `json:"type"`
	Location     string    `json:"location"`
	DailyLimit   int       `json:"dailyLimit"`
	Status       AdStatus  `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"lastUpdated"`
}

// Surfaces an ad catalog can be scoped to.
const (
	SurfaceLanding    = "landing"
	SurfaceUser       = "user"
	SurfaceAdvertiser = "advertiser"
)

// ValidSurface reports whether s is a known catalog surface.
func ValidSurface(s string) bool {
	return s == SurfaceLanding || s == SurfaceUser || s == SurfaceAdvertiser
}
