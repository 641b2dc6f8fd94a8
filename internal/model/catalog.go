package model

// Slot is one viewable ad position in a catalog surface. Unfilled capacity
// is backfilled with placeholder slots: AdID is nil and clicking does
// nothing client-side.
type Slot struct {
	AdID         *string `json:"adId"`
	Title        string  `json:"title"`
	ImageURL     string  `json:"imageUrl,omitempty"`
	RewardAmount float64 `json:"rewardAmount"`
	Type         AdType  `json:"type"`
	Label        string  `json:"label"`
	Viewed       bool    `json:"viewed"`
	Placeholder  bool    `json:"placeholder"`
}

// CatalogResponse is the API response for a catalog surface. Daily pools
// reset with the reference-zone day; the mega pool accumulates until its
// referral-derived capacity is consumed.
type CatalogResponse struct {
	Surface         string            `json:"surface"`
	RequirementsMet bool              `json:"requirementsMet"`
	Daily           map[string][]Slot `json:"daily"`
	Mega            []Slot            `json:"mega"`
	MegaCapacity    int               `json:"megaCapacity"`
	Day             string            `json:"day"`
	GeneratedAt     string            `json:"generatedAt"`
}

// Advertiser carries the business-rule inputs for the advertiser surface:
// the publish-requirements gate and the referral-derived mega capacity.
type Advertiser struct {
	AdvertiserID     string `json:"advertiserId"`
	ActiveAds        int    `json:"activeAds"`
	ActiveBanners    int    `json:"activeBanners"`
	ActiveReferred   int    `json:"activeReferred"`
	HasActivePackage bool   `json:"hasActivePackage"`
}
