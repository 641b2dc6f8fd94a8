package model

import "time"

// FlatDonationAmount is credited to the donation pool on every successful
// claim, independent of the ad's reward size. Deliberate business policy,
// preserved as a constant pending product confirmation.
const FlatDonationAmount = 10.0

// ClaimStatus is the two-phase lifecycle of a reward claim: credits are
// written optimistically as pending, then confirmed or rejected by the
// claim worker after fraud checks.
type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "pending"
	ClaimConfirmed ClaimStatus = "confirmed"
	ClaimRejected  ClaimStatus = "rejected"
)

// RewardClaim is one credited ad view's monetary outcome.
type RewardClaim struct {
	ID              string      `json:"id"`
	ViewerID        string      `json:"viewerId"`
	AdID            string      `json:"adId"`
	AdType          AdType      `json:"adType"`
	WalletAmount    float64     `json:"walletAmount"`
	DonationAmount  float64     `json:"donationAmount"`
	DurationMs      int64       `json:"durationMs,omitempty"`
	Status          ClaimStatus `json:"status"`
	IPHash          string      `json:"-"`
	UserAgent       string      `json:"-"`
	FingerprintHash string      `json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	ResolvedAt      *time.Time  `json:"resolvedAt,omitempty"`
}

// ClaimRequest is the credit RPC request body. Field names are
// wire-compatible with the legacy record_ptc_click procedure.
type ClaimRequest struct {
	UserID             string `json:"userId"`
	TaskID             string `json:"taskId"`
	IPAddress          string `json:"ipAddress,omitempty"`
	UserAgent          string `json:"userAgent,omitempty"`
	SessionFingerprint string `json:"sessionFingerprint,omitempty"`
	ClickDurationMs    int64  `json:"clickDurationMs,omitempty"`
}

// ClaimResponse is the credit RPC response body.
type ClaimResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Reward  *RewardSummary `json:"reward,omitempty"`
}

// RewardSummary is the emitted reward split for a successful claim.
type RewardSummary struct {
	AdID           string  `json:"adId"`
	WalletAmount   float64 `json:"walletAmount"`
	DonationAmount float64 `json:"donationAmount"`
	DurationMs     int64   `json:"durationMs,omitempty"`
}
