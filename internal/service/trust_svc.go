package service

import (
	"math"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

const (
	ageWeight      = 0.30
	accuracyWeight = 0.50
	volumeWeight   = 0.20

	// Full age factor after 60 days
	ageDaysMax = 60.0

	// Default accuracy for viewers with fewer than 10 resolved claims
	defaultAccuracy      = 0.5
	minClaimsForAccuracy = 10

	// Full volume factor at 100 claims
	volumeClaimsMax = 100.0

	// Claim base weights
	BaseWeightRegular = 1.0
	BaseWeightFlagged = 0.0

	// Pending claims from viewers at or above this trust score are
	// confirmed by the claim worker; below it they are rejected.
	ConfirmTrustThreshold = 0.2
)

type TrustService struct{}

func NewTrustService() *TrustService {
	return &TrustService{}
}

// ComputeTrustScore calculates the trust score for a viewer:
//
//	trust_score = (age_factor * 0.30) + (accuracy_factor * 0.50) + (volume_factor * 0.20)
//
// A brand-new viewer lands at 0.25, above the confirm threshold: new
// accounts are not punished, but a streak of rejected claims drags the
// accuracy factor down until the worker stops confirming.
func (s *TrustService) ComputeTrustScore(v *model.Viewer) float64 {
	ageFactor := s.AgeFactor(v.FirstSeen)
	accuracyFactor := s.AccuracyFactor(v.AccuracyRate, v.TotalClaims)
	volumeFactor := s.VolumeFactor(v.TotalClaims)

	score := (ageFactor * ageWeight) + (accuracyFactor * accuracyWeight) + (volumeFactor * volumeWeight)
	return math.Min(score, 1.0)
}

// AgeFactor returns a value between 0.0 and 1.0 based on account age.
// Full weight (1.0) after 60 days.
func (s *TrustService) AgeFactor(firstSeen time.Time) float64 {
	days := time.Since(firstSeen).Hours() / 24
	return math.Min(days/ageDaysMax, 1.0)
}

// AccuracyFactor returns the confirmed-claim rate for viewers with 10+
// claims, or the default 0.5 for viewers with fewer.
func (s *TrustService) AccuracyFactor(accuracyRate float64, totalClaims int) float64 {
	if totalClaims < minClaimsForAccuracy {
		return defaultAccuracy
	}
	return accuracyRate
}

// VolumeFactor returns a value between 0.0 and 1.0 based on total claims.
// Full weight (1.0) at 100+ claims.
func (s *TrustService) VolumeFactor(totalClaims int) float64 {
	return math.Min(float64(totalClaims)/volumeClaimsMax, 1.0)
}

// EffectiveWeight is the viewer's trust score scaled by their base weight.
// Flagged viewers weigh zero regardless of history.
func (s *TrustService) EffectiveWeight(v *model.Viewer) float64 {
	return s.ComputeTrustScore(v) * s.BaseWeight(v)
}

// BaseWeight returns the base weight multiplier for a viewer.
func (s *TrustService) BaseWeight(v *model.Viewer) float64 {
	if v.IsFlagged {
		return BaseWeightFlagged
	}
	return BaseWeightRegular
}

// ShouldConfirm decides a pending claim's fate from the viewer's current
// standing.
func (s *TrustService) ShouldConfirm(v *model.Viewer) bool {
	if v.IsFlagged {
		return false
	}
	return s.ComputeTrustScore(v) >= ConfirmTrustThreshold
}
