package service

import (
	"math"
	"testing"
	"time"

	"github.com/publihazclick/publihazclick-sub000/internal/model"
)

func TestAgeFactor(t *testing.T) {
	svc := NewTrustService()

	tests := []struct {
		name    string
		daysAgo int
		wantMin float64
		wantMax float64
	}{
		{"brand new account", 0, 0.0, 0.02},
		{"1 day old", 1, 0.01, 0.03},
		{"30 days old", 30, 0.49, 0.51},
		{"60 days old", 60, 0.99, 1.0},
		{"120 days old (capped)", 120, 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firstSeen := time.Now().AddDate(0, 0, -tt.daysAgo)
			got := svc.AgeFactor(firstSeen)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("AgeFactor(%d days ago) = %.4f, want [%.2f, %.2f]", tt.daysAgo, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestAccuracyFactor(t *testing.T) {
	svc := NewTrustService()

	tests := []struct {
		name         string
		accuracyRate float64
		totalClaims  int
		want         float64
	}{
		{"fewer than 10 claims, uses default", 0.9, 5, 0.5},
		{"exactly 10 claims, uses actual", 0.8, 10, 0.8},
		{"many claims, high accuracy", 0.95, 200, 0.95},
		{"many claims, low accuracy", 0.2, 50, 0.2},
		{"zero claims, uses default", 0.0, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.AccuracyFactor(tt.accuracyRate, tt.totalClaims)
			if got != tt.want {
				t.Errorf("AccuracyFactor(%.2f, %d) = %.2f, want %.2f", tt.accuracyRate, tt.totalClaims, got, tt.want)
			}
		})
	}
}

func TestVolumeFactor(t *testing.T) {
	svc := NewTrustService()

	tests := []struct {
		name        string
		totalClaims int
		want        float64
	}{
		{"zero claims", 0, 0.0},
		{"50 claims", 50, 0.5},
		{"100 claims", 100, 1.0},
		{"200 claims (capped)", 200, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.VolumeFactor(tt.totalClaims)
			if got != tt.want {
				t.Errorf("VolumeFactor(%d) = %.2f, want %.2f", tt.totalClaims, got, tt.want)
			}
		})
	}
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestComputeTrustScore(t *testing.T) {
	svc := NewTrustService()

	tests := []struct {
		name    string
		viewer  model.Viewer
		wantMin float64
		wantMax float64
	}{
		{
			name: "brand new viewer",
			viewer: model.Viewer{
				FirstSeen:    time.Now(),
				AccuracyRate: 0.0,
				TotalClaims:  0,
			},
			// age=0, accuracy=0.5 (default <10 claims), volume=0
			// 0*0.3 + 0.5*0.5 + 0*0.2 = 0.25
			wantMin: 0.24,
			wantMax: 0.26,
		},
		{
			name: "veteran accurate viewer",
			viewer: model.Viewer{
				FirstSeen:    time.Now().AddDate(0, 0, -120),
				AccuracyRate: 0.95,
				TotalClaims:  200,
			},
			// age=1.0, accuracy=0.95, volume=1.0
			// 1.0*0.3 + 0.95*0.5 + 1.0*0.2 = 0.975
			wantMin: 0.97,
			wantMax: 0.98,
		},
		{
			name: "mid-tier viewer",
			viewer: model.Viewer{
				FirstSeen:    time.Now().AddDate(0, 0, -30),
				AccuracyRate: 0.7,
				TotalClaims:  50,
			},
			// age=0.5, accuracy=0.7, volume=0.5
			// 0.5*0.3 + 0.7*0.5 + 0.5*0.2 = 0.60
			wantMin: 0.59,
			wantMax: 0.61,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.ComputeTrustScore(&tt.viewer)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("ComputeTrustScore() = %.4f, want [%.2f, %.2f]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestEffectiveWeight(t *testing.T) {
	svc := NewTrustService()

	veteran := model.Viewer{
		FirstSeen:    time.Now().AddDate(0, 0, -120),
		AccuracyRate: 0.95,
		TotalClaims:  200,
	}
	trust := svc.ComputeTrustScore(&veteran)

	tests := []struct {
		name   string
		viewer model.Viewer
		want   float64
	}{
		{
			name:   "regular viewer",
			viewer: veteran,
			want:   trust * BaseWeightRegular,
		},
		{
			name: "flagged viewer weighs zero",
			viewer: func() model.Viewer {
				v := veteran
				v.IsFlagged = true
				return v
			}(),
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.EffectiveWeight(&tt.viewer)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("EffectiveWeight() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestShouldConfirm(t *testing.T) {
	svc := NewTrustService()

	tests := []struct {
		name   string
		viewer model.Viewer
		want   bool
	}{
		{
			// A fresh account scores 0.25, above the 0.2 threshold: first
			// claims are not punished for being first.
			name: "brand new viewer is confirmed",
			viewer: model.Viewer{
				FirstSeen:   time.Now(),
				TotalClaims: 0,
			},
			want: true,
		},
		{
			name: "flagged viewer is rejected regardless of score",
			viewer: model.Viewer{
				FirstSeen:    time.Now().AddDate(0, 0, -120),
				AccuracyRate: 0.95,
				TotalClaims:  200,
				IsFlagged:    true,
			},
			want: false,
		},
		{
			name: "rejection streak drags below threshold",
			viewer: model.Viewer{
				FirstSeen:    time.Now(),
				AccuracyRate: 0.1,
				TotalClaims:  50,
			},
			// age=0, accuracy=0.1, volume=0.5 → 0 + 0.05 + 0.1 = 0.15
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.ShouldConfirm(&tt.viewer); got != tt.want {
				t.Errorf("ShouldConfirm() = %v, want %v", got, tt.want)
			}
		})
	}
}
