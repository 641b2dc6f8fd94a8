package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDisabledCacheIsNoOp(t *testing.T) {
	cache := NewCacheService("")
	ctx := context.Background()

	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_misses"})
	cache.InstrumentWith(hits, misses)

	data, err := cache.GetCatalog(ctx, "landing", "viewer-1", "2026-09-01")
	if data != nil || err != nil {
		t.Errorf("GetCatalog() = (%v, %v), want (nil, nil)", data, err)
	}
	data, err = cache.GetViewer(ctx, "viewer-1")
	if data != nil || err != nil {
		t.Errorf("GetViewer() = (%v, %v), want (nil, nil)", data, err)
	}
	if err := cache.SetCatalog(ctx, "landing", "viewer-1", "2026-09-01", map[string]int{"a": 1}); err != nil {
		t.Errorf("SetCatalog() error = %v", err)
	}
	if err := cache.InvalidateViewer(ctx, "viewer-1", "2026-09-01"); err != nil {
		t.Errorf("InvalidateViewer() error = %v", err)
	}

	// A disabled cache never reaches Redis, so it counts neither hits nor
	// misses.
	if n := testutil.ToFloat64(hits); n != 0 {
		t.Errorf("hits = %v, want 0", n)
	}
	if n := testutil.ToFloat64(misses); n != 0 {
		t.Errorf("misses = %v, want 0", n)
	}
}

func TestCacheCountersNilSafe(t *testing.T) {
	cache := NewCacheService("")
	cache.countHit()
	cache.countMiss()
}

func TestCacheKeyFormats(t *testing.T) {
	if got := catalogKey("user", "viewer-1", "2026-09-01"); got != "catalog:user:viewer-1:2026-09-01" {
		t.Errorf("catalogKey() = %q", got)
	}
	if got := viewerKey("viewer-1"); got != "viewer:viewer-1" {
		t.Errorf("viewerKey() = %q", got)
	}
}
