package observability_test

import (
	"testing"

	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
)

func TestMetricsSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrBackendRequest("eve-drivers")
	m.IncrBackendRequest("eve-drivers")
	m.IncrBackendRequest("live-data")
	m.IncrBackendRequest("loans")
	m.IncrBackendError("live-data")
	m.IncrCacheHit("snapshot")
	m.IncrCacheMiss("snapshot")
	m.IncrCacheMiss("instrument-types")
	m.IncrSuperseded("eve-drivers")
	m.IncrInstrumentMutation("loan", "create", "success")

	snap := m.Snapshot()

	if snap.BackendRequests != 4 {
		t.Errorf("expected 4 backend requests, got %d", snap.BackendRequests)
	}
	if snap.BackendErrors != 1 {
		t.Errorf("expected 1 backend error, got %d", snap.BackendErrors)
	}
	if snap.BackendErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", snap.BackendErrorRate)
	}
	if snap.CacheHitRate < 0.33 || snap.CacheHitRate > 0.34 {
		t.Errorf("expected cache hit rate ~0.333, got %f", snap.CacheHitRate)
	}
	if snap.SupersededRequests != 1 || snap.InstrumentMutations != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestMetricsSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().Snapshot()
	if snap.BackendErrorRate != 0 || snap.CacheHitRate != 0 {
		t.Errorf("expected zero rates on empty registry, got %+v", snap)
	}
}

func TestNewLogger_UnknownLevelFallsBack(t *testing.T) {
	logger := observability.NewLogger("loud")
	if logger == nil {
		t.Fatal("expected logger")
	}
	if logger.Core().Enabled(-1) {
		t.Error("debug should be disabled at info level")
	}
}
