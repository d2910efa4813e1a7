// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// DashboardFetcher reads the analytics backend's dashboard and reference
// endpoints.
type DashboardFetcher interface {
	FetchLiveDashboard(ctx context.Context, a domain.Assumptions) (*domain.DashboardSnapshot, error)
	FetchEveDrivers(ctx context.Context, scenarios []string) ([]domain.DriverRow, error)
	FetchNiiDrivers(ctx context.Context, scenarios []string, breakdown string) ([]domain.DriverRow, error)
	FetchYieldCurves(ctx context.Context, scenario string) ([]domain.YieldCurvePoint, error)
	FetchPortfolioComposition(ctx context.Context) (*domain.PortfolioComposition, error)
	FetchNetPositions(ctx context.Context, scenario string) ([]domain.NetPosition, error)
	FetchRepricingGap(ctx context.Context) ([]domain.RepricingGapBucket, error)
	FetchRepricingDrillDown(ctx context.Context, bucket string) ([]domain.RepricingInstrument, error)
	FetchCashflowLadder(ctx context.Context, q domain.LadderQuery) (json.RawMessage, error)
	FetchLadderInstrumentTypes(ctx context.Context) ([]string, error)
}

// InstrumentStore persists loans, deposits and derivatives. The backend
// owns the records; this process never stores them.
type InstrumentStore interface {
	ListInstruments(ctx context.Context, kind domain.InstrumentKind) ([]domain.InstrumentRecord, error)
	CreateInstrument(ctx context.Context, kind domain.InstrumentKind, payload any) error
	UpdateInstrument(ctx context.Context, kind domain.InstrumentKind, id string, payload any) error
	DeleteInstrument(ctx context.Context, kind domain.InstrumentKind, id string) error
}

// BackendPinger measures backend reachability for health checks.
type BackendPinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string) int
}
