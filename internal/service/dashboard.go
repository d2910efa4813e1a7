package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/port"
	"github.com/boddenberg/irrbb-bfa-go/internal/viewmodel"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/dashboard")

const (
	snapshotPrefix  = "snapshot:"
	ladderTypesKey  = "ladder-instrument-types"
	durationProfile = "duration-profile"
)

// Dashboard builds the read-side views of the IRRBB dashboard from the
// analytics backend.
type Dashboard struct {
	backend port.DashboardFetcher
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger

	// gen is bumped by Refresh; fetches that started under an older
	// generation are not cached.
	mu  sync.Mutex
	gen uint64
}

// NewDashboard creates the dashboard service with all dependencies injected.
func NewDashboard(
	backend port.DashboardFetcher,
	cache port.Cache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		backend: backend,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// OrEmpty degrades a failed optional fetch to empty, logging the failure.
// ok reports whether v came from the backend.
func OrEmpty[T any](logger *zap.Logger, what string, v T, err error, empty T) (T, bool) {
	if err != nil {
		logger.Warn("optional fetch failed, showing empty",
			zap.String("what", what),
			zap.Error(err),
		)
		return empty, false
	}
	return v, true
}

// NormalizeScenarios trims the selection and defaults it to Base Case.
func NormalizeScenarios(scenarios []string) []string {
	out := make([]string, 0, len(scenarios))
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		out = append(out, domain.BaseCase)
	}
	return out
}

func snapshotKey(a domain.Assumptions) string {
	return fmt.Sprintf("%s%d:%g:%g", snapshotPrefix, a.NMDEffectiveMaturityYears, a.NMDDepositBeta, a.PrepaymentRate)
}

// Snapshot returns the live dashboard under the given assumptions, cached
// until the next Refresh.
func (d *Dashboard) Snapshot(ctx context.Context, a domain.Assumptions) (*domain.DashboardSnapshot, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Snapshot")
	defer span.End()

	key := snapshotKey(a)
	if cached, ok := d.cache.Get(key); ok {
		if snap, ok := cached.(*domain.DashboardSnapshot); ok {
			d.metrics.IncrCacheHit("snapshot")
			return snap, nil
		}
	}
	d.metrics.IncrCacheMiss("snapshot")

	gen := d.generation()
	snap, err := d.backend.FetchLiveDashboard(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("live dashboard fetch: %w", err)
	}
	d.store(gen, key, snap)
	return snap, nil
}

// Overview loads the snapshot, composition and yield curves concurrently.
// Only the snapshot is required; the other two fall back to empty with a
// warning.
func (d *Dashboard) Overview(ctx context.Context, a domain.Assumptions) (*domain.Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "Dashboard.Overview")
	defer span.End()

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("overview", time.Since(start))
	}()

	var (
		mu  sync.Mutex
		out = &domain.Overview{Warnings: []string{}}
	)
	warn := func(msg string) {
		mu.Lock()
		out.Warnings = append(out.Warnings, msg)
		mu.Unlock()
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap, err := d.Snapshot(gCtx, a)
		if err != nil {
			d.logger.Error("failed to fetch live dashboard", zap.Error(err))
			return err
		}
		out.Snapshot = snap
		return nil
	})

	g.Go(func() error {
		comp, err := d.backend.FetchPortfolioComposition(gCtx)
		comp, ok := OrEmpty(d.logger, "composition", comp, err, domain.EmptyComposition())
		if !ok {
			warn("portfolio composition unavailable")
		}
		out.Composition = comp
		return nil
	})

	g.Go(func() error {
		curves, err := d.backend.FetchYieldCurves(gCtx, "")
		curves, ok := OrEmpty(d.logger, "yield-curves", curves, err, []domain.YieldCurvePoint{})
		if !ok {
			warn("yield curves unavailable")
		}
		out.YieldCurves = curves
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.Pies = domain.OverviewPies{
		Loans:       viewmodel.PieSlices(out.Snapshot.LoanComposition),
		Deposits:    viewmodel.PieSlices(out.Snapshot.DepositComposition),
		Derivatives: viewmodel.PieSlices(out.Snapshot.DerivativeComposition),
	}
	out.Tones = domain.SensitivityTones{
		EVE: string(viewmodel.SensitivityTone(out.Snapshot.EVESensitivity)),
		NII: string(viewmodel.SensitivityTone(out.Snapshot.NIISensitivity)),
	}
	return out, nil
}

// EveDrivers returns the EVE rows for the selected scenarios pivoted by
// instrument type, showing field per scenario (base PV when empty) next to
// a duration column.
func (d *Dashboard) EveDrivers(ctx context.Context, scenarios []string, field viewmodel.Field) (*domain.DriverComparison, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.EveDrivers")
	defer span.End()

	scenarios = NormalizeScenarios(scenarios)
	if field == "" {
		field = viewmodel.FieldBasePV
	}
	span.SetAttributes(attribute.StringSlice("scenarios", scenarios), attribute.String("field", string(field)))

	rows, err := d.backend.FetchEveDrivers(ctx, scenarios)
	if err != nil {
		d.logger.Warn("eve drivers fetch failed", zap.Strings("scenario", scenarios), zap.Error(err))
		return nil, err
	}
	return &domain.DriverComparison{
		Field:     string(field),
		Scenarios: scenarios,
		Rows:      viewmodel.PivotEve(rows).Table(scenarios, field),
		Drivers:   rows,
	}, nil
}

// NiiDrivers returns the NII rows pivoted by instrument type and breakdown
// value, showing field per scenario (NII contribution when empty).
func (d *Dashboard) NiiDrivers(ctx context.Context, scenarios []string, breakdown string, field viewmodel.Field) (*domain.DriverComparison, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.NiiDrivers")
	defer span.End()

	scenarios = NormalizeScenarios(scenarios)
	if breakdown == "" {
		breakdown = domain.BreakdownInstrument
	}
	if field == "" {
		field = viewmodel.FieldNIIContribution
	}
	span.SetAttributes(
		attribute.StringSlice("scenarios", scenarios),
		attribute.String("breakdown", breakdown),
		attribute.String("field", string(field)),
	)

	rows, err := d.backend.FetchNiiDrivers(ctx, scenarios, breakdown)
	if err != nil {
		d.logger.Warn("nii drivers fetch failed",
			zap.Strings("scenario", scenarios),
			zap.String("breakdown", breakdown),
			zap.Error(err),
		)
		return nil, err
	}
	return &domain.DriverComparison{
		Field:     string(field),
		Scenarios: scenarios,
		Rows:      viewmodel.PivotNii(rows).Table(scenarios, field),
		Drivers:   rows,
	}, nil
}

// DurationProfile charts base-case durations for one instrument type.
func (d *Dashboard) DurationProfile(ctx context.Context, instrumentType string) (*domain.DurationProfile, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.DurationProfile")
	defer span.End()

	instrumentType = strings.TrimSpace(instrumentType)
	if instrumentType == "" {
		return nil, &domain.ErrValidation{Field: "type", Message: "required"}
	}
	rows, err := d.backend.FetchEveDrivers(ctx, []string{domain.BaseCase})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", durationProfile, err)
	}
	p := viewmodel.DurationProfile(rows, instrumentType)
	return &p, nil
}

// YieldCurves passes through the curve points for scenario ("" for all).
func (d *Dashboard) YieldCurves(ctx context.Context, scenario string) ([]domain.YieldCurvePoint, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.YieldCurves")
	defer span.End()
	return d.backend.FetchYieldCurves(ctx, scenario)
}

// Composition returns the portfolio composition with loan and deposit
// category slices.
func (d *Dashboard) Composition(ctx context.Context) (*domain.CompositionView, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Composition")
	defer span.End()

	comp, err := d.backend.FetchPortfolioComposition(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.CompositionView{
		PortfolioComposition: comp,
		LoanSlices:           viewmodel.CompositionSlices(comp.Records, domain.CompositionLoan),
		DepositSlices:        viewmodel.CompositionSlices(comp.Records, domain.CompositionDeposit),
	}, nil
}

// NetPositions passes through the per-bucket net positions.
func (d *Dashboard) NetPositions(ctx context.Context, scenario string) ([]domain.NetPosition, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.NetPositions")
	defer span.End()
	return d.backend.FetchNetPositions(ctx, scenario)
}

// RepricingGap passes through the gap chart buckets.
func (d *Dashboard) RepricingGap(ctx context.Context) ([]domain.RepricingGapBucket, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.RepricingGap")
	defer span.End()
	return d.backend.FetchRepricingGap(ctx)
}

// RepricingDrillDown lists the instruments in one gap bucket.
func (d *Dashboard) RepricingDrillDown(ctx context.Context, bucket string) ([]domain.RepricingInstrument, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.RepricingDrillDown")
	defer span.End()
	span.SetAttributes(attribute.String("bucket", bucket))
	return d.backend.FetchRepricingDrillDown(ctx, bucket)
}

// CashflowLadder fetches raw ladder rows and buckets them by groupBy.
func (d *Dashboard) CashflowLadder(ctx context.Context, q domain.LadderQuery, groupBy domain.GroupBy) (*domain.CashflowLadder, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.CashflowLadder")
	defer span.End()

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("cashflow-ladder", time.Since(start))
	}()

	raw, err := d.backend.FetchCashflowLadder(ctx, q)
	if err != nil {
		return nil, err
	}
	rows, malformed := viewmodel.DecodeCashflowRows(raw)
	ladder, err := viewmodel.BucketCashflows(rows, groupBy)
	if err != nil {
		return nil, err
	}
	ladder.Skipped += malformed
	if ladder.Skipped > 0 {
		d.logger.Warn("cashflow rows skipped",
			zap.Int("skipped", ladder.Skipped),
			zap.String("scenario", q.Scenario),
			zap.String("instrument_type", q.InstrumentType),
		)
	}
	return ladder, nil
}

// LadderInstrumentTypes returns the ladder dropdown options, cached until
// the next Refresh.
func (d *Dashboard) LadderInstrumentTypes(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.LadderInstrumentTypes")
	defer span.End()

	if cached, ok := d.cache.Get(ladderTypesKey); ok {
		if types, ok := cached.([]string); ok {
			d.metrics.IncrCacheHit("ladder-types")
			return types, nil
		}
	}
	d.metrics.IncrCacheMiss("ladder-types")

	gen := d.generation()
	types, err := d.backend.FetchLadderInstrumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	d.store(gen, ladderTypesKey, types)
	return types, nil
}

func (d *Dashboard) generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// store caches v unless a Refresh happened since gen was read.
func (d *Dashboard) store(gen uint64, key string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		d.logger.Debug("discarding view fetched before refresh", zap.String("key", key))
		return
	}
	d.cache.Set(key, v)
}

// Refresh drops every cached view so the next read goes to the backend.
// Fetches still in flight when it runs are served to their callers but
// never cached.
func (d *Dashboard) Refresh() {
	d.mu.Lock()
	d.gen++
	n := d.cache.DeletePrefix("")
	d.mu.Unlock()
	d.logger.Debug("dashboard cache invalidated", zap.Int("entries", n))
}
