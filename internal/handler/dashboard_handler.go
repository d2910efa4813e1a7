package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/irrbb-bfa-go/internal/config"
	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// views serves the read side of the dashboard. Selector-driven views run
// under the tracker so that a newer request from the same session discards
// the older one.
type views struct {
	dash    *service.Dashboard
	tracker *service.Tracker
	metrics *observability.Metrics
	catalog *config.Catalog
	logger  *zap.Logger
}

func guarded[T any](v *views, r *http.Request, view string, fn func(context.Context) (T, error)) (T, error) {
	return service.Guarded(r.Context(), v.tracker, v.metrics, session(r), view, fn)
}

// ============================================================
// Dashboard — GET /v1/dashboard
// ============================================================

func (v *views) overview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
	defer span.End()

	a, err := queryAssumptions(r, v.catalog.DefaultAssumptions)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	span.SetAttributes(
		attribute.Int("assumptions.nmd_maturity", a.NMDEffectiveMaturityYears),
		attribute.Float64("assumptions.nmd_beta", a.NMDDepositBeta),
		attribute.Float64("assumptions.prepayment", a.PrepaymentRate),
	)

	ov, err := guarded(v, r.WithContext(ctx), "dashboard", func(ctx context.Context) (*domain.Overview, error) {
		return v.dash.Overview(ctx, a)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (v *views) eveDrivers(w http.ResponseWriter, r *http.Request) {
	scenarios := queryScenarios(r)
	field, err := queryField(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	cmp, err := guarded(v, r, "eve-drivers", func(ctx context.Context) (*domain.DriverComparison, error) {
		return v.dash.EveDrivers(ctx, scenarios, field)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (v *views) niiDrivers(w http.ResponseWriter, r *http.Request) {
	scenarios := queryScenarios(r)
	breakdown := r.URL.Query().Get("breakdown")
	field, err := queryField(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	cmp, err := guarded(v, r, "nii-drivers", func(ctx context.Context) (*domain.DriverComparison, error) {
		return v.dash.NiiDrivers(ctx, scenarios, breakdown, field)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (v *views) durationProfile(w http.ResponseWriter, r *http.Request) {
	instrumentType := r.URL.Query().Get("type")
	p, err := guarded(v, r, "duration-profile", func(ctx context.Context) (*domain.DurationProfile, error) {
		return v.dash.DurationProfile(ctx, instrumentType)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ============================================================
// Reference data
// ============================================================

func (v *views) yieldCurves(w http.ResponseWriter, r *http.Request) {
	scenario := r.URL.Query().Get("scenario")
	points, err := guarded(v, r, "yield-curves", func(ctx context.Context) ([]domain.YieldCurvePoint, error) {
		return v.dash.YieldCurves(ctx, scenario)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (v *views) composition(w http.ResponseWriter, r *http.Request) {
	c, err := v.dash.Composition(r.Context())
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (v *views) netPositions(w http.ResponseWriter, r *http.Request) {
	scenario := r.URL.Query().Get("scenario")
	positions, err := guarded(v, r, "net-positions", func(ctx context.Context) ([]domain.NetPosition, error) {
		return v.dash.NetPositions(ctx, scenario)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (v *views) repricingGap(w http.ResponseWriter, r *http.Request) {
	buckets, err := v.dash.RepricingGap(r.Context())
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (v *views) repricingDrillDown(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	items, err := guarded(v, r, "repricing-drill-down", func(ctx context.Context) ([]domain.RepricingInstrument, error) {
		return v.dash.RepricingDrillDown(ctx, bucket)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func ladderQuery(r *http.Request) (domain.LadderQuery, domain.GroupBy, error) {
	q := r.URL.Query()
	groupBy := domain.GroupByMonth
	if s := q.Get("group_by"); s != "" {
		g, err := domain.ParseGroupBy(s)
		if err != nil {
			return domain.LadderQuery{}, "", err
		}
		groupBy = g
	}
	return domain.LadderQuery{
		Scenario:       q.Get("scenario"),
		InstrumentType: q.Get("instrument_type"),
		Aggregation:    q.Get("aggregation"),
		CashflowType:   q.Get("cashflow_type"),
	}, groupBy, nil
}

func (v *views) cashflowLadder(w http.ResponseWriter, r *http.Request) {
	q, groupBy, err := ladderQuery(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	ladder, err := guarded(v, r, "cashflow-ladder", func(ctx context.Context) (*domain.CashflowLadder, error) {
		return v.dash.CashflowLadder(ctx, q, groupBy)
	})
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, ladder)
}

func (v *views) ladderInstrumentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := v.dash.LadderInstrumentTypes(r.Context())
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeJSON(w, http.StatusOK, types)
}
