package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/config"
	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/port"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Options carries the router settings that come from configuration.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Catalog        *config.Catalog
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes serve the browser IRRBB dashboard.
func NewRouter(
	dash *service.Dashboard,
	instruments *service.Instruments,
	pinger port.BackendPinger,
	metrics *observability.Metrics,
	opts Options,
	logger *zap.Logger,
) http.Handler {
	if opts.Catalog == nil {
		opts.Catalog = config.DefaultCatalog()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	v := &views{
		dash:    dash,
		tracker: service.NewTracker(),
		metrics: metrics,
		catalog: opts.Catalog,
		logger:  logger,
	}

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", observability.SessionHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(pinger, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/bff", bffMetricsHandler(metrics))
		r.Get("/catalog", catalogHandler(opts.Catalog))

		// Dashboard screen
		r.Get("/dashboard", v.overview)
		r.Get("/dashboard/eve-drivers", v.eveDrivers)
		r.Get("/dashboard/nii-drivers", v.niiDrivers)
		r.Get("/dashboard/duration-profile", v.durationProfile)

		// Reference data
		r.Get("/yield-curves", v.yieldCurves)
		r.Get("/portfolio/composition", v.composition)
		r.Get("/portfolio/net-positions", v.netPositions)
		r.Get("/repricing-gap", v.repricingGap)
		r.Get("/repricing-gap/drill-down/{bucket}", v.repricingDrillDown)
		r.Get("/cashflow-ladder", v.cashflowLadder)
		r.Get("/cashflow-ladder/instrument-types", v.ladderInstrumentTypes)

		// Rendered charts and spreadsheet exports
		r.Get("/charts/yield-curve.png", v.yieldCurveChart)
		r.Get("/charts/cashflow-ladder.png", v.cashflowLadderChart)
		r.Get("/charts/repricing-gap.png", v.repricingGapChart)
		r.Get("/exports/eve-drivers.xlsx", v.eveDriversExport)
		r.Get("/exports/nii-drivers.xlsx", v.niiDriversExport)
		r.Get("/exports/repricing-gap.xlsx", v.repricingGapExport)

		// Instruments
		for _, kind := range domain.Kinds {
			ih := &instrumentHandlers{svc: instruments, kind: kind, logger: logger}
			r.Route("/"+kind.Collection(), func(r chi.Router) {
				r.Get("/", ih.list)
				r.Group(func(r chi.Router) {
					r.Use(JWTAuthMiddleware(opts.JWTSecret, logger))
					r.Post("/", ih.create)
					r.Put("/{id}", ih.update)
					r.Delete("/{id}", ih.delete)
				})
			})
		}
	})

	return r
}

// ============================================================
// Metrics & Health
// ============================================================

func healthzHandler(pinger port.BackendPinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if pinger != nil {
			latency, err := pinger.Ping(r.Context())
			backend := domain.ServiceHealth{
				Name:        "irrbb-backend",
				Status:      "healthy",
				LatencyMs:   latency.Milliseconds(),
				LastChecked: now,
			}
			if err != nil {
				logger.Warn("health: backend ping failed", zap.Error(err))
				backend.Status = "degraded"
				backend.Error = err.Error()
			}
			services = append(services, backend)
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func bffMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

func catalogHandler(catalog *config.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog)
	}
}
