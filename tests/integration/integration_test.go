package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/handler"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/cache"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/client"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"go.uber.org/zap"
)

// analyticsBackend is a fake of the remote IRRBB analytics API.
type analyticsBackend struct {
	mu       sync.Mutex
	hits     map[string]int
	posts    []map[string]any
	postFail string

	compositionStatus int
	lastScenario      string
}

func (b *analyticsBackend) hit(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[name]++
}

func (b *analyticsBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[name]
}

func (b *analyticsBackend) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("GET /api/v1/dashboard/live-data", func(w http.ResponseWriter, r *http.Request) {
		b.hit("live-data")
		// Sparse payload: the BFF must fill in the rest.
		writeJSON(w, http.StatusOK, map[string]any{
			"eve_sensitivity": -3.4,
			"total_loans":     12,
			"eve_scenarios":   []map[string]any{{"scenario_name": "Base Case", "eve_value": 1.5e8}},
		})
	})
	mux.HandleFunc("GET /api/v1/portfolio/composition", func(w http.ResponseWriter, r *http.Request) {
		b.hit("composition")
		if b.compositionStatus != 0 {
			writeJSON(w, b.compositionStatus, map[string]string{"detail": "composition unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"instrument_type": "Loan", "category": "Fixed Rate Loan", "total_amount": 4e6},
		})
	})
	mux.HandleFunc("GET /api/v1/yield-curves", func(w http.ResponseWriter, r *http.Request) {
		b.hit("yield-curves")
		writeJSON(w, http.StatusOK, []map[string]any{{"name": "1Y", "rate": 4.2}, {"name": "5Y", "rate": 4.6}})
	})
	mux.HandleFunc("GET /api/v1/dashboard/eve-drivers", func(w http.ResponseWriter, r *http.Request) {
		b.hit("eve-drivers")
		b.mu.Lock()
		b.lastScenario = r.URL.Query().Get("scenario")
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, []map[string]any{
			{"instrument_type": "Loan", "scenario": "Base Case", "base_pv": 1500000, "duration": 3.5},
			{"instrument_type": "Loan", "scenario": "Parallel Up +200bps", "base_pv": 1400000},
			{"instrument_type": "Deposit", "scenario": "Base Case", "base_pv": -250000},
		})
	})
	mux.HandleFunc("GET /api/v1/loans", func(w http.ResponseWriter, r *http.Request) {
		b.hit("list-loans")
		writeJSON(w, http.StatusOK, []map[string]any{{"instrument_id": "L100", "type": "Fixed Rate Loan"}})
	})
	mux.HandleFunc("POST /api/v1/loans", func(w http.ResponseWriter, r *http.Request) {
		b.hit("post-loans")
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.posts = append(b.posts, body)
		b.mu.Unlock()
		if b.postFail != "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": b.postFail})
			return
		}
		writeJSON(w, http.StatusCreated, body)
	})
	return mux
}

func newStack(t *testing.T, b *analyticsBackend) http.Handler {
	t.Helper()
	b.hits = map[string]int{}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cb := resilience.NewCircuitBreaker("test-"+t.Name(), client.CountsAsSuccess)
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	backend := client.NewClient(httpClient, srv.URL, cb, cfg, resilience.NewLimiter(0), metrics, logger)
	c := cache.New[any](5 * time.Minute)
	t.Cleanup(c.Close)

	dash := service.NewDashboard(backend, c, metrics, logger)
	inst := service.NewInstruments(backend, dash, metrics, logger)
	return handler.NewRouter(dash, inst, backend, metrics, handler.Options{}, logger)
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// TestIntegration_Overview loads the dashboard screen through the real client.
func TestIntegration_Overview(t *testing.T) {
	b := &analyticsBackend{}
	router := newStack(t, b)

	rec := get(router, "/v1/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "null") {
		t.Errorf("normalised overview must not contain null: %s", rec.Body.String())
	}

	var ov domain.Overview
	if err := json.NewDecoder(rec.Body).Decode(&ov); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if ov.Snapshot.EVESensitivity != -3.4 || ov.Snapshot.TotalLoans != 12 {
		t.Errorf("unexpected snapshot: %+v", ov.Snapshot)
	}
	if len(ov.Composition.Records) != 1 || len(ov.YieldCurves) != 2 {
		t.Errorf("expected composition and curves, got %+v / %+v", ov.Composition, ov.YieldCurves)
	}

	// Second load is served from cache.
	get(router, "/v1/dashboard")
	if got := b.count("live-data"); got != 1 {
		t.Errorf("expected 1 live-data call, got %d", got)
	}
}

// TestIntegration_OverviewDegradesComposition keeps the screen up when an
// optional panel fails.
func TestIntegration_OverviewDegradesComposition(t *testing.T) {
	b := &analyticsBackend{compositionStatus: http.StatusNotFound}
	router := newStack(t, b)

	rec := get(router, "/v1/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var ov domain.Overview
	if err := json.NewDecoder(rec.Body).Decode(&ov); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(ov.Composition.Records) != 0 || len(ov.Warnings) != 1 {
		t.Errorf("expected empty composition with one warning, got %+v %v", ov.Composition, ov.Warnings)
	}
}

// TestIntegration_EveDriversComparison sends the selection as one
// comma-joined value and renders placeholders for missing cells.
func TestIntegration_EveDriversComparison(t *testing.T) {
	b := &analyticsBackend{}
	router := newStack(t, b)

	rec := get(router, "/v1/dashboard/eve-drivers?scenario=Base%20Case&scenario=Parallel%20Up%20%2B200bps")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if b.lastScenario != "Base Case,Parallel Up +200bps" {
		t.Errorf("unexpected scenario param %q", b.lastScenario)
	}

	var cmp domain.DriverComparison
	if err := json.NewDecoder(rec.Body).Decode(&cmp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(cmp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", cmp.Rows)
	}
	loan, deposit := cmp.Rows[0], cmp.Rows[1]
	if loan.Cells["Base Case"] != "1,500,000.00" || loan.Cells["Parallel Up +200bps"] != "1,400,000.00" {
		t.Errorf("unexpected loan cells: %v", loan.Cells)
	}
	if deposit.Cells["Parallel Up +200bps"] != "-" {
		t.Errorf("expected placeholder, got %q", deposit.Cells["Parallel Up +200bps"])
	}
	if loan.Duration == nil || *loan.Duration != 3.5 {
		t.Errorf("expected loan duration 3.5, got %v", loan.Duration)
	}
}

// TestIntegration_CreateLoan posts exactly once, refetches the list and
// invalidates the cached snapshot.
func TestIntegration_CreateLoan(t *testing.T) {
	b := &analyticsBackend{}
	router := newStack(t, b)

	get(router, "/v1/dashboard")

	body := `{"instrument_id":"L100","type":"Fixed Rate Loan","notional":"1000000","interest_rate":"0.045",
		"origination_date":"2024-01-01","maturity_date":"2029-01-01","benchmark_rate_type":"SOFR"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/loans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if got := b.count("post-loans"); got != 1 {
		t.Fatalf("expected exactly 1 POST, got %d", got)
	}
	if got := b.count("list-loans"); got != 1 {
		t.Errorf("expected list refetch, got %d", got)
	}

	sent := b.posts[0]
	if sent["notional"] != 1000000.0 || sent["interest_rate"] != 0.045 {
		t.Errorf("numerics not parsed: %v", sent)
	}
	if sent["benchmark_rate_type"] != nil {
		t.Errorf("fixed loan must not carry a benchmark, got %v", sent["benchmark_rate_type"])
	}

	get(router, "/v1/dashboard")
	if got := b.count("live-data"); got != 2 {
		t.Errorf("expected snapshot refetch after write, got %d live-data calls", got)
	}
}

// TestIntegration_CreateLoanRejected surfaces the backend detail and never
// retries a mutation.
func TestIntegration_CreateLoanRejected(t *testing.T) {
	b := &analyticsBackend{postFail: "Instrument ID already exists"}
	router := newStack(t, b)

	body := `{"instrument_id":"L100","type":"Fixed Rate Loan","notional":"1000000","interest_rate":"0.045",
		"origination_date":"2024-01-01","maturity_date":"2029-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/loans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var errBody struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&errBody)
	if errBody.Error != "Instrument ID already exists" {
		t.Errorf("expected backend detail, got %q", errBody.Error)
	}
	if got := b.count("post-loans"); got != 1 {
		t.Errorf("expected exactly 1 POST, got %d", got)
	}
}

// TestIntegration_Healthz reports the backend round trip.
func TestIntegration_Healthz(t *testing.T) {
	router := newStack(t, &analyticsBackend{})

	rec := get(router, "/healthz")
	var health domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if health.Status != "healthy" || len(health.Services) != 2 {
		t.Errorf("unexpected health: %+v", health)
	}
}
