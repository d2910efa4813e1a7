package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/instrument"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"go.uber.org/zap"
)

type mockStore struct {
	mu      sync.Mutex
	methods []string
	ids     []string
	err     error
	records []domain.InstrumentRecord
}

func (m *mockStore) note(method, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods = append(m.methods, method)
	m.ids = append(m.ids, id)
}

func (m *mockStore) ListInstruments(_ context.Context, _ domain.InstrumentKind) ([]domain.InstrumentRecord, error) {
	m.note("GET", "")
	return m.records, nil
}

func (m *mockStore) CreateInstrument(_ context.Context, _ domain.InstrumentKind, _ any) error {
	m.note("POST", "")
	return m.err
}

func (m *mockStore) UpdateInstrument(_ context.Context, _ domain.InstrumentKind, id string, _ any) error {
	m.note("PUT", id)
	return m.err
}

func (m *mockStore) DeleteInstrument(_ context.Context, _ domain.InstrumentKind, id string) error {
	m.note("DELETE", id)
	return m.err
}

type mockRefresher struct{ n int }

func (r *mockRefresher) Refresh() { r.n++ }

func loanForm(id string) *instrument.LoanForm {
	return &instrument.LoanForm{
		InstrumentID:    instrument.Input(id),
		Type:            "Fixed Rate Loan",
		Notional:        "1000000",
		InterestRate:    "0.045",
		OriginationDate: "2024-01-01",
		MaturityDate:    "2029-01-01",
	}
}

func TestInstruments_CreateRefetchesAndRefreshes(t *testing.T) {
	store := &mockStore{records: []domain.InstrumentRecord{{"instrument_id": "L100"}}}
	refresher := &mockRefresher{}
	metrics := observability.NewMetrics()
	svc := service.NewInstruments(store, refresher, metrics, zap.NewNop())

	res, err := svc.Create(context.Background(), loanForm("L100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.methods; len(got) != 2 || got[0] != "POST" || got[1] != "GET" {
		t.Fatalf("expected POST then GET, got %v", got)
	}
	if refresher.n != 1 {
		t.Errorf("expected 1 dashboard refresh, got %d", refresher.n)
	}
	if len(res.Items) != 1 || res.Items[0].ID() != "L100" {
		t.Errorf("expected refetched list, got %v", res.Items)
	}
	if res.Banner == nil || res.Banner.Message != "Loan added successfully!" {
		t.Errorf("unexpected banner: %+v", res.Banner)
	}
	if got := metrics.Snapshot().InstrumentMutations; got != 1 {
		t.Errorf("expected 1 mutation recorded, got %d", got)
	}
}

func TestInstruments_CreateFailureSurfacesBackendError(t *testing.T) {
	store := &mockStore{err: &domain.ErrHTTP{Status: 400, Detail: "duplicate instrument_id"}}
	refresher := &mockRefresher{}
	svc := service.NewInstruments(store, refresher, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Create(context.Background(), loanForm("L100"))
	var httpErr *domain.ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.Detail != "duplicate instrument_id" {
		t.Fatalf("expected backend detail, got %v", err)
	}
	if refresher.n != 0 {
		t.Errorf("failed write must not refresh the dashboard")
	}
}

func TestInstruments_UpdateRejectsMismatchedID(t *testing.T) {
	store := &mockStore{}
	svc := service.NewInstruments(store, &mockRefresher{}, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Update(context.Background(), "L1", loanForm("L2"))
	var v *domain.ErrValidation
	if !errors.As(err, &v) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.methods) != 0 {
		t.Errorf("expected no backend calls, got %v", store.methods)
	}
}

func TestInstruments_UpdateSendsPut(t *testing.T) {
	store := &mockStore{}
	svc := service.NewInstruments(store, &mockRefresher{}, observability.NewMetrics(), zap.NewNop())

	res, err := svc.Update(context.Background(), "L1", loanForm("L1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.methods[0] != "PUT" || store.ids[0] != "L1" {
		t.Errorf("expected PUT L1, got %v %v", store.methods, store.ids)
	}
	if res.Banner.Message != "Loan updated successfully!" {
		t.Errorf("unexpected banner: %q", res.Banner.Message)
	}
}

func TestInstruments_DeleteRequiresConfirmation(t *testing.T) {
	store := &mockStore{}
	refresher := &mockRefresher{}
	svc := service.NewInstruments(store, refresher, observability.NewMetrics(), zap.NewNop())

	_, err := svc.Delete(context.Background(), domain.KindDerivative, "S9", false)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if conflict.Message != "Are you sure you want to delete derivative S9?" {
		t.Errorf("unexpected prompt: %q", conflict.Message)
	}
	if len(store.methods) != 0 {
		t.Fatalf("unconfirmed delete must not reach the backend, got %v", store.methods)
	}

	res, err := svc.Delete(context.Background(), domain.KindDerivative, "S9", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.methods[0] != "DELETE" || store.ids[0] != "S9" {
		t.Errorf("expected DELETE S9, got %v %v", store.methods, store.ids)
	}
	if res.Banner.Message != "Derivative S9 deleted successfully!" {
		t.Errorf("unexpected banner: %q", res.Banner.Message)
	}
	if refresher.n != 1 {
		t.Errorf("expected 1 refresh, got %d", refresher.n)
	}
}
