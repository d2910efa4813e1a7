package instrument_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/instrument"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method  string
	kind    domain.InstrumentKind
	id      string
	payload []byte
}

type fakeStore struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (s *fakeStore) record(c call) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	return s.err
}

func (s *fakeStore) ListInstruments(_ context.Context, kind domain.InstrumentKind) ([]domain.InstrumentRecord, error) {
	return []domain.InstrumentRecord{}, s.record(call{method: "GET", kind: kind})
}

func (s *fakeStore) CreateInstrument(_ context.Context, kind domain.InstrumentKind, payload any) error {
	b, _ := json.Marshal(payload)
	return s.record(call{method: "POST", kind: kind, payload: b})
}

func (s *fakeStore) UpdateInstrument(_ context.Context, kind domain.InstrumentKind, id string, payload any) error {
	b, _ := json.Marshal(payload)
	return s.record(call{method: "PUT", kind: kind, id: id, payload: b})
}

func (s *fakeStore) DeleteInstrument(_ context.Context, kind domain.InstrumentKind, id string) error {
	return s.record(call{method: "DELETE", kind: kind, id: id})
}

type counters struct {
	reloads   int
	refreshes int
}

func (c *counters) hooks() instrument.Hooks {
	return instrument.Hooks{
		Reload:  func(context.Context) { c.reloads++ },
		Refresh: func() { c.refreshes++ },
	}
}

func l100() *instrument.LoanForm {
	return &instrument.LoanForm{
		InstrumentID:    "L100",
		Type:            "Fixed Rate Loan",
		Notional:        "1000000",
		InterestRate:    "0.045",
		OriginationDate: "2024-01-01",
		MaturityDate:    "2029-01-01",
	}
}

func TestWorkflow_AddLoanEndToEnd(t *testing.T) {
	store := &fakeStore{}
	var c counters
	wf := instrument.NewWorkflow(domain.KindLoan, store, c.hooks())

	require.NoError(t, wf.StartAdd())
	assert.Equal(t, instrument.Adding, wf.State())

	require.NoError(t, wf.Submit(context.Background(), l100()))

	require.Len(t, store.calls, 1)
	assert.Equal(t, "POST", store.calls[0].method)

	var body map[string]any
	require.NoError(t, json.Unmarshal(store.calls[0].payload, &body))
	assert.Equal(t, 1000000.0, body["notional"])
	assert.Equal(t, 0.045, body["interest_rate"])

	assert.Equal(t, 1, c.reloads)
	assert.Equal(t, 1, c.refreshes)
	assert.Equal(t, instrument.Viewing, wf.State())
	assert.Equal(t, &instrument.Banner{Kind: instrument.BannerSuccess, Message: "Loan added successfully!"}, wf.Banner())
}

func TestWorkflow_InvalidFormNeverReachesStore(t *testing.T) {
	store := &fakeStore{}
	var c counters
	wf := instrument.NewWorkflow(domain.KindLoan, store, c.hooks())
	require.NoError(t, wf.StartAdd())

	form := l100()
	form.Notional = ""
	err := wf.Submit(context.Background(), form)

	var v *domain.ErrValidation
	require.ErrorAs(t, err, &v)
	assert.Empty(t, store.calls)
	assert.Equal(t, instrument.Adding, wf.State())
	assert.Equal(t, "Please fill in all required fields.", wf.Banner().Message)
	assert.Zero(t, c.refreshes)
}

func TestWorkflow_BackendFailureReturnsToForm(t *testing.T) {
	store := &fakeStore{err: &domain.ErrHTTP{Status: 400, Detail: "Loan with ID L100 already exists"}}
	var c counters
	wf := instrument.NewWorkflow(domain.KindLoan, store, c.hooks())
	require.NoError(t, wf.StartAdd())

	err := wf.Submit(context.Background(), l100())
	require.Error(t, err)

	assert.Equal(t, instrument.Adding, wf.State())
	assert.Equal(t, &instrument.Banner{
		Kind:    instrument.BannerError,
		Message: "Failed to add loan: Loan with ID L100 already exists",
	}, wf.Banner())
	assert.Zero(t, c.reloads)
	assert.Zero(t, c.refreshes)
}

func TestWorkflow_EditUsesTargetID(t *testing.T) {
	store := &fakeStore{}
	wf := instrument.NewWorkflow(domain.KindLoan, store, instrument.Hooks{})

	require.NoError(t, wf.StartEdit("L100"))
	assert.Equal(t, instrument.Editing, wf.State())
	require.NoError(t, wf.Submit(context.Background(), l100()))

	require.Len(t, store.calls, 1)
	assert.Equal(t, "PUT", store.calls[0].method)
	assert.Equal(t, "L100", store.calls[0].id)
	assert.Equal(t, "Loan updated successfully!", wf.Banner().Message)
	assert.Equal(t, instrument.Viewing, wf.State())
}

func TestWorkflow_DeleteNeedsConfirmation(t *testing.T) {
	store := &fakeStore{}
	var c counters
	wf := instrument.NewWorkflow(domain.KindDeposit, store, c.hooks())

	require.NoError(t, wf.StartDelete("D7"))
	assert.Equal(t, instrument.DeleteConfirm, wf.State())
	assert.Equal(t, "Are you sure you want to delete deposit D7?", wf.ConfirmPrompt())

	require.NoError(t, wf.Cancel())
	assert.Equal(t, instrument.Viewing, wf.State())
	assert.Empty(t, store.calls)

	require.NoError(t, wf.StartDelete("D7"))
	require.NoError(t, wf.ConfirmDelete(context.Background()))

	require.Len(t, store.calls, 1)
	assert.Equal(t, "DELETE", store.calls[0].method)
	assert.Equal(t, "D7", store.calls[0].id)
	assert.Equal(t, "Deposit D7 deleted successfully!", wf.Banner().Message)
	assert.Equal(t, 1, c.refreshes)
}

func TestWorkflow_FailedDeleteEndsInViewing(t *testing.T) {
	store := &fakeStore{err: &domain.ErrHTTP{Status: 404, Detail: "Derivative not found"}}
	wf := instrument.NewWorkflow(domain.KindDerivative, store, instrument.Hooks{})

	require.NoError(t, wf.StartDelete("S1"))
	require.Error(t, wf.ConfirmDelete(context.Background()))
	assert.Equal(t, instrument.Viewing, wf.State())
	assert.Equal(t, "Failed to delete derivative: Derivative not found", wf.Banner().Message)
}

func TestWorkflow_IllegalTransitions(t *testing.T) {
	wf := instrument.NewWorkflow(domain.KindLoan, &fakeStore{}, instrument.Hooks{})
	var it *domain.ErrInvalidTransition

	require.ErrorAs(t, wf.Submit(context.Background(), l100()), &it)
	assert.Equal(t, "viewing", it.From)

	require.ErrorAs(t, wf.ConfirmDelete(context.Background()), &it)
	require.ErrorAs(t, wf.Cancel(), &it)

	require.NoError(t, wf.StartAdd())
	require.ErrorAs(t, wf.StartEdit("L1"), &it)
	assert.Equal(t, "adding", it.From)
	require.ErrorAs(t, wf.StartAdd(), &it)
}

func TestWorkflow_RejectsFormOfOtherKind(t *testing.T) {
	wf := instrument.NewWorkflow(domain.KindDeposit, &fakeStore{}, instrument.Hooks{})
	require.NoError(t, wf.StartAdd())

	var v *domain.ErrValidation
	require.ErrorAs(t, wf.Submit(context.Background(), l100()), &v)
	assert.Equal(t, instrument.Adding, wf.State())
}
