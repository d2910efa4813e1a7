package service

import (
	"context"
	"errors"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/instrument"
	"github.com/boddenberg/irrbb-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Refresher is told when dashboard figures are stale.
type Refresher interface {
	Refresh()
}

// MutationResult is what an instrument screen shows after a successful
// write: the banner and the refetched list.
type MutationResult struct {
	Banner *instrument.Banner        `json:"banner"`
	Items  []domain.InstrumentRecord `json:"items"`
}

// Instruments runs loan, deposit and derivative CRUD through the form
// workflow.
type Instruments struct {
	store     port.InstrumentStore
	dashboard Refresher
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewInstruments creates the instrument service.
func NewInstruments(store port.InstrumentStore, dashboard Refresher, metrics *observability.Metrics, logger *zap.Logger) *Instruments {
	return &Instruments{store: store, dashboard: dashboard, metrics: metrics, logger: logger}
}

// List returns every instrument of kind.
func (s *Instruments) List(ctx context.Context, kind domain.InstrumentKind) ([]domain.InstrumentRecord, error) {
	ctx, span := tracer.Start(ctx, "Instruments.List")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	return s.store.ListInstruments(ctx, kind)
}

func (s *Instruments) workflow(kind domain.InstrumentKind, res *MutationResult) *instrument.Workflow {
	return instrument.NewWorkflow(kind, s.store, instrument.Hooks{
		Reload: func(ctx context.Context) {
			items, err := s.store.ListInstruments(ctx, kind)
			if err != nil {
				s.logger.Warn("list refetch after write failed", zap.String("kind", string(kind)), zap.Error(err))
				return
			}
			res.Items = items
		},
		Refresh: s.dashboard.Refresh,
	})
}

func (s *Instruments) record(kind domain.InstrumentKind, action, id string, err error) {
	status := "success"
	if err != nil {
		status = "error"
		var v *domain.ErrValidation
		if errors.As(err, &v) {
			status = "invalid"
		}
		s.logger.Warn("instrument write failed",
			zap.String("kind", string(kind)),
			zap.String("action", action),
			zap.String("instrument_id", id),
			zap.Error(err),
		)
	} else {
		s.logger.Info("instrument written",
			zap.String("kind", string(kind)),
			zap.String("action", action),
			zap.String("instrument_id", id),
		)
	}
	s.metrics.IncrInstrumentMutation(string(kind), action, status)
}

// Create submits a new-instrument form.
func (s *Instruments) Create(ctx context.Context, form instrument.Form) (*MutationResult, error) {
	ctx, span := tracer.Start(ctx, "Instruments.Create")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(form.Kind())))

	res := &MutationResult{Items: []domain.InstrumentRecord{}}
	wf := s.workflow(form.Kind(), res)
	if err := wf.StartAdd(); err != nil {
		return nil, err
	}
	err := wf.Submit(ctx, form)
	s.record(form.Kind(), "create", form.ID(), err)
	if err != nil {
		return nil, err
	}
	res.Banner = wf.Banner()
	return res, nil
}

// Update submits an edit form for id. The form's instrument_id must match.
func (s *Instruments) Update(ctx context.Context, id string, form instrument.Form) (*MutationResult, error) {
	ctx, span := tracer.Start(ctx, "Instruments.Update")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(form.Kind())), attribute.String("instrument.id", id))

	if form.ID() != "" && form.ID() != id {
		return nil, &domain.ErrValidation{Field: "instrument_id", Message: "does not match the instrument being edited"}
	}

	res := &MutationResult{Items: []domain.InstrumentRecord{}}
	wf := s.workflow(form.Kind(), res)
	if err := wf.StartEdit(id); err != nil {
		return nil, err
	}
	err := wf.Submit(ctx, form)
	s.record(form.Kind(), "update", id, err)
	if err != nil {
		return nil, err
	}
	res.Banner = wf.Banner()
	return res, nil
}

// Delete removes id once confirmed. Without confirmation nothing is sent
// and ErrConflict carries the confirmation prompt.
func (s *Instruments) Delete(ctx context.Context, kind domain.InstrumentKind, id string, confirmed bool) (*MutationResult, error) {
	ctx, span := tracer.Start(ctx, "Instruments.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)), attribute.String("instrument.id", id))

	res := &MutationResult{Items: []domain.InstrumentRecord{}}
	wf := s.workflow(kind, res)
	if err := wf.StartDelete(id); err != nil {
		return nil, err
	}
	if !confirmed {
		prompt := wf.ConfirmPrompt()
		if err := wf.Cancel(); err != nil {
			s.logger.Warn("cancel unconfirmed delete", zap.String("id", id), zap.Error(err))
		}
		return nil, &domain.ErrConflict{Message: prompt}
	}

	err := wf.ConfirmDelete(ctx)
	s.record(kind, "delete", id, err)
	if err != nil {
		return nil, err
	}
	res.Banner = wf.Banner()
	return res, nil
}
