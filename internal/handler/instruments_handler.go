package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/instrument"
	"github.com/boddenberg/irrbb-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ============================================================
// Instruments — /v1/{loans|deposits|derivatives}
// ============================================================

type instrumentHandlers struct {
	svc    *service.Instruments
	kind   domain.InstrumentKind
	logger *zap.Logger
}

// actor tags the span and returns the log field for the token subject.
func (h *instrumentHandlers) actor(r *http.Request, span trace.Span) zap.Field {
	subject := SubjectFromContext(r.Context())
	if subject != "" {
		span.SetAttributes(attribute.String("enduser.id", subject))
	}
	return zap.String("subject", subject)
}

func (h *instrumentHandlers) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), h.kind)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	if items == nil {
		items = []domain.InstrumentRecord{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *instrumentHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/"+h.kind.Collection())
	defer span.End()

	form, err := instrument.Decode(h.kind, r.Body)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	span.SetAttributes(attribute.String("instrument.id", form.ID()))
	h.logger.Info("instrument create requested", zap.String("id", form.ID()), h.actor(r, span))

	res, err := h.svc.Create(ctx, form)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *instrumentHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "PUT /v1/"+h.kind.Collection()+"/{id}")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("instrument.id", id))

	form, err := instrument.Decode(h.kind, r.Body)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("instrument update requested", zap.String("id", id), h.actor(r, span))

	res, err := h.svc.Update(ctx, id, form)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *instrumentHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "DELETE /v1/"+h.kind.Collection()+"/{id}")
	defer span.End()

	id := chi.URLParam(r, "id")
	span.SetAttributes(attribute.String("instrument.id", id))
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	h.logger.Info("instrument delete requested",
		zap.String("id", id),
		zap.Bool("confirmed", confirmed),
		h.actor(r, span),
	)

	res, err := h.svc.Delete(ctx, h.kind, id, confirmed)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
