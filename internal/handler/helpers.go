package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
	"github.com/boddenberg/irrbb-bfa-go/internal/viewmodel"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// queryScenarios accepts both scenario=a,b and repeated scenario params.
// Names may themselves contain spaces and signs but never commas.
func queryScenarios(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["scenario"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// queryField reads the driver column to tabulate; "" leaves the view's
// default.
func queryField(r *http.Request) (viewmodel.Field, error) {
	v := strings.TrimSpace(r.URL.Query().Get("field"))
	if v == "" {
		return "", nil
	}
	return viewmodel.ParseField(v)
}

// queryAssumptions overlays any assumption params on the defaults.
func queryAssumptions(r *http.Request, defaults domain.Assumptions) (domain.Assumptions, error) {
	a := defaults
	q := r.URL.Query()
	if v := q.Get("nmd_effective_maturity_years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return a, &domain.ErrValidation{Field: "nmd_effective_maturity_years", Message: "must be an integer"}
		}
		a.NMDEffectiveMaturityYears = n
	}
	if v := q.Get("nmd_deposit_beta"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return a, &domain.ErrValidation{Field: "nmd_deposit_beta", Message: "must be a number"}
		}
		a.NMDDepositBeta = f
	}
	if v := q.Get("prepayment_rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return a, &domain.ErrValidation{Field: "prepayment_rate", Message: "must be a number"}
		}
		a.PrepaymentRate = f
	}
	return a, a.Validate()
}

func session(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(observability.SessionHeader))
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var superseded *domain.ErrSuperseded
	var transition *domain.ErrInvalidTransition
	var httpErr *domain.ErrHTTP
	var network *domain.ErrNetwork

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &superseded):
		logger.Debug("superseded", zap.String("key", superseded.Key))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &transition):
		logger.Debug("invalid transition", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &httpErr):
		if httpErr.Status >= 400 && httpErr.Status < 500 {
			logger.Warn("backend rejected request",
				zap.Int("status", httpErr.Status),
				zap.String("endpoint", httpErr.Endpoint),
				zap.String("detail", httpErr.Detail),
			)
			msg := httpErr.Detail
			if msg == "" {
				msg = err.Error()
			}
			writeError(w, httpErr.Status, msg)
			return
		}
		logger.Error("backend error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &network):
		logger.Error("backend unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
