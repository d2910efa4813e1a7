package handler

import (
	"net/http"

	"github.com/boddenberg/irrbb-bfa-go/internal/render"
)

const pngContentType = "image/png"

// ============================================================
// Charts — GET /v1/charts/*.png
// ============================================================

func (v *views) yieldCurveChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/charts/yield-curve.png")
	defer span.End()

	points, err := v.dash.YieldCurves(ctx, r.URL.Query().Get("scenario"))
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	png, err := render.YieldCurvePNG(points)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, pngContentType, "", png)
}

func (v *views) cashflowLadderChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/charts/cashflow-ladder.png")
	defer span.End()

	q, groupBy, err := ladderQuery(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	ladder, err := v.dash.CashflowLadder(ctx, q, groupBy)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	png, err := render.CashflowLadderPNG(ladder)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, pngContentType, "", png)
}

func (v *views) repricingGapChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/charts/repricing-gap.png")
	defer span.End()

	buckets, err := v.dash.RepricingGap(ctx)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	png, err := render.RepricingGapPNG(buckets)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, pngContentType, "", png)
}

// ============================================================
// Exports — GET /v1/exports/*.xlsx
// ============================================================

func (v *views) eveDriversExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/exports/eve-drivers.xlsx")
	defer span.End()

	field, err := queryField(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	cmp, err := v.dash.EveDrivers(ctx, queryScenarios(r), field)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	data, err := render.DriverComparisonXLSX("EVE Drivers", cmp)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, render.XLSXContentType, "eve-drivers.xlsx", data)
}

func (v *views) niiDriversExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/exports/nii-drivers.xlsx")
	defer span.End()

	field, err := queryField(r)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	cmp, err := v.dash.NiiDrivers(ctx, queryScenarios(r), r.URL.Query().Get("breakdown"), field)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	data, err := render.DriverComparisonXLSX("NII Drivers", cmp)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, render.XLSXContentType, "nii-drivers.xlsx", data)
}

func (v *views) repricingGapExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "GET /v1/exports/repricing-gap.xlsx")
	defer span.End()

	buckets, err := v.dash.RepricingGap(ctx)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	data, err := render.RepricingGapXLSX(buckets)
	if err != nil {
		handleServiceError(w, err, v.logger)
		return
	}
	writeFile(w, render.XLSXContentType, "repricing-gap.xlsx", data)
}
