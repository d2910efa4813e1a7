package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// ScenarioParam serialises a scenario selection into the single query value
// the backend expects: names joined by commas, Base Case when empty.
func ScenarioParam(scenarios []string) string {
	cleaned := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return domain.BaseCase
	}
	return strings.Join(cleaned, ",")
}

// FetchLiveDashboard loads the full snapshot computed under the given
// behavioral assumptions.
func (c *Client) FetchLiveDashboard(ctx context.Context, a domain.Assumptions) (*domain.DashboardSnapshot, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("nmd_effective_maturity_years", strconv.Itoa(a.NMDEffectiveMaturityYears))
	q.Set("nmd_deposit_beta", strconv.FormatFloat(a.NMDDepositBeta, 'f', -1, 64))
	q.Set("prepayment_rate", strconv.FormatFloat(a.PrepaymentRate, 'f', -1, 64))

	var snap domain.DashboardSnapshot
	if err := c.get(ctx, "live-data", "/api/v1/dashboard/live-data", q, &snap); err != nil {
		return nil, err
	}
	snap.Normalize()
	return &snap, nil
}

// FetchEveDrivers loads per-instrument EVE contribution rows for one or
// more scenarios.
func (c *Client) FetchEveDrivers(ctx context.Context, scenarios []string) ([]domain.DriverRow, error) {
	q := url.Values{}
	q.Set("scenario", ScenarioParam(scenarios))

	rows := []domain.DriverRow{}
	if err := c.get(ctx, "eve-drivers", "/api/v1/dashboard/eve-drivers", q, &rows); err != nil {
		return nil, err
	}
	return nonNil(rows), nil
}

// FetchNiiDrivers loads NII contribution rows broken down by instrument,
// type or bucket.
func (c *Client) FetchNiiDrivers(ctx context.Context, scenarios []string, breakdown string) ([]domain.DriverRow, error) {
	if breakdown == "" {
		breakdown = domain.BreakdownInstrument
	}
	if !domain.ValidBreakdown(breakdown) {
		return nil, &domain.ErrValidation{Field: "breakdown", Message: "must be instrument, type or bucket"}
	}

	q := url.Values{}
	q.Set("scenario", ScenarioParam(scenarios))
	q.Set("breakdown", breakdown)

	rows := []domain.DriverRow{}
	if err := c.get(ctx, "nii-drivers", "/api/v1/dashboard/nii-drivers", q, &rows); err != nil {
		return nil, err
	}
	return nonNil(rows), nil
}

// FetchYieldCurves loads tenor points, optionally for a single scenario.
func (c *Client) FetchYieldCurves(ctx context.Context, scenario string) ([]domain.YieldCurvePoint, error) {
	var q url.Values
	if scenario != "" {
		q = url.Values{"scenario": {scenario}}
	}

	raw, err := c.getRaw(ctx, "yield-curves", "/api/v1/yield-curves", q)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.YieldCurvePoint](raw, "yield-curves", "points", "data")
}

// FetchPortfolioComposition loads aggregate composition. The backend has
// answered both with a bare record array and with a totals object; both
// are accepted.
func (c *Client) FetchPortfolioComposition(ctx context.Context) (*domain.PortfolioComposition, error) {
	raw, err := c.getRaw(ctx, "composition", "/api/v1/portfolio/composition", nil)
	if err != nil {
		return nil, err
	}

	comp := domain.EmptyComposition()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &comp.Records); err != nil {
			return nil, fmt.Errorf("decode composition response: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, comp); err != nil {
		return nil, fmt.Errorf("decode composition response: %w", err)
	}
	comp.Records = nonNil(comp.Records)
	return comp, nil
}

// FetchNetPositions loads assets/liabilities per time bucket for a scenario.
func (c *Client) FetchNetPositions(ctx context.Context, scenario string) ([]domain.NetPosition, error) {
	if scenario == "" {
		scenario = domain.BaseCase
	}
	raw, err := c.getRaw(ctx, "net-positions", "/api/v1/dashboard/net-positions", url.Values{"scenario": {scenario}})
	if err != nil {
		return nil, err
	}
	return decodeList[domain.NetPosition](raw, "net-positions", "positions", "data")
}

// FetchRepricingGap loads the repricing gap chart buckets.
func (c *Client) FetchRepricingGap(ctx context.Context) ([]domain.RepricingGapBucket, error) {
	raw, err := c.getRaw(ctx, "repricing-gap", "/api/v1/repricing-gap", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.RepricingGapBucket](raw, "repricing-gap", "buckets", "data")
}

// FetchRepricingDrillDown loads the instruments that fall into one gap bucket.
func (c *Client) FetchRepricingDrillDown(ctx context.Context, bucket string) ([]domain.RepricingInstrument, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, &domain.ErrValidation{Field: "bucket", Message: "required"}
	}
	raw, err := c.getRaw(ctx, "repricing-drill-down", "/api/v1/repricing-gap/drill-down/"+url.PathEscape(bucket), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.RepricingInstrument](raw, "repricing-drill-down", "instruments", "data")
}

// FetchCashflowLadder returns the raw ladder rows untouched. Bucketing
// decides what to do with a body that is not an array.
func (c *Client) FetchCashflowLadder(ctx context.Context, lq domain.LadderQuery) (json.RawMessage, error) {
	q := url.Values{}
	if lq.Scenario != "" {
		q.Set("scenario", lq.Scenario)
	}
	if lq.InstrumentType != "" {
		q.Set("instrument_type", lq.InstrumentType)
	}
	if lq.Aggregation != "" {
		q.Set("aggregation", lq.Aggregation)
	}
	if lq.CashflowType != "" {
		q.Set("cashflow_type", lq.CashflowType)
	}
	return c.getRaw(ctx, "cashflow-ladder", "/api/v1/cashflow-ladder", q)
}

// FetchLadderInstrumentTypes loads the instrument type dropdown options.
func (c *Client) FetchLadderInstrumentTypes(ctx context.Context) ([]string, error) {
	raw, err := c.getRaw(ctx, "ladder-instrument-types", "/api/v1/cashflow-ladder/instrument-types", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[string](raw, "ladder-instrument-types", "instrument_types", "data")
}

// decodeList accepts either a bare JSON array or an object holding the
// array under one of keys. Any other shape decodes to an empty list.
func decodeList[T any](raw json.RawMessage, endpoint string, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		return nonNil(out), nil
	}

	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
		}
		for _, k := range keys {
			if inner, ok := obj[k]; ok {
				return decodeList[T](inner, endpoint)
			}
		}
	}
	return []T{}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
