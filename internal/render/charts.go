// Package render draws dashboard charts as PNG and exports driver and gap
// tables as XLSX workbooks.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/viewmodel"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 900
	chartHeight = 400
)

var (
	colorFixed    = drawing.ColorFromHex("2563eb") // blue-600
	colorFloating = drawing.ColorFromHex("f59e0b") // amber-500
	colorTotal    = drawing.ColorFromHex("9ca3af") // gray-400
	colorGood     = drawing.ColorFromHex("16a34a") // green-600
	colorBad      = drawing.ColorFromHex("dc2626") // red-600
	colorNeutral  = drawing.ColorFromHex("6b7280")

	scenarioPalette = []drawing.Color{
		drawing.ColorFromHex("2563eb"),
		drawing.ColorFromHex("dc2626"),
		drawing.ColorFromHex("16a34a"),
		drawing.ColorFromHex("f59e0b"),
		drawing.ColorFromHex("7c3aed"),
		drawing.ColorFromHex("0891b2"),
	}
)

func notEnoughData(chartName string, need, got int) error {
	return &domain.ErrNotFound{
		Resource: "chart data",
		ID:       fmt.Sprintf("%s (need %d points, got %d)", chartName, need, got),
	}
}

// paddedRange spans values and zero with a little headroom and is never
// empty.
func paddedRange(values ...float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &chart.ContinuousRange{Min: -1, Max: 1}
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	if hi > 0 {
		hi += pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

func millionsFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return viewmodel.FormatMillions(f)
	}
	return ""
}

// YieldCurvePNG draws one line per scenario across the tenors in the order
// they first appear. Points without a scenario belong to Base Case.
func YieldCurvePNG(points []domain.YieldCurvePoint) ([]byte, error) {
	var (
		tenors    []string
		tenorIdx  = map[string]int{}
		scenarios []string
		byScen    = map[string]map[int]float64{}
		allRates  []float64
	)
	for _, p := range points {
		if _, ok := tenorIdx[p.Name]; !ok {
			tenorIdx[p.Name] = len(tenors)
			tenors = append(tenors, p.Name)
		}
		scen := p.Scenario
		if scen == "" {
			scen = domain.BaseCase
		}
		if _, ok := byScen[scen]; !ok {
			byScen[scen] = map[int]float64{}
			scenarios = append(scenarios, scen)
		}
		byScen[scen][tenorIdx[p.Name]] = p.Rate
		allRates = append(allRates, p.Rate)
	}
	if len(tenors) < 2 {
		return nil, notEnoughData("yield-curve", 2, len(tenors))
	}

	ticks := make([]chart.Tick, len(tenors))
	for i, name := range tenors {
		ticks[i] = chart.Tick{Value: float64(i), Label: name}
	}

	series := make([]chart.Series, 0, len(scenarios))
	for i, scen := range scenarios {
		var xs, ys []float64
		for t := range tenors {
			if rate, ok := byScen[scen][t]; ok {
				xs = append(xs, float64(t))
				ys = append(ys, rate)
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name: scen,
			Style: chart.Style{
				StrokeColor: scenarioPalette[i%len(scenarioPalette)],
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  "Yield Curves",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Range: paddedRange(allRates...),
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f%%", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("yield curve render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// CashflowLadderPNG draws fixed and floating cashflows per bucket with the
// running total of both.
func CashflowLadderPNG(ladder *domain.CashflowLadder) ([]byte, error) {
	n := len(ladder.Buckets)
	if n < 2 {
		return nil, notEnoughData("cashflow-ladder", 2, n)
	}

	xs := make([]float64, n)
	fixed := make([]float64, n)
	floating := make([]float64, n)
	total := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, b := range ladder.Buckets {
		xs[i] = float64(i)
		fixed[i] = b.Fixed
		floating[i] = b.Floating
		total[i] = b.CumulativeFixed + b.CumulativeFloating
		ticks[i] = chart.Tick{Value: float64(i), Label: b.GroupKey}
	}

	all := append(append(append([]float64{}, fixed...), floating...), total...)
	graph := chart.Chart{
		Title:  fmt.Sprintf("Cashflow Ladder by %s", ladder.GroupBy),
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			Range:          paddedRange(all...),
			ValueFormatter: millionsFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Fixed",
				Style:   chart.Style{StrokeColor: colorFixed, StrokeWidth: 2},
				XValues: xs,
				YValues: fixed,
			},
			chart.ContinuousSeries{
				Name:    "Floating",
				Style:   chart.Style{StrokeColor: colorFloating, StrokeWidth: 2},
				XValues: xs,
				YValues: floating,
			},
			chart.ContinuousSeries{
				Name: "Cumulative",
				Style: chart.Style{
					StrokeColor:     colorTotal,
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5.0, 3.0},
				},
				XValues: xs,
				YValues: total,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("cashflow ladder render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RepricingGapPNG draws one bar per bucket, green for a positive gap and
// red for a negative one.
func RepricingGapPNG(buckets []domain.RepricingGapBucket) ([]byte, error) {
	if len(buckets) == 0 {
		return nil, notEnoughData("repricing-gap", 1, 0)
	}

	bars := make([]chart.Value, len(buckets))
	gaps := make([]float64, len(buckets))
	for i, b := range buckets {
		color := colorNeutral
		switch viewmodel.GapTone(b.Gap) {
		case viewmodel.ToneFavorable:
			color = colorGood
		case viewmodel.ToneAdverse:
			color = colorBad
		}
		bars[i] = chart.Value{
			Label: b.Bucket,
			Value: b.Gap,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
		gaps[i] = b.Gap
	}

	graph := chart.BarChart{
		Title:  "Repricing Gap",
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:     40,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range:          paddedRange(gaps...),
			ValueFormatter: millionsFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("repricing gap render failed: %w", err)
	}
	return buf.Bytes(), nil
}
