package viewmodel

import (
	"fmt"
	"math"
	"sort"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Placeholder is rendered for a (key, scenario) pair with no row.
const Placeholder = "-"

// Field selects which numeric column of a DriverRow a table shows.
type Field string

const (
	FieldBasePV          Field = "base_pv"
	FieldShockedPV       Field = "shocked_pv"
	FieldDuration        Field = "duration"
	FieldNIIContribution Field = "nii_contribution"
)

// ParseField accepts the JSON names of the numeric driver columns.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldBasePV, FieldShockedPV, FieldDuration, FieldNIIContribution:
		return f, nil
	}
	return "", &domain.ErrValidation{Field: "field", Message: "must be base_pv, shocked_pv, duration or nii_contribution"}
}

func (f Field) value(r domain.DriverRow) *float64 {
	switch f {
	case FieldBasePV:
		return r.BasePV
	case FieldShockedPV:
		return r.ShockedPV
	case FieldDuration:
		return r.Duration
	case FieldNIIContribution:
		return r.NIIContribution
	}
	return nil
}

func (f Field) format(v float64) string {
	if f == FieldDuration {
		return fmt.Sprintf("%.2f", v)
	}
	return FormatAmount(v)
}

// Matrix maps a row key to the row recorded for each scenario. Keys keep
// the order in which they first appeared in the input.
type Matrix struct {
	keys      []string
	cells     map[string]map[string]domain.DriverRow
	types     map[string]string
	breakdown map[string]string
}

func newMatrix() *Matrix {
	return &Matrix{
		keys:      []string{},
		cells:     make(map[string]map[string]domain.DriverRow),
		types:     make(map[string]string),
		breakdown: make(map[string]string),
	}
}

func (m *Matrix) put(key, breakdown string, r domain.DriverRow) {
	byScenario, ok := m.cells[key]
	if !ok {
		byScenario = make(map[string]domain.DriverRow)
		m.cells[key] = byScenario
		m.keys = append(m.keys, key)
		m.types[key] = r.InstrumentType
		m.breakdown[key] = breakdown
	}
	// Later rows for the same pair overwrite earlier ones.
	byScenario[r.Scenario] = r
}

// PivotEve keys rows by instrument type.
func PivotEve(rows []domain.DriverRow) *Matrix {
	m := newMatrix()
	for _, r := range rows {
		m.put(r.InstrumentType, "", r)
	}
	return m
}

// NiiKey is the matrix key of an NII row: instrument type and breakdown
// value joined by "|". A missing breakdown value counts as "".
func NiiKey(r domain.DriverRow) string {
	bv := ""
	if r.BreakdownValue != nil {
		bv = *r.BreakdownValue
	}
	return r.InstrumentType + "|" + bv
}

// PivotNii keys rows by instrument type and breakdown value.
func PivotNii(rows []domain.DriverRow) *Matrix {
	m := newMatrix()
	for _, r := range rows {
		bv := ""
		if r.BreakdownValue != nil {
			bv = *r.BreakdownValue
		}
		m.put(NiiKey(r), bv, r)
	}
	return m
}

// Keys returns the row keys in first-appearance order.
func (m *Matrix) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len is the number of distinct keys.
func (m *Matrix) Len() int { return len(m.keys) }

// Cell returns the row for key under scenario.
func (m *Matrix) Cell(key, scenario string) (domain.DriverRow, bool) {
	r, ok := m.cells[key][scenario]
	return r, ok
}

// Duration returns the first non-nil duration found walking the selected
// scenarios in order, or nil.
func (m *Matrix) Duration(key string, selected []string) *float64 {
	for _, s := range selected {
		if r, ok := m.cells[key][s]; ok && r.Duration != nil {
			d := *r.Duration
			return &d
		}
	}
	return nil
}

// Table renders one comparison row per key with a cell per selected
// scenario.
func (m *Matrix) Table(scenarios []string, field Field) []domain.ComparisonRow {
	out := make([]domain.ComparisonRow, 0, len(m.keys))
	for _, key := range m.keys {
		row := domain.ComparisonRow{
			Key:            key,
			InstrumentType: m.types[key],
			BreakdownValue: m.breakdown[key],
			Cells:          make(map[string]string, len(scenarios)),
			Values:         make(map[string]*float64, len(scenarios)),
			Duration:       m.Duration(key, scenarios),
		}
		for _, s := range scenarios {
			row.Cells[s] = Placeholder
			row.Values[s] = nil
			r, ok := m.Cell(key, s)
			if !ok {
				continue
			}
			if v := field.value(r); v != nil {
				val := *v
				row.Values[s] = &val
				row.Cells[s] = field.format(val)
			}
		}
		out = append(out, row)
	}
	return out
}

// DurationProfile lists every instrument of instrumentType that reports a
// duration, sorted by instrument id, with the average duration weighted by
// absolute base PV. The average is nil when the total weight is zero.
func DurationProfile(rows []domain.DriverRow, instrumentType string) domain.DurationProfile {
	profile := domain.DurationProfile{InstrumentType: instrumentType, Points: []domain.DurationPoint{}}

	weighted, total := decimal.Zero, decimal.Zero
	for _, r := range rows {
		if r.InstrumentType != instrumentType || r.Duration == nil {
			continue
		}
		label := r.InstrumentID
		if label == "" {
			label = r.ID
		}
		profile.Points = append(profile.Points, domain.DurationPoint{Instrument: label, Duration: *r.Duration})

		if r.BasePV != nil {
			w := decimal.NewFromFloat(math.Abs(*r.BasePV))
			weighted = weighted.Add(w.Mul(decimal.NewFromFloat(*r.Duration)))
			total = total.Add(w)
		}
	}

	// Collated so mixed-case ids sort the way the dashboard lists them.
	coll := collate.New(language.Und)
	sort.SliceStable(profile.Points, func(i, j int) bool {
		return coll.CompareString(profile.Points[i].Instrument, profile.Points[j].Instrument) < 0
	})

	if !total.IsZero() {
		avg := weighted.DivRound(total, 8).InexactFloat64()
		profile.WeightedAvg = &avg
	}
	return profile
}
