package domain

// DriverRow is one EVE or NII contribution row as returned by the backend:
// one row per (instrument type, scenario) or (instrument type, bucket,
// scenario). Optional numerics stay nil when the backend omits them.
type DriverRow struct {
	ID              string   `json:"id,omitempty"`
	InstrumentID    string   `json:"instrument_id,omitempty"`
	InstrumentType  string   `json:"instrument_type"`
	Scenario        string   `json:"scenario"`
	BreakdownValue  *string  `json:"breakdown_value,omitempty"`
	BasePV          *float64 `json:"base_pv,omitempty"`
	ShockedPV       *float64 `json:"shocked_pv,omitempty"`
	Duration        *float64 `json:"duration,omitempty"`
	NIIContribution *float64 `json:"nii_contribution,omitempty"`
}

// NII breakdown dimensions accepted by the nii-drivers endpoint.
const (
	BreakdownInstrument = "instrument"
	BreakdownType       = "type"
	BreakdownBucket     = "bucket"
)

// ValidBreakdown reports whether b is a breakdown the backend understands.
func ValidBreakdown(b string) bool {
	switch b {
	case BreakdownInstrument, BreakdownType, BreakdownBucket:
		return true
	}
	return false
}

// BaseCase is the unshocked scenario name.
const BaseCase = "Base Case"

// DriverComparison is a pivoted driver table ready for a side-by-side
// scenario view.
type DriverComparison struct {
	Field     string          `json:"field"`
	Scenarios []string        `json:"scenarios"`
	Rows      []ComparisonRow `json:"rows"`
	Drivers   []DriverRow     `json:"drivers"`
}

// ComparisonRow is one matrix key rendered against the selected scenarios.
// Cells hold formatted values or "-" where the scenario has no row.
type ComparisonRow struct {
	Key            string              `json:"key"`
	InstrumentType string              `json:"instrument_type"`
	BreakdownValue string              `json:"breakdown_value,omitempty"`
	Cells          map[string]string   `json:"cells"`
	Values         map[string]*float64 `json:"values"`
	Duration       *float64            `json:"duration,omitempty"`
}

// DurationPoint is one instrument on the duration chart.
type DurationPoint struct {
	Instrument string  `json:"instrument"`
	Duration   float64 `json:"duration"`
}

// DurationProfile is the per-instrument duration chart for one instrument
// type plus its PV-weighted average.
type DurationProfile struct {
	InstrumentType string          `json:"instrument_type"`
	Points         []DurationPoint `json:"points"`
	WeightedAvg    *float64        `json:"weighted_avg"`
}
