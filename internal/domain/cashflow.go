package domain

// CashflowRow is one instrument-period cashflow (or a pre-aggregated row)
// tagged by calendar time. TimeLabel wins over CashflowDate when both are set.
type CashflowRow struct {
	TimeLabel      string  `json:"time_label,omitempty"`
	CashflowDate   string  `json:"cashflow_date,omitempty"`
	InstrumentID   string  `json:"instrument_id,omitempty"`
	InstrumentType string  `json:"instrument_type,omitempty"`
	Fixed          float64 `json:"fixed"`
	Floating       float64 `json:"floating"`
}

// DateField returns the date string used for bucketing.
func (r CashflowRow) DateField() string {
	if r.TimeLabel != "" {
		return r.TimeLabel
	}
	return r.CashflowDate
}

// GroupBy is the bucketing granularity of the cashflow ladder.
type GroupBy string

const (
	GroupByMonth   GroupBy = "Month"
	GroupByQuarter GroupBy = "Quarter"
	GroupByYear    GroupBy = "Year"
)

// ParseGroupBy accepts the canonical names case-insensitively.
func ParseGroupBy(s string) (GroupBy, error) {
	switch s {
	case "Month", "month", "MONTH":
		return GroupByMonth, nil
	case "Quarter", "quarter", "QUARTER":
		return GroupByQuarter, nil
	case "Year", "year", "YEAR":
		return GroupByYear, nil
	}
	return "", &ErrValidation{Field: "group_by", Message: "must be Month, Quarter or Year"}
}

// CashflowBucket is a summed ladder bucket. Cumulative fields carry the
// running totals up to and including this bucket.
type CashflowBucket struct {
	GroupKey           string  `json:"groupKey"`
	Fixed              float64 `json:"fixed"`
	Floating           float64 `json:"floating"`
	CumulativeFixed    float64 `json:"cumulativeFixed"`
	CumulativeFloating float64 `json:"cumulativeFloating"`
	Rows               int     `json:"rows"`
}

// CashflowLadder is the bucketed ladder plus the number of input rows that
// were dropped because their date could not be parsed.
type CashflowLadder struct {
	GroupBy GroupBy          `json:"group_by"`
	Buckets []CashflowBucket `json:"buckets"`
	Skipped int              `json:"skipped"`
}

// LadderQuery filters the raw cashflow-ladder endpoint. Empty fields are
// not sent.
type LadderQuery struct {
	Scenario       string
	InstrumentType string
	Aggregation    string
	CashflowType   string
}
