package domain

// instrument_type values used by composition records.
const (
	CompositionLoan    = "Loan"
	CompositionDeposit = "Deposit"
)

// CompositionRecord is one category line of the portfolio composition.
type CompositionRecord struct {
	InstrumentType string  `json:"instrument_type"`
	Category       string  `json:"category"`
	TotalAmount    float64 `json:"total_amount"`
	AverageRate    float64 `json:"average_rate"`
	Count          int     `json:"count"`
}

// PortfolioComposition is the aggregate composition with instrument counts.
type PortfolioComposition struct {
	TotalLoans       int                 `json:"total_loans"`
	TotalDeposits    int                 `json:"total_deposits"`
	TotalDerivatives int                 `json:"total_derivatives"`
	Records          []CompositionRecord `json:"records"`
}

// CompositionView is the composition with its per-type category slices.
type CompositionView struct {
	*PortfolioComposition
	LoanSlices    []PieSlice `json:"loan_slices"`
	DepositSlices []PieSlice `json:"deposit_slices"`
}

// EmptyComposition is returned when composition is unavailable and the
// caller chose to degrade.
func EmptyComposition() *PortfolioComposition {
	return &PortfolioComposition{Records: []CompositionRecord{}}
}

// NetPosition is assets against liabilities for one time bucket.
type NetPosition struct {
	Bucket           string  `json:"bucket"`
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	NetPosition      float64 `json:"net_position"`
}

// RepricingGapBucket is one bar of the repricing gap chart.
type RepricingGapBucket struct {
	Bucket         string  `json:"bucket"`
	Assets         float64 `json:"assets"`
	Liabilities    float64 `json:"liabilities"`
	Gap            float64 `json:"gap"`
	CumulativeGap  float64 `json:"cumulative_gap"`
	InstrumentHits int     `json:"instrument_count"`
}

// RepricingInstrument is one instrument row of a gap drill-down.
type RepricingInstrument struct {
	InstrumentID       string  `json:"instrument_id"`
	InstrumentType     string  `json:"instrument_type"`
	Type               string  `json:"type,omitempty"`
	Notional           float64 `json:"notional"`
	NextRepricingDate  string  `json:"next_repricing_date,omitempty"`
	MaturityDate       string  `json:"maturity_date,omitempty"`
	RepricingFrequency string  `json:"repricing_frequency,omitempty"`
}

// PieSlice is one wedge of a composition pie.
type PieSlice struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}
