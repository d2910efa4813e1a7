package domain

import "strings"

// ============================================================
// Banking-book instruments (owned and persisted by the backend)
// ============================================================

// InstrumentKind selects one of the three instrument classes.
type InstrumentKind string

const (
	KindLoan       InstrumentKind = "loan"
	KindDeposit    InstrumentKind = "deposit"
	KindDerivative InstrumentKind = "derivative"
)

// Kinds lists every instrument class in display order.
var Kinds = []InstrumentKind{KindLoan, KindDeposit, KindDerivative}

// Collection is the REST collection segment for the kind.
func (k InstrumentKind) Collection() string {
	return string(k) + "s"
}

// Title is the capitalised singular used in banner messages.
func (k InstrumentKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// ParseKind accepts both singular and collection forms ("loan", "loans").
func ParseKind(s string) (InstrumentKind, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &ErrValidation{Field: "kind", Message: "must be loan, deposit or derivative"}
}

// Loan is a loan record as stored by the backend. Dates are YYYY-MM-DD.
type Loan struct {
	InstrumentID       string   `json:"instrument_id"`
	Type               string   `json:"type"`
	Notional           float64  `json:"notional"`
	InterestRate       *float64 `json:"interest_rate"`
	OriginationDate    string   `json:"origination_date"`
	MaturityDate       string   `json:"maturity_date"`
	BenchmarkRateType  *string  `json:"benchmark_rate_type"`
	Spread             *float64 `json:"spread"`
	RepricingFrequency *string  `json:"repricing_frequency"`
	NextRepricingDate  *string  `json:"next_repricing_date"`
	PaymentFrequency   string   `json:"payment_frequency"`
}

// Deposit is a deposit record as stored by the backend.
type Deposit struct {
	InstrumentID       string  `json:"instrument_id"`
	Type               string  `json:"type"`
	Balance            float64 `json:"balance"`
	InterestRate       float64 `json:"interest_rate"`
	OpenDate           string  `json:"open_date"`
	MaturityDate       *string `json:"maturity_date"`
	RepricingFrequency *string `json:"repricing_frequency"`
	NextRepricingDate  *string `json:"next_repricing_date"`
	PaymentFrequency   *string `json:"payment_frequency"`
}

// Derivative is an interest rate swap record as stored by the backend.
type Derivative struct {
	InstrumentID             string   `json:"instrument_id"`
	Type                     string   `json:"type"`
	Subtype                  string   `json:"subtype"`
	Notional                 float64  `json:"notional"`
	StartDate                string   `json:"start_date"`
	EndDate                  string   `json:"end_date"`
	FixedRate                *float64 `json:"fixed_rate"`
	FloatingRateIndex        *string  `json:"floating_rate_index"`
	FloatingSpread           *float64 `json:"floating_spread"`
	FixedPaymentFrequency    string   `json:"fixed_payment_frequency"`
	FloatingPaymentFrequency string   `json:"floating_payment_frequency"`
}

// InstrumentRecord is a listed instrument passed through to the view
// exactly as the backend sent it.
type InstrumentRecord map[string]any

// ID returns the record's instrument_id, or "" when absent.
func (r InstrumentRecord) ID() string {
	id, _ := r["instrument_id"].(string)
	return id
}
