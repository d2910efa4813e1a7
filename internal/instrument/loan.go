package instrument

import (
	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// LoanType is the loan subtype discriminator.
type LoanType string

const (
	FixedRateLoan    LoanType = "Fixed Rate Loan"
	FloatingRateLoan LoanType = "Floating Rate Loan"
)

// LoanForm is the add/edit loan form. Benchmark, spread and repricing
// fields apply to floating loans only; interest rate to fixed loans only.
type LoanForm struct {
	InstrumentID       Input `json:"instrument_id"`
	Type               Input `json:"type"`
	Notional           Input `json:"notional"`
	InterestRate       Input `json:"interest_rate"`
	MaturityDate       Input `json:"maturity_date"`
	OriginationDate    Input `json:"origination_date"`
	BenchmarkRateType  Input `json:"benchmark_rate_type"`
	Spread             Input `json:"spread"`
	RepricingFrequency Input `json:"repricing_frequency"`
	NextRepricingDate  Input `json:"next_repricing_date"`
	PaymentFrequency   Input `json:"payment_frequency"`
}

func (f *LoanForm) Kind() domain.InstrumentKind { return domain.KindLoan }
func (f *LoanForm) ID() string                  { return f.InstrumentID.String() }

func (f *LoanForm) subtype() (LoanType, error) {
	switch t := LoanType(orDefault(f.Type, string(FixedRateLoan))); t {
	case FixedRateLoan, FloatingRateLoan:
		return t, nil
	}
	return "", &domain.ErrValidation{Field: "type", Message: "must be Fixed Rate Loan or Floating Rate Loan"}
}

func (f *LoanForm) Validate() error {
	if err := requireAll(
		named{"instrument_id", f.InstrumentID},
		named{"notional", f.Notional},
		named{"maturity_date", f.MaturityDate},
		named{"origination_date", f.OriginationDate},
	); err != nil {
		return err
	}
	if _, err := f.subtype(); err != nil {
		return err
	}

	orig, err := checkDate("origination_date", f.OriginationDate)
	if err != nil {
		return err
	}
	mat, err := checkDate("maturity_date", f.MaturityDate)
	if err != nil {
		return err
	}
	if !mat.After(orig) {
		return &domain.ErrValidation{Field: "maturity_date", Message: "must be after origination_date"}
	}
	if err := checkOptionalDate("next_repricing_date", f.NextRepricingDate); err != nil {
		return err
	}
	if err := checkOneOf("benchmark_rate_type", f.BenchmarkRateType, "SOFR", "Prime"); err != nil {
		return err
	}
	if err := checkOneOf("repricing_frequency", f.RepricingFrequency, repricingFrequencies...); err != nil {
		return err
	}
	return checkOneOf("payment_frequency", f.PaymentFrequency, paymentFrequencies...)
}

// Payload returns a domain.Loan.
func (f *LoanForm) Payload() (any, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	subtype, _ := f.subtype()

	notional, err := parseFloat("notional", f.Notional)
	if err != nil {
		return nil, err
	}
	loan := domain.Loan{
		InstrumentID:     f.ID(),
		Type:             string(subtype),
		Notional:         notional,
		OriginationDate:  f.OriginationDate.String(),
		MaturityDate:     f.MaturityDate.String(),
		PaymentFrequency: orDefault(f.PaymentFrequency, "Monthly"),
	}

	switch subtype {
	case FixedRateLoan:
		if loan.InterestRate, err = optionalFloat("interest_rate", f.InterestRate); err != nil {
			return nil, err
		}
	case FloatingRateLoan:
		if loan.Spread, err = optionalFloat("spread", f.Spread); err != nil {
			return nil, err
		}
		loan.BenchmarkRateType = optionalString(f.BenchmarkRateType)
		loan.RepricingFrequency = optionalString(f.RepricingFrequency)
		loan.NextRepricingDate = optionalString(f.NextRepricingDate)
	}
	return loan, nil
}
