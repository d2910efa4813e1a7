package instrument

import (
	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// DepositType is the deposit subtype discriminator.
type DepositType string

const (
	Checking         DepositType = "Checking"
	Savings          DepositType = "Savings"
	CD               DepositType = "CD"
	Equity           DepositType = "Equity"
	WholesaleFunding DepositType = "Wholesale Funding"
)

// DepositForm is the add/edit deposit form. Maturity and payment frequency
// apply to CDs; repricing fields to checking and savings accounts.
type DepositForm struct {
	InstrumentID       Input `json:"instrument_id"`
	Type               Input `json:"type"`
	Balance            Input `json:"balance"`
	InterestRate       Input `json:"interest_rate"`
	OpenDate           Input `json:"open_date"`
	MaturityDate       Input `json:"maturity_date"`
	RepricingFrequency Input `json:"repricing_frequency"`
	NextRepricingDate  Input `json:"next_repricing_date"`
	PaymentFrequency   Input `json:"payment_frequency"`
}

func (f *DepositForm) Kind() domain.InstrumentKind { return domain.KindDeposit }
func (f *DepositForm) ID() string                  { return f.InstrumentID.String() }

func (f *DepositForm) subtype() (DepositType, error) {
	switch t := DepositType(orDefault(f.Type, string(Checking))); t {
	case Checking, Savings, CD, Equity, WholesaleFunding:
		return t, nil
	}
	return "", &domain.ErrValidation{Field: "type", Message: "must be Checking, Savings, CD, Equity or Wholesale Funding"}
}

func (f *DepositForm) Validate() error {
	if err := requireAll(
		named{"instrument_id", f.InstrumentID},
		named{"balance", f.Balance},
		named{"interest_rate", f.InterestRate},
		named{"open_date", f.OpenDate},
	); err != nil {
		return err
	}
	subtype, err := f.subtype()
	if err != nil {
		return err
	}

	open, err := checkDate("open_date", f.OpenDate)
	if err != nil {
		return err
	}
	if subtype == CD {
		if f.MaturityDate.empty() {
			return &domain.ErrValidation{Field: "maturity_date", Message: RequiredFieldsMessage}
		}
		mat, err := checkDate("maturity_date", f.MaturityDate)
		if err != nil {
			return err
		}
		if !mat.After(open) {
			return &domain.ErrValidation{Field: "maturity_date", Message: "must be after open_date"}
		}
	}
	if err := checkOptionalDate("next_repricing_date", f.NextRepricingDate); err != nil {
		return err
	}
	if err := checkOneOf("repricing_frequency", f.RepricingFrequency, repricingFrequencies...); err != nil {
		return err
	}
	return checkOneOf("payment_frequency", f.PaymentFrequency, paymentFrequencies...)
}

// Payload returns a domain.Deposit.
func (f *DepositForm) Payload() (any, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	subtype, _ := f.subtype()

	balance, err := parseFloat("balance", f.Balance)
	if err != nil {
		return nil, err
	}
	rate, err := parseFloat("interest_rate", f.InterestRate)
	if err != nil {
		return nil, err
	}
	dep := domain.Deposit{
		InstrumentID: f.ID(),
		Type:         string(subtype),
		Balance:      balance,
		InterestRate: rate,
		OpenDate:     f.OpenDate.String(),
	}

	switch subtype {
	case CD:
		dep.MaturityDate = optionalString(f.MaturityDate)
		freq := orDefault(f.PaymentFrequency, "Monthly")
		dep.PaymentFrequency = &freq
	case Checking, Savings:
		dep.RepricingFrequency = optionalString(f.RepricingFrequency)
		dep.NextRepricingDate = optionalString(f.NextRepricingDate)
	case Equity, WholesaleFunding:
	}
	return dep, nil
}
