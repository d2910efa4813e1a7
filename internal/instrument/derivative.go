package instrument

import (
	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// InterestRateSwap is the only derivative type the backend models.
const InterestRateSwap = "Interest Rate Swap"

// SwapSide is the derivative subtype discriminator.
type SwapSide string

const (
	PayerSwap    SwapSide = "Payer Swap"
	ReceiverSwap SwapSide = "Receiver Swap"
)

// DerivativeForm is the add/edit swap form.
type DerivativeForm struct {
	InstrumentID             Input `json:"instrument_id"`
	Subtype                  Input `json:"subtype"`
	Notional                 Input `json:"notional"`
	StartDate                Input `json:"start_date"`
	EndDate                  Input `json:"end_date"`
	FixedRate                Input `json:"fixed_rate"`
	FloatingRateIndex        Input `json:"floating_rate_index"`
	FloatingSpread           Input `json:"floating_spread"`
	FixedPaymentFrequency    Input `json:"fixed_payment_frequency"`
	FloatingPaymentFrequency Input `json:"floating_payment_frequency"`
}

func (f *DerivativeForm) Kind() domain.InstrumentKind { return domain.KindDerivative }
func (f *DerivativeForm) ID() string                  { return f.InstrumentID.String() }

func (f *DerivativeForm) side() (SwapSide, error) {
	switch s := SwapSide(orDefault(f.Subtype, string(PayerSwap))); s {
	case PayerSwap, ReceiverSwap:
		return s, nil
	}
	return "", &domain.ErrValidation{Field: "subtype", Message: "must be Payer Swap or Receiver Swap"}
}

func (f *DerivativeForm) Validate() error {
	if err := requireAll(
		named{"instrument_id", f.InstrumentID},
		named{"notional", f.Notional},
		named{"start_date", f.StartDate},
		named{"end_date", f.EndDate},
	); err != nil {
		return err
	}
	if _, err := f.side(); err != nil {
		return err
	}

	start, err := checkDate("start_date", f.StartDate)
	if err != nil {
		return err
	}
	end, err := checkDate("end_date", f.EndDate)
	if err != nil {
		return err
	}
	if !end.After(start) {
		return &domain.ErrValidation{Field: "end_date", Message: "must be after start_date"}
	}
	if err := checkOneOf("floating_rate_index", f.FloatingRateIndex, "SOFR", "LIBOR"); err != nil {
		return err
	}
	if err := checkOneOf("fixed_payment_frequency", f.FixedPaymentFrequency, paymentFrequencies...); err != nil {
		return err
	}
	return checkOneOf("floating_payment_frequency", f.FloatingPaymentFrequency, paymentFrequencies...)
}

// Payload returns a domain.Derivative.
func (f *DerivativeForm) Payload() (any, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	side, _ := f.side()

	notional, err := parseFloat("notional", f.Notional)
	if err != nil {
		return nil, err
	}
	fixed, err := optionalFloat("fixed_rate", f.FixedRate)
	if err != nil {
		return nil, err
	}
	spread, err := optionalFloat("floating_spread", f.FloatingSpread)
	if err != nil {
		return nil, err
	}

	var d domain.Derivative
	switch side {
	case PayerSwap, ReceiverSwap:
		d = domain.Derivative{
			InstrumentID:             f.ID(),
			Type:                     InterestRateSwap,
			Subtype:                  string(side),
			Notional:                 notional,
			StartDate:                f.StartDate.String(),
			EndDate:                  f.EndDate.String(),
			FixedRate:                fixed,
			FloatingRateIndex:        optionalString(f.FloatingRateIndex),
			FloatingSpread:           spread,
			FixedPaymentFrequency:    orDefault(f.FixedPaymentFrequency, "Quarterly"),
			FloatingPaymentFrequency: orDefault(f.FloatingPaymentFrequency, "Monthly"),
		}
	}
	return d, nil
}
