// Package instrument holds the add/edit forms for loans, deposits and
// derivatives and the workflow that drives a form through submission.
package instrument

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
)

// RequiredFieldsMessage is shown when a required field is empty.
const RequiredFieldsMessage = "Please fill in all required fields."

const dateLayout = "2006-01-02"

// Form is one filled-in instrument form. Validate runs before any network
// call; Payload builds the backend record with numerics parsed and the
// fields that do not apply to the subtype nulled.
type Form interface {
	Kind() domain.InstrumentKind
	ID() string
	Validate() error
	Payload() (any, error)
}

// Input is a form field as the user typed it. It decodes from a JSON
// string, number or null, so clients may post either "0.045" or 0.045.
type Input string

func (in *Input) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*in = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*in = Input(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("form field must be a string or number: %s", b)
		}
		*in = Input(n.String())
	}
	return nil
}

func (in Input) String() string { return strings.TrimSpace(string(in)) }

func (in Input) empty() bool { return in.String() == "" }

// Decode reads a JSON form body for kind.
func Decode(kind domain.InstrumentKind, r io.Reader) (Form, error) {
	var form Form
	switch kind {
	case domain.KindLoan:
		form = &LoanForm{}
	case domain.KindDeposit:
		form = &DepositForm{}
	case domain.KindDerivative:
		form = &DerivativeForm{}
	default:
		return nil, &domain.ErrValidation{Field: "kind", Message: "must be loan, deposit or derivative"}
	}
	if err := json.NewDecoder(r).Decode(form); err != nil {
		return nil, &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	return form, nil
}

type named struct {
	name  string
	value Input
}

// requireAll reports the first empty field in order.
func requireAll(fields ...named) error {
	for _, f := range fields {
		if f.value.empty() {
			return &domain.ErrValidation{Field: f.name, Message: RequiredFieldsMessage}
		}
	}
	return nil
}

func parseFloat(field string, in Input) (float64, error) {
	v, err := strconv.ParseFloat(in.String(), 64)
	if err != nil {
		return 0, &domain.ErrValidation{Field: field, Message: "must be a number"}
	}
	return v, nil
}

// optionalFloat parses in, mapping an empty field to nil.
func optionalFloat(field string, in Input) (*float64, error) {
	if in.empty() {
		return nil, nil
	}
	v, err := parseFloat(field, in)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalString(in Input) *string {
	if in.empty() {
		return nil
	}
	s := in.String()
	return &s
}

func orDefault(in Input, def string) string {
	if in.empty() {
		return def
	}
	return in.String()
}

func checkDate(field string, in Input) (time.Time, error) {
	t, err := time.Parse(dateLayout, in.String())
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: field, Message: "must be a date in YYYY-MM-DD form"}
	}
	return t, nil
}

func checkOptionalDate(field string, in Input) error {
	if in.empty() {
		return nil
	}
	_, err := checkDate(field, in)
	return err
}

func checkOneOf(field string, in Input, allowed ...string) error {
	if in.empty() {
		return nil
	}
	for _, a := range allowed {
		if in.String() == a {
			return nil
		}
	}
	return &domain.ErrValidation{Field: field, Message: "must be one of " + strings.Join(allowed, ", ")}
}

// Frequencies offered by the forms.
var (
	repricingFrequencies = []string{"Monthly", "Quarterly", "Annually"}
	paymentFrequencies   = []string{"Monthly", "Quarterly", "Semi-Annually", "Annually"}
)
