package viewmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Tone classifies a figure for colouring in the dashboard.
type Tone string

const (
	ToneAdverse   Tone = "adverse"
	ToneFavorable Tone = "favorable"
	ToneNeutral   Tone = "neutral"
)

// sensitivityBand is the percentage move beyond which a sensitivity is
// no longer shown as neutral.
const sensitivityBand = 0.5

// SensitivityTone grades an EVE or NII sensitivity given in percent.
func SensitivityTone(pct float64) Tone {
	switch {
	case pct > sensitivityBand:
		return ToneAdverse
	case pct < -sensitivityBand:
		return ToneFavorable
	}
	return ToneNeutral
}

// GapTone grades a gap by sign.
func GapTone(gap float64) Tone {
	switch {
	case gap > 0:
		return ToneFavorable
	case gap < 0:
		return ToneAdverse
	}
	return ToneNeutral
}

// FormatMillions renders an amount as "$X.XXM".
func FormatMillions(v float64) string {
	return fmt.Sprintf("$%.2fM", v/1e6)
}

// FormatAmount renders v with two decimals and comma thousands separators.
func FormatAmount(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// CompositionSlices picks the records of one instrument type as pie slices
// named by category, in input order.
func CompositionSlices(records []domain.CompositionRecord, instrumentType string) []domain.PieSlice {
	slices := []domain.PieSlice{}
	for _, r := range records {
		if r.InstrumentType == instrumentType {
			slices = append(slices, domain.PieSlice{Name: r.Category, Value: r.TotalAmount})
		}
	}
	withPercent(slices)
	return slices
}

// PieSlices turns a name → amount map into slices sorted by name.
func PieSlices(m map[string]float64) []domain.PieSlice {
	slices := make([]domain.PieSlice, 0, len(m))
	for name, v := range m {
		slices = append(slices, domain.PieSlice{Name: name, Value: v})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Name < slices[j].Name })
	withPercent(slices)
	return slices
}

func withPercent(slices []domain.PieSlice) {
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(decimal.NewFromFloat(s.Value))
	}
	if total.IsZero() {
		return
	}
	hundred := decimal.NewFromInt(100)
	for i := range slices {
		slices[i].Percent = decimal.NewFromFloat(slices[i].Value).
			Mul(hundred).
			DivRound(total, 2).
			InexactFloat64()
	}
}
