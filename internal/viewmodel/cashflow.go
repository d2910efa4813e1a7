// Package viewmodel turns raw backend rows into chart-ready shapes: cashflow
// ladders bucketed by calendar period, scenario driver matrices and
// composition slices. Everything here is pure and safe for concurrent use.
package viewmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Values without a zone are read as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01",
	"2006",
}

// ParseDate reads a cashflow date anchored to UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// GroupKey derives the bucket key for t. Keys are zero padded so that string
// order is chronological.
func GroupKey(t time.Time, groupBy domain.GroupBy) (string, error) {
	switch groupBy {
	case domain.GroupByMonth:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())), nil
	case domain.GroupByQuarter:
		return fmt.Sprintf("%04d Q%d", t.Year(), (int(t.Month())-1)/3+1), nil
	case domain.GroupByYear:
		return fmt.Sprintf("%04d", t.Year()), nil
	}
	return "", &domain.ErrValidation{Field: "group_by", Message: "must be Month, Quarter or Year"}
}

// DecodeCashflowRows reads a ladder response body. Anything other than a
// JSON array decodes to no rows; array elements that are not row objects
// are counted in skipped.
func DecodeCashflowRows(raw json.RawMessage) (rows []domain.CashflowRow, skipped int) {
	rows = []domain.CashflowRow{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return rows, 0
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return rows, 0
	}
	for _, e := range elems {
		var r domain.CashflowRow
		if err := json.Unmarshal(e, &r); err != nil {
			skipped++
			continue
		}
		rows = append(rows, r)
	}
	return rows, skipped
}

type bucketSum struct {
	fixed    decimal.Decimal
	floating decimal.Decimal
	rows     int
}

// BucketCashflows sums rows into calendar buckets sorted ascending by key
// and carries running fixed and floating totals. Rows whose date cannot be
// parsed contribute to neither total and are reported in Skipped.
func BucketCashflows(rows []domain.CashflowRow, groupBy domain.GroupBy) (*domain.CashflowLadder, error) {
	if _, err := GroupKey(time.Time{}, groupBy); err != nil {
		return nil, err
	}

	ladder := &domain.CashflowLadder{GroupBy: groupBy, Buckets: []domain.CashflowBucket{}}
	sums := make(map[string]*bucketSum)

	for _, r := range rows {
		t, ok := ParseDate(r.DateField())
		if !ok {
			ladder.Skipped++
			continue
		}
		key, _ := GroupKey(t, groupBy)
		s, ok := sums[key]
		if !ok {
			s = &bucketSum{}
			sums[key] = s
		}
		s.fixed = s.fixed.Add(decimal.NewFromFloat(r.Fixed))
		s.floating = s.floating.Add(decimal.NewFromFloat(r.Floating))
		s.rows++
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cumFixed, cumFloating := decimal.Zero, decimal.Zero
	for _, k := range keys {
		s := sums[k]
		cumFixed = cumFixed.Add(s.fixed)
		cumFloating = cumFloating.Add(s.floating)
		ladder.Buckets = append(ladder.Buckets, domain.CashflowBucket{
			GroupKey:           k,
			Fixed:              s.fixed.InexactFloat64(),
			Floating:           s.floating.InexactFloat64(),
			CumulativeFixed:    cumFixed.InexactFloat64(),
			CumulativeFloating: cumFloating.InexactFloat64(),
			Rows:               s.rows,
		})
	}
	return ladder, nil
}
