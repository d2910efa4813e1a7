package render

import (
	"fmt"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of the exports.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type workbook struct {
	f      *excelize.File
	sheet  string
	header int
	number int
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E5E7EB"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	fmtStr := "#,##0.00"
	number, err := f.NewStyle(&excelize.Style{CustomNumFmt: &fmtStr})
	if err != nil {
		f.Close()
		return nil, err
	}
	return &workbook{f: f, sheet: sheet, header: header, number: number}, nil
}

func (w *workbook) row(r int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *workbook) headerRow(titles ...string) error {
	values := make([]interface{}, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := w.row(1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(w.sheet, "A1", last, w.header); err != nil {
		return err
	}
	if err := w.f.SetPanes(w.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(titles))
	if err != nil {
		return err
	}
	return w.f.SetColWidth(w.sheet, "A", lastCol, 20)
}

func (w *workbook) numberColumns(fromCol, toCol, lastRow int) error {
	if lastRow < 2 || toCol < fromCol {
		return nil
	}
	top, err := excelize.CoordinatesToCellName(fromCol, 2)
	if err != nil {
		return err
	}
	bottom, err := excelize.CoordinatesToCellName(toCol, lastRow)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(w.sheet, top, bottom, w.number)
}

func (w *workbook) bytes() ([]byte, error) {
	defer w.f.Close()
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

// DriverComparisonXLSX writes one row per matrix key with a column per
// scenario and a trailing duration column. Missing cells are "-".
func DriverComparisonXLSX(sheet string, cmp *domain.DriverComparison) ([]byte, error) {
	w, err := newWorkbook(sheet)
	if err != nil {
		return nil, err
	}

	titles := []string{"Instrument Type"}
	withBreakdown := false
	for _, r := range cmp.Rows {
		if r.BreakdownValue != "" {
			withBreakdown = true
			break
		}
	}
	if withBreakdown {
		titles = append(titles, "Breakdown")
	}
	firstValueCol := len(titles) + 1
	titles = append(titles, cmp.Scenarios...)
	titles = append(titles, "Duration")

	if err := w.headerRow(titles...); err != nil {
		w.f.Close()
		return nil, err
	}

	for i, r := range cmp.Rows {
		values := []interface{}{r.InstrumentType}
		if withBreakdown {
			values = append(values, r.BreakdownValue)
		}
		for _, s := range cmp.Scenarios {
			values = append(values, cellValue(r.Values[s]))
		}
		values = append(values, cellValue(r.Duration))
		if err := w.row(i+2, values); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	if err := w.numberColumns(firstValueCol, len(titles), len(cmp.Rows)+1); err != nil {
		w.f.Close()
		return nil, err
	}
	return w.bytes()
}

// RepricingGapXLSX writes the gap buckets with their cumulative gap.
func RepricingGapXLSX(buckets []domain.RepricingGapBucket) ([]byte, error) {
	w, err := newWorkbook("Repricing Gap")
	if err != nil {
		return nil, err
	}
	if err := w.headerRow("Bucket", "Assets", "Liabilities", "Gap", "Cumulative Gap"); err != nil {
		w.f.Close()
		return nil, err
	}
	for i, b := range buckets {
		if err := w.row(i+2, []interface{}{b.Bucket, b.Assets, b.Liabilities, b.Gap, b.CumulativeGap}); err != nil {
			w.f.Close()
			return nil, err
		}
	}
	if err := w.numberColumns(2, 5, len(buckets)+1); err != nil {
		w.f.Close()
		return nil, err
	}
	return w.bytes()
}
