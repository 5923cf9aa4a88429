// Package export renders allocations as xlsx workbooks.
package export

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-intake/internal/allocation"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/money"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const defaultSheetName = "Allocation"

// amountFormat shows two decimals with thousands separators
const amountFormat = "#,##0.00"

// AllocationSheet implements port.AllocationExporter
type AllocationSheet struct {
	sheetName string
	logger    *zap.Logger
}

// NewAllocationSheet creates an exporter writing to a sheet called sheetName
func NewAllocationSheet(sheetName string, logger *zap.Logger) *AllocationSheet {
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &AllocationSheet{
		sheetName: sheetName,
		logger:    logger,
	}
}

// Export writes the draft summary, one row per target, and the report's findings
func (s *AllocationSheet) Export(ctx context.Context, sheet port.AllocationSheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), s.sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w, err := newSheetWriter(f, s.sheetName)
	if err != nil {
		return nil, err
	}

	draft := sheet.Draft
	w.title("Expense allocation")
	w.blank()
	w.pair("Amount", draft.Amount)
	w.pair("Currency", string(draft.Amount.Currency))
	w.pair("Category", draft.Category)
	w.pair("Description", draft.Description)
	if !draft.Date.IsZero() {
		w.pair("Date", draft.Date.Format("2006-01-02"))
	}
	w.pair("Method", string(draft.AllocationMethod))
	if sheet.Report != nil {
		w.pair("Report", sheet.Report.ID)
		w.pair("Status", status(sheet.Report))
	}
	w.blank()

	w.header("Target", "Amount", "Percentage")
	for _, a := range draft.Allocations {
		pct := ""
		if a.Percentage != nil {
			pct = a.Percentage.StringFixed(2)
		}
		w.row(string(a.TargetID), a.Amount, pct)
	}
	w.row("Total", allocation.Sum(draft.Allocations, draft.Amount.Currency), "")

	if sheet.Report != nil && len(sheet.Report.Errors) > 0 {
		w.blank()
		w.header("Code", "Field", "Message")
		for _, e := range sheet.Report.Errors {
			w.row(string(e.Code), e.Field, e.Message)
		}
	}

	if sheet.Report != nil && len(sheet.Report.Duplicates) > 0 {
		w.blank()
		w.header("Possible duplicate", "Amount", "Date", "Description")
		for _, d := range sheet.Report.Duplicates {
			w.row(d.CandidateID, yesNo(d.AmountMatch), yesNo(d.DateMatch), yesNo(d.DescriptionMatch))
		}
	}

	if w.err != nil {
		return nil, fmt.Errorf("failed to write allocation sheet: %w", w.err)
	}

	if err := f.SetColWidth(s.sheetName, "A", "A", 24); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(s.sheetName, "B", "D", 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}

	s.logger.Debug("Allocation sheet written",
		zap.Int("targets", len(draft.Allocations)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func status(r *entity.ValidationReport) string {
	switch {
	case !r.OK:
		return "Needs correction"
	case r.RequiresConfirmation():
		return "Needs confirmation"
	default:
		return "Ready to submit"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// sheetWriter appends rows top to bottom and keeps the first error
type sheetWriter struct {
	f           *excelize.File
	sheet       string
	line        int
	boldStyle   int
	amountStyle int
	err         error
}

func newSheetWriter(f *excelize.File, sheet string) (*sheetWriter, error) {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	format := amountFormat
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	return &sheetWriter{f: f, sheet: sheet, line: 1, boldStyle: bold, amountStyle: amount}, nil
}

func (w *sheetWriter) title(text string) {
	w.set(1, text, w.boldStyle)
	w.line++
}

func (w *sheetWriter) blank() {
	w.line++
}

func (w *sheetWriter) pair(label string, value interface{}) {
	w.set(1, label, w.boldStyle)
	w.set(2, value, 0)
	w.line++
}

func (w *sheetWriter) header(labels ...string) {
	for i, l := range labels {
		w.set(i+1, l, w.boldStyle)
	}
	w.line++
}

func (w *sheetWriter) row(values ...interface{}) {
	for i, v := range values {
		w.set(i+1, v, 0)
	}
	w.line++
}

// set writes one cell. Money is written as a number with the amount format.
func (w *sheetWriter) set(col int, value interface{}, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, w.line)
	if err != nil {
		w.err = err
		return
	}

	if m, ok := value.(money.Money); ok {
		value = m.Decimal().InexactFloat64()
		style = w.amountStyle
	}

	if err := w.f.SetCellValue(w.sheet, cell, value); err != nil {
		w.err = err
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, style)
	}
}
