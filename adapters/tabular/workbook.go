package tabular

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on worksheet names
const maxSheetName = 31

// fixedTimestamp keeps workbook metadata stable across runs
const fixedTimestamp = "2000-01-01T00:00:00Z"

// textColumns are stored as strings even when a value looks numeric, so ids
// keep leading zeros and names like "Nan" stay names.
var textColumns = map[string]bool{
	"customer_id": true, "surname": true, "geography": true, "gender": true, "card_type": true,
	"group": true, "dimension": true, "metric": true, "feature": true, "column": true,
	"signal": true, "error": true, "reason": true, "value": true,
	"balance_tier": true, "tenure_tier": true, "credit_tier": true, "age_band": true, "risk_tier": true,
}

// WorkbookSink collects tables as worksheets of one .xlsx file, written on Close
type WorkbookSink struct {
	path string

	mu     sync.Mutex
	file   *excelize.File
	sheets int
	header int // style id for header rows
}

// NewWorkbookSink prepares an in-memory workbook that Close saves to path
func NewWorkbookSink(path string) (*WorkbookSink, error) {
	f := excelize.NewFile()
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "churnlens",
		Title:          "Customer churn summary",
		Created:        fixedTimestamp,
		Modified:       fixedTimestamp,
		LastModifiedBy: "churnlens",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set workbook properties: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &WorkbookSink{path: path, file: f, header: style}, nil
}

// WriteTable adds one worksheet. Cells of numeric columns that parse as finite
// numbers are stored as numbers so they sort and chart correctly in Excel;
// everything else is written exactly as in the CSV output.
func (s *WorkbookSink) WriteTable(ctx context.Context, name string, headers []string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet := sheetName(name)
	if s.sheets == 0 {
		if err := s.file.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
		}
	} else if _, err := s.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
	}
	s.sheets++

	numeric := make([]bool, len(headers))
	for i, h := range headers {
		numeric[i] = !textColumns[strings.ToLower(h)]
	}

	if err := s.setRow(sheet, 1, toCells(headers, nil)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(max(len(headers), 1), 1)
	if err := s.file.SetCellStyle(sheet, "A1", last, s.header); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}
	for i, row := range rows {
		if err := s.setRow(sheet, i+2, toCells(row, numeric)); err != nil {
			return err
		}
	}
	return nil
}

func (s *WorkbookSink) setRow(sheet string, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

// Close saves the workbook
func (s *WorkbookSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.file.Close()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func sheetName(name string) string {
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

func toCells(values []string, numeric []bool) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
		if i < len(numeric) && numeric[i] {
			if f, ok := parseNumber(v); ok {
				cells[i] = f
			}
		}
	}
	return cells
}

// parseNumber accepts finite decimals only. Leading zeros mark an identifier.
func parseNumber(v string) (float64, bool) {
	digits := strings.TrimPrefix(v, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
