package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Invoice Data"

// Service renders tables as CSV or XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Filename is invoice_data_<YYYYmmdd_HHMMSS>.<ext>.
func Filename(ext string, now time.Time) string {
	return fmt.Sprintf("invoice_data_%s.%s", now.Format("20060102_150405"), ext)
}

// CSV writes a header row and one line per record, "\n" terminated.
func (s *Service) CSV(t *Table) ([]byte, error) {
	start := time.Now()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = cellText(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok",
		"rows", len(t.Rows),
		"columns", len(t.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// XLSX returns a workbook with a single "Invoice Data" sheet.
func (s *Service) XLSX(t *Table) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range t.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("header %q: %w", h, err)
		}
	}

	widths := make([]int, len(t.Columns))
	for i, h := range t.Columns {
		widths[i] = len(h)
	}
	for r, row := range t.Rows {
		for c, col := range t.Columns {
			v := cellValue(row[col])
			if str, ok := v.(string); ok {
				if str == "" {
					continue
				}
				widths[c] = max(widths[c], len(str))
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
		}
	}

	// Widen columns to their content, capped so notes don't take the screen.
	for i, w := range widths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, name, name, float64(min(max(w+2, 10), 60)))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(t.Rows),
		"columns", len(t.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
