package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoWorksheet = errors.New("no worksheet found")
)

const defaultSheet = "Sheet1"

// Read parses the first worksheet of an xlsx workbook. The first row is the
// header; every following row becomes a Row keyed by header name.
func Read(r io.Reader) (*Table, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoWorksheet
	}

	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return New(), nil
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("unnamed_%d", i)
		}
		if seen[name] {
			// duplicate header: keep the first occurrence only
			header[i] = ""
			continue
		}
		seen[name] = true
		header[i] = name
	}

	table := New()
	for _, h := range header {
		if h != "" {
			table.Columns = append(table.Columns, h)
		}
	}

	for _, cells := range rows[1:] {
		if isBlank(cells) {
			continue
		}
		row := make(Row, len(table.Columns))
		for i, h := range header {
			if h == "" {
				continue
			}
			row[h] = cellValue(cells, i)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Write encodes t as a single-sheet xlsx workbook
func Write(w io.Writer, t *Table, sheet string) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet = sanitizeSheetName(sheet)
	if sheet != defaultSheet {
		if err := file.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("failed to name worksheet: %w", err)
		}
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range t.Rows {
		values := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			values[j] = exportValue(row[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(cells []string, idx int) any {
	if idx >= len(cells) {
		return nil
	}
	v := strings.TrimSpace(cells[idx])
	if v == "" {
		return nil
	}
	return v
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func exportValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return *val
	default:
		return val
	}
}

// sanitizeSheetName applies the worksheet naming rules of the xlsx format
func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultSheet
	}
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
