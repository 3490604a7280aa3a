// Package tabular holds the in-memory table shape shared by the connector,
// the dataset classifier and the HTTP layer, plus its xlsx codec.
package tabular

import "slices"

// Row maps a column name to its cell value. Missing or empty cells are nil.
type Row map[string]any

// Table is an ordered set of columns over a slice of rows
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table with the given columns
func New(columns ...string) *Table {
	return &Table{
		Columns: append([]string{}, columns...),
		Rows:    []Row{},
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Has reports whether the column exists
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.Columns, column)
}

// Clone returns a copy whose rows can be modified without touching t
func (t *Table) Clone() *Table {
	if t == nil {
		return New()
	}
	out := &Table{
		Columns: append([]string{}, t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared with t.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: append([]string{}, t.Columns...), Rows: []Row{}}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Set computes a column for every row, appending it to Columns if new
func (t *Table) Set(column string, compute func(Row) any) {
	if !t.Has(column) {
		t.Columns = append(t.Columns, column)
	}
	for _, row := range t.Rows {
		row[column] = compute(row)
	}
}

// Column returns the values of a column in row order
func (t *Table) Column(column string) []any {
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[column]
	}
	return values
}

// Select returns a table restricted to the listed columns that exist in t,
// in the order given
func (t *Table) Select(columns ...string) *Table {
	out := &Table{Columns: []string{}, Rows: make([]Row, len(t.Rows))}
	for _, c := range columns {
		if t.Has(c) && !slices.Contains(out.Columns, c) {
			out.Columns = append(out.Columns, c)
		}
	}
	for i, row := range t.Rows {
		cp := make(Row, len(out.Columns))
		for _, c := range out.Columns {
			cp[c] = row[c]
		}
		out.Rows[i] = cp
	}
	return out
}

// RenameColumns renames every column through rename. When two columns end up
// with the same name the first one in column order keeps it and the later
// one keeps its previous name.
func (t *Table) RenameColumns(rename func(string) string) {
	taken := make(map[string]bool, len(t.Columns))
	mapping := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		target := rename(c)
		if taken[target] {
			target = c
			for taken[target] {
				target += "_dup"
			}
		}
		taken[target] = true
		mapping[c] = target
	}

	for i, c := range t.Columns {
		t.Columns[i] = mapping[c]
	}
	for _, row := range t.Rows {
		moved := make(Row, len(row))
		for k, v := range row {
			if target, ok := mapping[k]; ok {
				moved[target] = v
			} else {
				moved[k] = v
			}
		}
		for k := range row {
			delete(row, k)
		}
		for k, v := range moved {
			row[k] = v
		}
	}
}
