// Package dataset provides a minimal ordered-column tabular container.
// Pipelines treat it as opaque mutable state: steps mutate it in place and
// checkpoints restore it through its explicit serialized form.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table is an ordered-column, row-major tabular container. Column order is
// significant. Cell values are whatever the decoder produced; no type
// checking of contents is performed.
type Table struct {
	columns []string
	rows    [][]any
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.rows[i]))
	copy(row, t.rows[i])
	return row
}

// AppendRow adds a row. The number of values must match the column count.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// RenameColumn renames a column in place.
func (t *Table) RenameColumn(from, to string) error {
	i, ok := t.ColumnIndex(from)
	if !ok {
		return fmt.Errorf("column %q does not exist", from)
	}
	if _, exists := t.ColumnIndex(to); exists {
		return fmt.Errorf("column %q already exists", to)
	}
	t.columns[i] = to
	return nil
}

// DropColumn removes a column and its values from every row.
func (t *Table) DropColumn(name string) error {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return fmt.Errorf("column %q does not exist", name)
	}
	t.columns = append(t.columns[:i], t.columns[i+1:]...)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r][:i], t.rows[r][i+1:]...)
	}
	return nil
}

// Limit truncates the table to at most n rows.
func (t *Table) Limit(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(t.rows) {
		t.rows = t.rows[:n]
	}
}

// MapNumeric applies fn to every numeric cell, storing results as float64.
// Non-numeric cells are left untouched.
func (t *Table) MapNumeric(fn func(float64) float64) {
	for _, row := range t.rows {
		for i, v := range row {
			if f, ok := asFloat(v); ok {
				row[i] = fn(f)
			}
		}
	}
}

// MapColumn applies fn to every numeric cell of the named column.
func (t *Table) MapColumn(name string, fn func(float64) float64) error {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return fmt.Errorf("column %q does not exist", name)
	}
	for _, row := range t.rows {
		if f, fok := asFloat(row[i]); fok {
			row[i] = fn(f)
		}
	}
	return nil
}

// Equal reports whether two tables have the same columns and rows. Numeric
// cells compare by value, so an int written before serialization equals the
// float64 that comes back from JSON.
func (t *Table) Equal(other *Table) bool {
	if other == nil {
		return false
	}
	if len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i := range t.columns {
		if t.columns[i] != other.columns[i] {
			return false
		}
	}
	for r := range t.rows {
		if len(t.rows[r]) != len(other.rows[r]) {
			return false
		}
		for c := range t.rows[r] {
			if !cellEqual(t.rows[r][c], other.rows[r][c]) {
				return false
			}
		}
	}
	return true
}

func cellEqual(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// tableState is the serialized form of a Table.
type tableState struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// MarshalState serializes the table for checkpointing.
func (t *Table) MarshalState() ([]byte, error) {
	return json.Marshal(tableState{Columns: t.columns, Rows: t.rows})
}

// UnmarshalState restores the table in place from its serialized form.
func (t *Table) UnmarshalState(data []byte) error {
	var state tableState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	t.columns = state.Columns
	t.rows = state.Rows
	return nil
}

// Load reads a table from a JSON file in the serialized form.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t := &Table{}
	if err := t.UnmarshalState(data); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes the table to a JSON file in the serialized form.
func (t *Table) WriteFile(path string) error {
	data, err := json.MarshalIndent(tableState{Columns: t.columns, Rows: t.rows}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
