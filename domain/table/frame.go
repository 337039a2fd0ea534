package table

import (
	"fmt"
	"strings"

	"goclean/domain/core"
)

// Frame is an ordered collection of named columns of equal length. Row order
// is significant: it is the unit of indexing for anomaly reporting and undo.
type Frame struct {
	columns []string
	data    map[string][]Value
	rows    int
}

// NewFrame creates an empty frame
func NewFrame() *Frame {
	return &Frame{data: make(map[string][]Value)}
}

// AddColumn appends a named column. The first column fixes the row count;
// subsequent columns must match it.
func (f *Frame) AddColumn(name string, values []Value) error {
	if _, exists := f.data[name]; exists {
		return fmt.Errorf("duplicate column name %q", name)
	}
	if len(f.columns) == 0 {
		f.rows = len(values)
	} else if len(values) != f.rows {
		return fmt.Errorf("%w: column %q has %d values, frame has %d rows",
			core.ErrRowCountMismatch, name, len(values), f.rows)
	}
	f.columns = append(f.columns, name)
	f.data[name] = values
	return nil
}

// Columns returns the ordered column names
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// HasColumn reports whether the named column exists
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.data[name]
	return ok
}

// RowCount returns the number of rows
func (f *Frame) RowCount() int {
	return f.rows
}

// ColumnCount returns the number of columns
func (f *Frame) ColumnCount() int {
	return len(f.columns)
}

// Column returns a copy of the named column's values. Callers get a snapshot,
// never an alias into the live frame.
func (f *Frame) Column(name string) ([]Value, error) {
	values, ok := f.data[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	out := make([]Value, len(values))
	copy(out, values)
	return out, nil
}

// SetColumn replaces the named column's values in place
func (f *Frame) SetColumn(name string, values []Value) error {
	if _, ok := f.data[name]; !ok {
		return core.NewColumnNotFoundError(name)
	}
	if len(values) != f.rows {
		return fmt.Errorf("%w: column %q has %d values, frame has %d rows",
			core.ErrRowCountMismatch, name, len(values), f.rows)
	}
	stored := make([]Value, len(values))
	copy(stored, values)
	f.data[name] = stored
	return nil
}

// Cell returns the value at (row, column)
func (f *Frame) Cell(row int, column string) (Value, error) {
	values, ok := f.data[column]
	if !ok {
		return Value{}, core.NewColumnNotFoundError(column)
	}
	if row < 0 || row >= len(values) {
		return Value{}, fmt.Errorf("row index %d out of range [0,%d)", row, len(values))
	}
	return values[row], nil
}

// SetCell writes the value at (row, column)
func (f *Frame) SetCell(row int, column string, v Value) error {
	values, ok := f.data[column]
	if !ok {
		return core.NewColumnNotFoundError(column)
	}
	if row < 0 || row >= len(values) {
		return fmt.Errorf("row index %d out of range [0,%d)", row, len(values))
	}
	values[row] = v
	return nil
}

// Row returns one row as an ordered map keyed by column name
func (f *Frame) Row(i int) map[string]Value {
	row := make(map[string]Value, len(f.columns))
	for _, col := range f.columns {
		row[col] = f.data[col][i]
	}
	return row
}

// Page returns a contiguous row slice. Offset and limit are clamped to valid
// bounds: an offset beyond the row count yields an empty slice, not an error.
func (f *Frame) Page(offset, limit int) []map[string]Value {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= f.rows {
		return []map[string]Value{}
	}
	end := offset + limit
	if end > f.rows {
		end = f.rows
	}
	page := make([]map[string]Value, 0, end-offset)
	for i := offset; i < end; i++ {
		page = append(page, f.Row(i))
	}
	return page
}

// SelectRows builds a new frame keeping only the given row indices, in order.
// Every column is re-sliced consistently so the equal-length invariant holds.
func (f *Frame) SelectRows(keep []int) (*Frame, error) {
	out := NewFrame()
	for _, col := range f.columns {
		src := f.data[col]
		values := make([]Value, 0, len(keep))
		for _, idx := range keep {
			if idx < 0 || idx >= len(src) {
				return nil, fmt.Errorf("row index %d out of range [0,%d)", idx, len(src))
			}
			values = append(values, src[idx])
		}
		if err := out.AddColumn(col, values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AppendRow adds one row; missing columns become null
func (f *Frame) AppendRow(row map[string]Value) {
	for _, col := range f.columns {
		v, ok := row[col]
		if !ok {
			v = Null()
		}
		f.data[col] = append(f.data[col], v)
	}
	f.rows++
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	out := &Frame{
		columns: make([]string, len(f.columns)),
		data:    make(map[string][]Value, len(f.data)),
		rows:    f.rows,
	}
	copy(out.columns, f.columns)
	for name, values := range f.data {
		cp := make([]Value, len(values))
		copy(cp, values)
		out.data[name] = cp
	}
	return out
}

// Equal reports byte-level equality of two frames (column order included)
func (f *Frame) Equal(o *Frame) bool {
	if f.rows != o.rows || len(f.columns) != len(o.columns) {
		return false
	}
	for i, col := range f.columns {
		if o.columns[i] != col {
			return false
		}
		a, b := f.data[col], o.data[col]
		for j := range a {
			if !a[j].Equal(b[j]) {
				return false
			}
		}
	}
	return true
}

// MissingCount returns the number of null cells across the whole frame
func (f *Frame) MissingCount() int {
	total := 0
	for _, col := range f.columns {
		for _, v := range f.data[col] {
			if v.IsNull() {
				total++
			}
		}
	}
	return total
}

// MemoryEstimate approximates the in-memory footprint in bytes
func (f *Frame) MemoryEstimate() int64 {
	const cellOverhead = 40 // Value struct + slice bookkeeping
	var total int64
	for _, col := range f.columns {
		total += int64(len(col))
		for _, v := range f.data[col] {
			total += cellOverhead
			if v.Kind == KindString {
				total += int64(len(v.Str))
			}
		}
	}
	return total
}

// Validate checks the equal-length invariant. A failure indicates a transform
// violated its contract and is treated as fatal by the dispatcher.
func (f *Frame) Validate() error {
	for _, col := range f.columns {
		if len(f.data[col]) != f.rows {
			return fmt.Errorf("%w: column %q has %d values, frame has %d rows",
				core.ErrRowCountMismatch, col, len(f.data[col]), f.rows)
		}
	}
	return nil
}

// RowKey builds an equality key over the chosen column subset, used for
// duplicate grouping. An empty subset means all columns.
func (f *Frame) RowKey(row int, subset []string) string {
	cols := subset
	if len(cols) == 0 {
		cols = f.columns
	}
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		values, ok := f.data[col]
		if !ok {
			continue
		}
		v := values[row]
		parts = append(parts, fmt.Sprintf("%d:%s", v.Kind, v.DisplayString()))
	}
	return strings.Join(parts, "\x1f")
}
