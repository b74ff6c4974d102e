package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the inferred type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumeric
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	default:
		return "string"
	}
}

// Column is a typed column of values. Exactly one of the value slices is
// populated according to Kind. Valid marks cells that parsed successfully;
// invalid cells behave as missing values.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Floats  []float64
	Times   []time.Time
	Valid   []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Valid)
}

// IsValid reports whether the cell at index i holds a usable value.
func (c *Column) IsValid(i int) bool {
	return i >= 0 && i < len(c.Valid) && c.Valid[i]
}

// Value returns the typed cell value, or nil for missing cells.
func (c *Column) Value(i int) any {
	if !c.IsValid(i) {
		return nil
	}
	switch c.Kind {
	case KindNumeric:
		return c.Floats[i]
	case KindDatetime:
		return c.Times[i]
	default:
		return c.Strings[i]
	}
}

// Display returns the cell rendered as a string, empty for missing cells.
func (c *Column) Display(i int) string {
	if !c.IsValid(i) {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	case KindDatetime:
		return c.Times[i].Format("2006-01-02")
	default:
		return c.Strings[i]
	}
}

// Float returns the numeric value of a cell, zero when missing.
func (c *Column) Float(i int) float64 {
	if c.Kind != KindNumeric || !c.IsValid(i) {
		return 0
	}
	return c.Floats[i]
}

// Time returns the datetime value of a cell, zero when missing.
func (c *Column) Time(i int) time.Time {
	if c.Kind != KindDatetime || !c.IsValid(i) {
		return time.Time{}
	}
	return c.Times[i]
}

// Distinct counts unique valid values in the column.
func (c *Column) Distinct() int {
	seen := make(map[string]bool)
	for i := 0; i < c.Len(); i++ {
		if c.IsValid(i) {
			seen[c.Display(i)] = true
		}
	}
	return len(seen)
}

// Frame is an immutable, column-oriented dataset.
type Frame struct {
	Name    string
	columns []*Column
	byName  map[string]*Column
	rows    int
}

// New creates a Frame from columns. All columns must have equal length.
func New(name string, columns []*Column) (*Frame, error) {
	f := &Frame{
		Name:    name,
		columns: columns,
		byName:  make(map[string]*Column, len(columns)),
	}
	for i, col := range columns {
		if i == 0 {
			f.rows = col.Len()
		} else if col.Len() != f.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", col.Name, col.Len(), f.rows)
		}
		if _, exists := f.byName[col.Name]; exists {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		f.byName[col.Name] = col
	}
	return f, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.columns) }

// Column looks up a column by its exact name, nil when absent.
func (f *Frame) Column(name string) *Column {
	return f.byName[name]
}

// Columns returns all columns in declaration order.
func (f *Frame) Columns() []*Column { return f.columns }

// ColumnNames returns column names in declaration order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Row materializes a single row as a column→value map.
func (f *Frame) Row(i int) map[string]any {
	row := make(map[string]any, len(f.columns))
	for _, c := range f.columns {
		switch c.Kind {
		case KindDatetime:
			if c.IsValid(i) {
				row[c.Name] = c.Times[i].Format("2006-01-02")
			} else {
				row[c.Name] = nil
			}
		default:
			row[c.Name] = c.Value(i)
		}
	}
	return row
}

// Rows materializes the given row indices as maps, in order.
func (f *Frame) Rows(indices []int) []map[string]any {
	out := make([]map[string]any, 0, len(indices))
	for _, i := range indices {
		out = append(out, f.Row(i))
	}
	return out
}
