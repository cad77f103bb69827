package domain

import (
	"fmt"
	"time"
)

// RawTable is an untyped grid as read from a source file
type RawTable struct {
	Source string     `json:"source"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ColumnIndex returns the position of the named header, or -1
func (r *RawTable) ColumnIndex(name string) int {
	for i, h := range r.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for header position col, or "" when the row is short
func (r *RawTable) Cell(i, col int) string {
	if col < 0 || col >= len(r.Rows[i]) {
		return ""
	}
	return r.Rows[i][col]
}

// ColumnKind is the semantic type of a canonical column
type ColumnKind string

const (
	KindCategorical ColumnKind = "categorical"
	KindInteger     ColumnKind = "integer"
	KindMeasure     ColumnKind = "measure"
	KindTemporal    ColumnKind = "temporal"
)

// Column binds a raw header (Source) to a typed presentation column (Name)
type Column struct {
	Name   string     `json:"name" yaml:"name" validate:"required"`
	Source string     `json:"source,omitempty" yaml:"source"`
	Kind   ColumnKind `json:"kind" yaml:"kind" validate:"required,oneof=categorical integer measure temporal"`
}

// SourceName returns the raw header the column is read from
func (c Column) SourceName() string {
	if c.Source == "" {
		return c.Name
	}
	return c.Source
}

// Schema is the typed column layout of one dataset
type Schema struct {
	Columns []Column `json:"columns" yaml:"columns" validate:"required,min=1,dive"`
	// Entity names the column that identifies the observed entity (country, code...)
	Entity string `json:"entity,omitempty" yaml:"entity"`
}

// Index returns the position of the named column, or -1
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the presentation column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Row holds one observation. Cell types follow the column kind:
// string (categorical), int64 (integer), float64 (measure), time.Time (temporal).
type Row []any

// CanonicalTable is a cleaned long-format table ready for binding
type CanonicalTable struct {
	Schema Schema `json:"schema"`
	Rows   []Row  `json:"rows"`
}

// Len returns the number of rows
func (t *CanonicalTable) Len() int {
	return len(t.Rows)
}

// String returns the categorical value at row i, column col
func (t *CanonicalTable) String(i int, col string) string {
	idx := t.Schema.Index(col)
	if idx < 0 {
		return ""
	}
	return FormatCell(t.Rows[i][idx])
}

// Float returns the measure value at row i, column col
func (t *CanonicalTable) Float(i int, col string) float64 {
	idx := t.Schema.Index(col)
	if idx < 0 {
		return 0
	}
	v, _ := t.Rows[i][idx].(float64)
	return v
}

// Distinct returns the distinct values of col in first-seen order
func (t *CanonicalTable) Distinct(col string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range t.Rows {
		v := t.String(i, col)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// DistinctValues returns the distinct typed cells of col in first-seen order
func (t *CanonicalTable) DistinctValues(col string) []any {
	idx := t.Schema.Index(col)
	if idx < 0 {
		return nil
	}
	seen := make(map[string]bool)
	out := []any{}
	for _, row := range t.Rows {
		key := FormatCell(row[idx])
		if !seen[key] {
			seen[key] = true
			out = append(out, row[idx])
		}
	}
	return out
}

// Clone returns a deep copy of the row slice
func (t *CanonicalTable) Clone() *CanonicalTable {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append(Row(nil), r...)
	}
	cols := append([]Column(nil), t.Schema.Columns...)
	return &CanonicalTable{Schema: Schema{Columns: cols, Entity: t.Schema.Entity}, Rows: rows}
}

// FormatCell renders a cell the way it is keyed and displayed
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

// RowIssue records a raw row dropped during cleaning
type RowIssue struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Err    error  `json:"-"`
}

func (i RowIssue) String() string {
	return fmt.Sprintf("row %d: column %q value %q: %v", i.Row, i.Column, i.Value, i.Err)
}
