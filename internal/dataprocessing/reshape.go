package dataprocessing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

// Filter returns the rows of t kept by the allow list and then the deny list.
// The result is always a subset of t in the original order.
func Filter(t *domain.CanonicalTable, allow, deny []Predicate) *domain.CanonicalTable {
	out := &domain.CanonicalTable{Schema: t.Schema, Rows: make([]domain.Row, 0, t.Len())}
	for i, row := range t.Rows {
		get := func(name string) string { return t.String(i, name) }
		if keep(get, allow, deny) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// RelabelValues rewrites categorical values in place. Values without a mapping are kept.
func RelabelValues(t *domain.CanonicalTable, mapping map[string]map[string]string) error {
	for col, values := range mapping {
		idx := t.Schema.Index(col)
		if idx < 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf("relabel column %q is not in the schema", col))
		}
		if t.Schema.Columns[idx].Kind != domain.KindCategorical {
			return apperrors.NewAppValidationError(fmt.Sprintf("relabel column %q is not categorical", col))
		}
		for _, row := range t.Rows {
			if s, ok := row[idx].(string); ok {
				if to, found := values[s]; found {
					row[idx] = to
				}
			}
		}
	}
	return nil
}

// DropDuplicates removes every row that occurs more than once, keeping none of the copies
func DropDuplicates(t *domain.CanonicalTable) *domain.CanonicalTable {
	keys := make([]string, t.Len())
	counts := make(map[string]int, t.Len())
	for i, row := range t.Rows {
		keys[i] = rowKey(row)
		counts[keys[i]]++
	}

	out := &domain.CanonicalTable{Schema: t.Schema, Rows: make([]domain.Row, 0, t.Len())}
	for i, row := range t.Rows {
		if counts[keys[i]] == 1 {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func rowKey(row domain.Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%T:%s", v, domain.FormatCell(v))
	}
	return strings.Join(parts, "\x1f")
}

// Melt unpivots the rule's measure columns. The output keeps the remaining columns in
// order followed by KeyName and ValueName, one block of rows per melted column.
// Cells left empty by cleaning produce no row.
func Melt(t *domain.CanonicalTable, rule MeltRule) (*domain.CanonicalTable, error) {
	schema, err := meltSchema(t.Schema, rule)
	if err != nil {
		return nil, err
	}

	melted := make(map[int]bool, len(rule.Columns))
	for _, c := range rule.Columns {
		melted[t.Schema.Index(c)] = true
	}
	var ids []int
	for i := range t.Schema.Columns {
		if !melted[i] {
			ids = append(ids, i)
		}
	}

	out := &domain.CanonicalTable{Schema: schema, Rows: make([]domain.Row, 0, t.Len()*len(rule.Columns))}
	for _, c := range rule.Columns {
		src := t.Schema.Index(c)
		for _, row := range t.Rows {
			if row[src] == nil {
				continue
			}
			r := make(domain.Row, 0, len(ids)+2)
			for _, id := range ids {
				r = append(r, row[id])
			}
			r = append(r, c, row[src])
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

func meltSchema(s domain.Schema, rule MeltRule) (domain.Schema, error) {
	melted := make(map[string]bool, len(rule.Columns))
	for _, c := range rule.Columns {
		idx := s.Index(c)
		if idx < 0 {
			return domain.Schema{}, apperrors.NewAppValidationError(fmt.Sprintf("melt column %q is not in the schema", c))
		}
		if s.Columns[idx].Kind != domain.KindMeasure {
			return domain.Schema{}, apperrors.NewAppValidationError(fmt.Sprintf("melt column %q is not a measure", c))
		}
		melted[c] = true
	}

	out := domain.Schema{Entity: s.Entity}
	for _, col := range s.Columns {
		if !melted[col.Name] {
			out.Columns = append(out.Columns, col)
		}
	}
	for _, name := range []string{rule.KeyName, rule.ValueName} {
		if out.Index(name) >= 0 {
			return domain.Schema{}, apperrors.NewAppValidationError(fmt.Sprintf("melt output column %q already exists", name))
		}
	}
	out.Columns = append(out.Columns,
		domain.Column{Name: rule.KeyName, Kind: domain.KindCategorical},
		domain.Column{Name: rule.ValueName, Kind: domain.KindMeasure},
	)
	return out, nil
}

// SortBy orders rows by the given columns, ascending and stable
func SortBy(t *domain.CanonicalTable, cols ...string) {
	idx := make([]int, 0, len(cols))
	for _, c := range cols {
		if i := t.Schema.Index(c); i >= 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		return compareRows(t.Rows[a], t.Rows[b], idx) < 0
	})
}

func compareRows(a, b domain.Row, idx []int) int {
	for _, i := range idx {
		if c := compareCells(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// compareCells orders two cells of the same column; nil sorts first
func compareCells(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp(x < y, x > y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp(x < y, x > y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return cmp(x.Before(y), x.After(y))
		}
	}
	return strings.Compare(domain.FormatCell(a), domain.FormatCell(b))
}

func cmp(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}
