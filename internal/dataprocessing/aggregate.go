package dataprocessing

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

// Aggregate returns one row per group holding the mean of each measure, with the
// entity column set to the sentinel. Groups are sorted by their key columns.
// The input is not modified.
func Aggregate(t *domain.CanonicalTable, rule AggregateRule) (*domain.CanonicalTable, error) {
	if err := checkAggregate(t.Schema, rule); err != nil {
		return nil, err
	}

	sentinel := rule.SentinelOrDefault()
	entity := t.Schema.Index(t.Schema.Entity)

	measures := make(map[int]bool, len(rule.Measures))
	for _, m := range rule.Measures {
		measures[t.Schema.Index(m)] = true
	}
	var keyCols []int
	for i := range t.Schema.Columns {
		if i != entity && !measures[i] {
			keyCols = append(keyCols, i)
		}
	}

	type group struct {
		key    domain.Row
		values map[int]stats.Float64Data
	}
	groups := make(map[string]*group)
	var order []*group

	for _, row := range t.Rows {
		if row[entity] == sentinel {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("sentinel %q collides with a value of %q", sentinel, t.Schema.Entity))
		}

		key := make(domain.Row, len(keyCols))
		for k, c := range keyCols {
			key[k] = row[c]
		}
		id := rowKey(key)
		g, ok := groups[id]
		if !ok {
			g = &group{key: key, values: make(map[int]stats.Float64Data)}
			groups[id] = g
			order = append(order, g)
		}
		for m := range measures {
			if v, ok := row[m].(float64); ok {
				g.values[m] = append(g.values[m], v)
			}
		}
	}

	all := make([]int, len(keyCols))
	for i := range all {
		all[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return compareRows(order[a].key, order[b].key, all) < 0
	})

	out := &domain.CanonicalTable{Schema: t.Schema, Rows: make([]domain.Row, 0, len(order))}
	for _, g := range order {
		row := make(domain.Row, len(t.Schema.Columns))
		for k, c := range keyCols {
			row[c] = g.key[k]
		}
		row[entity] = sentinel
		for m := range measures {
			mean, err := stats.Mean(g.values[m])
			if err != nil {
				return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
					fmt.Sprintf("cannot average %q", t.Schema.Columns[m].Name), err)
			}
			row[m] = mean
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func checkAggregate(s domain.Schema, rule AggregateRule) error {
	if s.Entity == "" {
		return apperrors.NewAppValidationError("aggregation needs an entity column")
	}
	idx := s.Index(s.Entity)
	if idx < 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("entity column %q is not in the schema", s.Entity))
	}
	if s.Columns[idx].Kind != domain.KindCategorical {
		return apperrors.NewAppValidationError(fmt.Sprintf("entity column %q is not categorical", s.Entity))
	}
	for _, m := range rule.Measures {
		i := s.Index(m)
		if i < 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf("measure %q is not in the schema", m))
		}
		if s.Columns[i].Kind != domain.KindMeasure {
			return apperrors.NewAppValidationError(fmt.Sprintf("column %q is not a measure", m))
		}
	}
	return nil
}

// Round rounds v half away from zero to the given number of decimals
func Round(v float64, places int) float64 {
	r, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return r
}

// RoundTable returns a copy of t with every measure rounded
func RoundTable(t *domain.CanonicalTable, places int) *domain.CanonicalTable {
	out := t.Clone()
	for i, col := range out.Schema.Columns {
		if col.Kind != domain.KindMeasure {
			continue
		}
		for _, row := range out.Rows {
			if v, ok := row[i].(float64); ok {
				row[i] = Round(v, places)
			}
		}
	}
	return out
}
