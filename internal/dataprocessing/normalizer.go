package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "genderviz/internal/errors"
	"genderviz/internal/validation"
	"genderviz/pkg/contracts/domain"
)

// Predicate matches rows whose Column value contains any of Values, or equals one of
// them when Exact is set. Matching is case-sensitive.
type Predicate struct {
	Column string   `json:"column" yaml:"column" validate:"required"`
	Values []string `json:"values" yaml:"values" validate:"required,min=1"`
	Exact  bool     `json:"exact,omitempty" yaml:"exact"`
}

// Matches reports whether value satisfies the predicate
func (p Predicate) Matches(value string) bool {
	for _, v := range p.Values {
		if p.Exact {
			if value == v {
				return true
			}
		} else if strings.Contains(value, v) {
			return true
		}
	}
	return false
}

// MeltRule turns the measure columns in Columns into (KeyName, ValueName) pairs
type MeltRule struct {
	Columns   []string `json:"columns" yaml:"columns" validate:"required,min=1"`
	KeyName   string   `json:"key_name" yaml:"key_name" validate:"required"`
	ValueName string   `json:"value_name" yaml:"value_name" validate:"required"`
}

// AggregateRule adds one mean row per group, tagged with Sentinel in the entity column.
// Groups are formed by every column except the entity and the measures.
type AggregateRule struct {
	Measures []string `json:"measures" yaml:"measures" validate:"required,min=1"`
	Sentinel string   `json:"sentinel" yaml:"sentinel"`
}

// SentinelOrDefault returns the configured sentinel or "ALL"
func (r AggregateRule) SentinelOrDefault() string {
	if r.Sentinel == "" {
		return "ALL"
	}
	return r.Sentinel
}

// CleaningRules parametrizes Normalize for one dataset
type CleaningRules struct {
	Schema domain.Schema `json:"schema" yaml:"schema"`
	// Allow keeps only rows matching every predicate; applied before Deny
	Allow []Predicate `json:"allow,omitempty" yaml:"allow" validate:"dive"`
	// Deny drops rows matching any predicate
	Deny []Predicate `json:"deny,omitempty" yaml:"deny" validate:"dive"`
	// Relabel maps column -> old value -> new value; unmapped values are kept
	Relabel        map[string]map[string]string `json:"relabel,omitempty" yaml:"relabel"`
	Melt           *MeltRule                    `json:"melt,omitempty" yaml:"melt"`
	Aggregate      *AggregateRule               `json:"aggregate,omitempty" yaml:"aggregate"`
	SortBy         []string                     `json:"sort_by,omitempty" yaml:"sort_by"`
	DropDuplicates bool                         `json:"drop_duplicates,omitempty" yaml:"drop_duplicates"`
	// Precision is used when values are serialized, never on the canonical table
	Precision int  `json:"precision" yaml:"precision" validate:"gte=0,lte=10"`
	Strict    bool `json:"strict,omitempty" yaml:"strict"`
}

// Result is the outcome of a normalization
type Result struct {
	Table *domain.CanonicalTable
	// Issues lists rows dropped because of malformed cells, in source order
	Issues []domain.RowIssue
	// Aggregates is the number of sentinel rows added to Table
	Aggregates int
	Sentinel   string
}

// Detail returns the table without its aggregate rows
func (r *Result) Detail() *domain.CanonicalTable {
	detail := r.Table.Clone()
	if r.Aggregates == 0 {
		return detail
	}
	idx := detail.Schema.Index(detail.Schema.Entity)
	rows := detail.Rows[:0]
	for _, row := range detail.Rows {
		if row[idx] != r.Sentinel {
			rows = append(rows, row)
		}
	}
	detail.Rows = rows
	return detail
}

// Normalize binds raw to rules.Schema and applies the cleaning steps in order:
// filter, coerce, relabel, drop duplicates, melt, aggregate, sort.
func Normalize(raw *domain.RawTable, rules CleaningRules) (*Result, error) {
	outSchema, err := rules.Validate()
	if err != nil {
		return nil, err
	}

	if raw == nil || (len(raw.Header) == 0 && len(raw.Rows) == 0) {
		return &Result{Table: &domain.CanonicalTable{Schema: outSchema, Rows: []domain.Row{}}}, nil
	}

	positions := make([]int, len(rules.Schema.Columns))
	for i, col := range rules.Schema.Columns {
		positions[i] = raw.ColumnIndex(col.SourceName())
		if positions[i] < 0 {
			return nil, apperrors.NewSchemaMismatch(col.SourceName(), raw.Source)
		}
	}

	meltCols := make(map[string]bool)
	if rules.Melt != nil {
		for _, c := range rules.Melt.Columns {
			meltCols[c] = true
		}
	}

	table := &domain.CanonicalTable{Schema: rules.Schema, Rows: make([]domain.Row, 0, len(raw.Rows))}
	var issues []domain.RowIssue
	cells := make([]string, len(positions))

	for i := range raw.Rows {
		for j, p := range positions {
			cells[j] = raw.Cell(i, p)
		}

		get := func(name string) string {
			return cells[rules.Schema.Index(name)]
		}
		if !keep(get, rules.Allow, rules.Deny) {
			continue
		}

		row := make(domain.Row, len(cells))
		dropped := false
		for j, col := range rules.Schema.Columns {
			v, cerr := coerce(cells[j], col.Kind)
			if cerr == nil {
				row[j] = v
				continue
			}

			issue := domain.RowIssue{Row: i, Column: col.Name, Value: cells[j], Err: cerr}
			if rules.Strict {
				return nil, apperrors.NewParsingError(issue.String(), cerr).
					WithContext("source", raw.Source).
					WithContext("row", i).
					WithContext("column", col.Name)
			}
			issues = append(issues, issue)
			if meltCols[col.Name] {
				// only this cell is lost once the table is melted
				row[j] = nil
				continue
			}
			dropped = true
			break
		}
		if !dropped {
			table.Rows = append(table.Rows, row)
		}
	}

	if err := RelabelValues(table, rules.Relabel); err != nil {
		return nil, err
	}

	if rules.DropDuplicates {
		table = DropDuplicates(table)
	}

	if rules.Melt != nil {
		if table, err = Melt(table, *rules.Melt); err != nil {
			return nil, err
		}
	}

	result := &Result{Table: table, Issues: issues}

	if rules.Aggregate != nil {
		agg, err := Aggregate(table, *rules.Aggregate)
		if err != nil {
			return nil, err
		}
		result.Aggregates = agg.Len()
		result.Sentinel = rules.Aggregate.SentinelOrDefault()
		table.Rows = append(agg.Rows, table.Rows...)
	}

	if len(rules.SortBy) > 0 {
		SortBy(table, rules.SortBy...)
	}

	return result, nil
}

// Validate checks the rules and returns the schema of the normalized table
func (r CleaningRules) Validate() (domain.Schema, error) {
	if err := validation.Struct(r); err != nil {
		return domain.Schema{}, apperrors.NewAppValidationError(err.Error())
	}

	schema := r.Schema
	has := func(s domain.Schema, name string) bool { return s.Index(name) >= 0 }

	for _, p := range append(append([]Predicate(nil), r.Allow...), r.Deny...) {
		if !has(schema, p.Column) {
			return domain.Schema{}, apperrors.NewAppValidationError(
				fmt.Sprintf("filter column %q is not in the schema", p.Column))
		}
	}
	for col := range r.Relabel {
		if !has(schema, col) {
			return domain.Schema{}, apperrors.NewAppValidationError(
				fmt.Sprintf("relabel column %q is not in the schema", col))
		}
	}

	if r.Melt != nil {
		melted, err := meltSchema(schema, *r.Melt)
		if err != nil {
			return domain.Schema{}, err
		}
		schema = melted
	}

	if r.Aggregate != nil {
		if err := checkAggregate(schema, *r.Aggregate); err != nil {
			return domain.Schema{}, err
		}
	}

	for _, col := range r.SortBy {
		if !has(schema, col) {
			return domain.Schema{}, apperrors.NewAppValidationError(
				fmt.Sprintf("sort column %q is not in the schema", col))
		}
	}

	return schema, nil
}

// keep applies the allow list then the deny list to one row
func keep(get func(string) string, allow, deny []Predicate) bool {
	for _, p := range allow {
		if !p.Matches(get(p.Column)) {
			return false
		}
	}
	for _, p := range deny {
		if p.Matches(get(p.Column)) {
			return false
		}
	}
	return true
}

// coerce converts a raw cell into the Go type of its column kind
func coerce(s string, kind domain.ColumnKind) (any, error) {
	switch kind {
	case domain.KindCategorical:
		return s, nil
	case domain.KindInteger:
		return parseInteger(s)
	case domain.KindMeasure:
		return parseMeasure(s)
	case domain.KindTemporal:
		return ParseYear(s)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown column kind %q", kind))
	}
}

func parseInteger(s string) (int64, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	// spreadsheets export whole numbers as 2010.0
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, apperrors.NewParsingError("not an integer", err).WithContext("value", s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, apperrors.NewParsingError("integer out of range", nil).WithContext("value", s)
	}
	return int64(f), nil
}

func parseMeasure(s string) (float64, error) {
	v := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if v == "" {
		return 0, apperrors.NewParsingError("missing value", nil)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperrors.NewParsingError("not a number", err).WithContext("value", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.NewParsingError("not a finite number", nil).WithContext("value", s)
	}
	return f, nil
}
