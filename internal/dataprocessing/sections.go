package dataprocessing

import (
	"fmt"
	"strings"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

// SectionRule describes a spreadsheet whose label column mixes category headings
// ("Management occupations:") with the rows that belong to them
type SectionRule struct {
	LabelColumn    string `validate:"required"`
	CategoryColumn string `validate:"required"`
	// Marker identifies a heading row; defaults to ":"
	Marker string
	// Trim is the set of characters stripped from both ends of labels; defaults to "."
	Trim string
}

// ExtractSections moves section headings into their own column. The category column is
// inserted right after the label column and forward-filled; heading rows are removed.
// Rows before the first heading get an empty category.
func ExtractSections(raw *domain.RawTable, rule SectionRule) (*domain.RawTable, error) {
	if rule.Marker == "" {
		rule.Marker = ":"
	}
	if rule.Trim == "" {
		rule.Trim = "."
	}

	label := raw.ColumnIndex(rule.LabelColumn)
	if label < 0 {
		return nil, apperrors.NewSchemaMismatch(rule.LabelColumn, raw.Source)
	}
	if raw.ColumnIndex(rule.CategoryColumn) >= 0 {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q already exists", rule.CategoryColumn))
	}

	out := &domain.RawTable{
		Source: raw.Source,
		Header: insertAt(raw.Header, label+1, rule.CategoryColumn),
		Rows:   make([][]string, 0, len(raw.Rows)),
	}

	category := ""
	for i := range raw.Rows {
		value := strings.TrimSpace(strings.Trim(raw.Cell(i, label), rule.Trim))
		if strings.Contains(value, rule.Marker) {
			category = strings.TrimSpace(strings.Trim(value, rule.Marker))
			continue
		}

		row := make([]string, len(raw.Header))
		copy(row, raw.Rows[i])
		row[label] = value
		out.Rows = append(out.Rows, insertAt(row, label+1, category))
	}

	return out, nil
}

func insertAt(s []string, pos int, v string) []string {
	out := make([]string, 0, len(s)+1)
	out = append(out, s[:pos]...)
	out = append(out, v)
	return append(out, s[pos:]...)
}
