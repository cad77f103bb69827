package binder

import (
	"fmt"

	apperrors "genderviz/internal/errors"
	"genderviz/internal/validation"
	"genderviz/pkg/contracts/domain"
)

// BindingKind is the input widget a selection field is bound to
type BindingKind string

const (
	BindSelect BindingKind = "select"
	BindRange  BindingKind = "range"
)

// Binding attaches one selection field to an input widget
type Binding struct {
	Field string      `validate:"required"`
	Kind  BindingKind `validate:"required,oneof=select range"`
	// Label is shown next to the widget
	Label string
	// Options lists the dropdown values; nil means the distinct values of Field
	Options []any
	// Min, Max and Step configure a slider; Min == Max means the range of Field
	Min, Max, Step float64
}

// SelectionState is the single shared selection of a dashboard
type SelectionState struct {
	Name string `validate:"required"`
	// Fields the selection projects over
	Fields []string
	// Encodings the selection projects over, e.g. "y" for a click on a bar
	Encodings []string
	Bindings  []Binding `validate:"dive"`
	// Init is the value before any interaction; nil means nothing is selected and
	// readers show the whole table
	Init map[string]any
}

// WidgetBound reports whether the selection is driven by input widgets instead of clicks
func (s *SelectionState) WidgetBound() bool {
	return len(s.Bindings) > 0
}

func (s *SelectionState) validate(schema domain.Schema) error {
	if len(s.Fields) == 0 && len(s.Encodings) == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("selection %q projects over nothing", s.Name))
	}
	for _, f := range s.Fields {
		if schema.Index(f) < 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf("selection field %q is not in the table", f))
		}
	}

	fields := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		fields[f] = true
	}
	for _, b := range s.Bindings {
		if !fields[b.Field] {
			return apperrors.NewAppValidationError(fmt.Sprintf("binding field %q is not a selection field", b.Field))
		}
	}
	for f := range s.Init {
		if !fields[f] {
			return apperrors.NewAppValidationError(fmt.Sprintf("initial value for %q is not a selection field", f))
		}
	}
	return nil
}

// param renders the selection as a Vega-Lite parameter
func (s *SelectionState) param(t *domain.CanonicalTable) map[string]any {
	sel := map[string]any{"type": "point"}
	if len(s.Fields) > 0 {
		sel["fields"] = s.Fields
	}
	if len(s.Encodings) > 0 {
		sel["encodings"] = s.Encodings
	}
	p := map[string]any{"name": s.Name, "select": sel}

	if len(s.Bindings) > 0 {
		bind := make(map[string]any, len(s.Bindings))
		for _, b := range s.Bindings {
			bind[b.Field] = b.input(t)
		}
		p["bind"] = bind
	}

	if len(s.Init) > 0 {
		p["value"] = []map[string]any{jsonCells(s.Init)}
	}
	return p
}

func (b Binding) input(t *domain.CanonicalTable) map[string]any {
	in := map[string]any{"input": string(b.Kind)}
	if b.Label != "" {
		in["name"] = b.Label
	}

	switch b.Kind {
	case BindSelect:
		options := b.Options
		if options == nil {
			options = t.DistinctValues(b.Field)
		}
		values := make([]any, len(options))
		for i, o := range options {
			values[i] = jsonCell(o)
		}
		in["options"] = values
	case BindRange:
		lo, hi := b.Min, b.Max
		if lo == hi {
			lo, hi = numericRange(t, b.Field)
		}
		step := b.Step
		if step == 0 {
			step = 1
		}
		in["min"], in["max"], in["step"] = lo, hi, step
	}
	return in
}

// numericRange returns the bounds of an integer or measure column; 0, 0 when empty
func numericRange(t *domain.CanonicalTable, col string) (float64, float64) {
	idx := t.Schema.Index(col)
	first := true
	var lo, hi float64
	for _, row := range t.Rows {
		var v float64
		switch x := row[idx].(type) {
		case int64:
			v = float64(x)
		case float64:
			v = x
		default:
			continue
		}
		if first || v < lo {
			lo = v
		}
		if first || v > hi {
			hi = v
		}
		first = false
	}
	return lo, hi
}

func validateStruct(s *SelectionState) error {
	if err := validation.Struct(s); err != nil {
		return apperrors.NewAppValidationError(err.Error())
	}
	return nil
}
