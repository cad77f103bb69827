package binder

import (
	"encoding/json"
	"fmt"
	"time"

	"genderviz/internal/dataprocessing"
	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts"
	"genderviz/pkg/contracts/domain"
)

const (
	schemaURL      = "https://vega.github.io/schema/vega-lite/" + contracts.SpecSchema + ".json"
	datasetName    = "table"
	defaultDigits  = 2
	defaultFont    = "Open Sans"
	defaultPadding = 10
)

// StyleConfig holds the dashboard-wide typography
type StyleConfig struct {
	Font          string
	TitleFontSize int
	AxisFontSize  int
}

// Context is passed explicitly to Bind; it carries the only selection of the dashboard
type Context struct {
	Selection *SelectionState
	Title     string
	// Footnote is markdown shown under the dashboard (source and data file)
	Footnote string
	Config   StyleConfig
	// Precision is the number of decimals kept when data is embedded; nil means 2
	Precision *int
}

// ComposedSpec is a complete Vega-Lite document ready for export
type ComposedSpec struct {
	Spec     map[string]any
	Title    string
	Footnote string
}

// JSON serializes the document
func (c *ComposedSpec) JSON() ([]byte, error) {
	data, err := json.Marshal(c.Spec)
	if err != nil {
		return nil, apperrors.NewRenderError("failed to serialize chart", err)
	}
	return data, nil
}

// Bind composes the views of layout over table. The table is embedded once, rounded to
// ctx.Precision, and shared by every view.
func Bind(table *domain.CanonicalTable, ctx Context, layout Layout) (*ComposedSpec, error) {
	if table == nil {
		return nil, apperrors.NewAppValidationError("no table to bind")
	}

	views := layout.Views()
	host, err := validate(table.Schema, ctx.Selection, views)
	if err != nil {
		return nil, err
	}

	var param map[string]any
	if ctx.Selection != nil {
		param = ctx.Selection.param(table)
	}

	unit := func(v ViewSpec) map[string]any {
		var sel *SelectionState
		if v.Name == host {
			sel = ctx.Selection
		}
		filtered := ctx.Selection != nil && v.Role == RoleReader
		return v.unit(table.Schema, sel, param, filtered)
	}

	spec := layout.render(unit)
	spec["$schema"] = schemaURL
	spec["datasets"] = map[string]any{datasetName: records(table, ctx.Precision)}
	spec["padding"] = defaultPadding
	if ctx.Title != "" {
		spec["title"] = map[string]any{"text": ctx.Title, "anchor": "middle"}
	}
	spec["config"] = ctx.Config.render()

	return &ComposedSpec{Spec: spec, Title: ctx.Title, Footnote: ctx.Footnote}, nil
}

// validate checks the views against the table and the selection rules and returns the
// name of the view hosting the selection
func validate(schema domain.Schema, sel *SelectionState, views []ViewSpec) (string, error) {
	if len(views) == 0 {
		return "", apperrors.NewAppValidationError("layout has no views")
	}

	names := make(map[string]bool, len(views))
	var anchors, readers []string
	for _, v := range views {
		if err := v.validate(schema); err != nil {
			return "", err
		}
		if names[v.Name] {
			return "", apperrors.NewAppValidationError(fmt.Sprintf("duplicate view name %q", v.Name))
		}
		names[v.Name] = true

		switch v.Role {
		case RoleAnchor:
			anchors = append(anchors, v.Name)
		case RoleReader:
			readers = append(readers, v.Name)
		case RoleNone:
		default:
			return "", apperrors.NewAppValidationError(fmt.Sprintf("view %q: unknown role %q", v.Name, v.Role))
		}
		if v.Highlight != nil && v.Role != RoleAnchor {
			return "", apperrors.NewAppValidationError(fmt.Sprintf("view %q: only the anchor can highlight", v.Name))
		}
	}

	if sel == nil {
		if len(anchors)+len(readers) > 0 {
			return "", apperrors.NewAppValidationError("views take a selection role but no selection is defined")
		}
		return "", nil
	}

	if err := validateStruct(sel); err != nil {
		return "", err
	}
	if err := sel.validate(schema); err != nil {
		return "", err
	}

	if sel.WidgetBound() {
		if len(anchors) > 0 {
			return "", apperrors.NewAppValidationError("a widget-bound selection cannot have an anchor view")
		}
		if len(readers) == 0 {
			return "", apperrors.NewAppValidationError("a widget-bound selection needs at least one reader")
		}
		return readers[0], nil
	}

	if len(anchors) != 1 {
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("a click selection needs exactly one anchor view, found %d", len(anchors)))
	}
	return anchors[0], nil
}

func (c StyleConfig) render() map[string]any {
	font := c.Font
	if font == "" {
		font = defaultFont
	}
	titleSize := c.TitleFontSize
	if titleSize == 0 {
		titleSize = 20
	}
	axisSize := c.AxisFontSize
	if axisSize == 0 {
		axisSize = 12
	}
	return map[string]any{
		"font": font,
		"axis": map[string]any{
			"labelFont": font, "titleFont": font,
			"labelFontSize": axisSize, "titleFontSize": axisSize,
		},
		"legend": map[string]any{
			"labelFont": font, "titleFont": font,
			"labelFontSize": axisSize, "titleFontSize": axisSize,
		},
		"title": map[string]any{"font": font, "fontSize": titleSize},
		"view":  map[string]any{"stroke": nil},
	}
}

// records converts the rounded table into Vega-Lite inline values
func records(t *domain.CanonicalTable, precision *int) []map[string]any {
	digits := defaultDigits
	if precision != nil {
		digits = *precision
	}
	rounded := dataprocessing.RoundTable(t, digits)

	out := make([]map[string]any, 0, rounded.Len())
	for _, row := range rounded.Rows {
		rec := make(map[string]any, len(row))
		for i, col := range rounded.Schema.Columns {
			rec[col.Name] = jsonCell(row[i])
		}
		out = append(out, rec)
	}
	return out
}

func jsonCell(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02")
	}
	return v
}

func jsonCells(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonCell(v)
	}
	return out
}
