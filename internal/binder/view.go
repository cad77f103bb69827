package binder

import (
	"fmt"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

// Mark is the graphical primitive of a view
type Mark string

const (
	MarkBar      Mark = "bar"
	MarkPoint    Mark = "point"
	MarkLine     Mark = "line"
	MarkBoxplot  Mark = "boxplot"
	MarkArea     Mark = "area"
	MarkGeoshape Mark = "geoshape"
)

func (m Mark) valid() bool {
	switch m {
	case MarkBar, MarkPoint, MarkLine, MarkBoxplot, MarkArea, MarkGeoshape:
		return true
	}
	return false
}

// Role is the part a view plays in the shared selection
type Role string

const (
	RoleNone   Role = ""
	RoleAnchor Role = "anchor"
	RoleReader Role = "reader"
)

// FieldType is the Vega-Lite measurement type of an encoded field
type FieldType string

const (
	Nominal      FieldType = "nominal"
	Ordinal      FieldType = "ordinal"
	Quantitative FieldType = "quantitative"
	Temporal     FieldType = "temporal"
)

// Scale overrides the default scale of a channel
type Scale struct {
	Range   []string
	Domain  []float64
	Zero    *bool
	Reverse bool
	// Mid centers a diverging color scale
	Mid *float64
}

// Channel encodes one field, or a constant Value, on a visual channel
type Channel struct {
	Field     string
	Type      FieldType
	Aggregate string
	Title     string
	// Format is a d3 format for axes, legends and tooltips
	Format   string
	TimeUnit string
	// Sort is "ascending", "descending" or an encoding such as "-x"
	Sort     string
	Scale    *Scale
	NoLegend bool
	Value    any
}

// Encoding maps table fields to visual channels
type Encoding struct {
	X, Y, Color, Size, Row *Channel
	Tooltip                []Channel
}

// StaticFilter keeps rows whose Field equals Equal
type StaticFilter struct {
	Field string
	Equal any
}

// Highlight colors the anchor marks depending on the selection
type Highlight struct {
	Selected   string
	Unselected string
}

// Geo joins the table to GeoJSON features for choropleth views
type Geo struct {
	URL string
	// Key is the feature property matched against Field, e.g. properties.ISO_A3
	Key   string
	Field string
}

// ViewSpec describes one chart of a dashboard
type ViewSpec struct {
	Name     string
	Title    string
	Mark     Mark
	MarkOpts map[string]any
	Encoding Encoding
	Width    int
	Height   int
	Role     Role
	Filters  []StaticFilter
	// Interactive enables pan and zoom on the view's scales
	Interactive bool
	Highlight   *Highlight
	Geo         *Geo
	// IndependentAxes lists the positional channels ("x", "y") each facet draws its own axis for
	IndependentAxes []string
}

func (v ViewSpec) validate(schema domain.Schema) error {
	if v.Name == "" {
		return apperrors.NewAppValidationError("view without a name")
	}
	if !v.Mark.valid() {
		return apperrors.NewAppValidationError(fmt.Sprintf("view %q: unknown mark %q", v.Name, v.Mark))
	}
	if v.Mark == MarkGeoshape && v.Geo == nil {
		return apperrors.NewAppValidationError(fmt.Sprintf("view %q: geoshape needs a geo lookup", v.Name))
	}
	if v.Geo != nil && (v.Geo.URL == "" || v.Geo.Key == "") {
		return apperrors.NewAppValidationError(fmt.Sprintf("view %q: geo lookup needs a url and a key", v.Name))
	}
	for _, axis := range v.IndependentAxes {
		if axis != "x" && axis != "y" {
			return apperrors.NewAppValidationError(fmt.Sprintf("view %q: %q is not a positional axis", v.Name, axis))
		}
	}

	fields := []string{}
	for _, ch := range v.channels() {
		if ch.Field != "" {
			fields = append(fields, ch.Field)
		}
	}
	for _, f := range v.Filters {
		fields = append(fields, f.Field)
	}
	if v.Geo != nil {
		fields = append(fields, v.Geo.Field)
	}
	for _, f := range fields {
		if schema.Index(f) < 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf("view %q: field %q is not in the table", v.Name, f))
		}
	}
	return nil
}

func (v ViewSpec) channels() []*Channel {
	chs := []*Channel{}
	for _, ch := range []*Channel{v.Encoding.X, v.Encoding.Y, v.Encoding.Color, v.Encoding.Size, v.Encoding.Row} {
		if ch != nil {
			chs = append(chs, ch)
		}
	}
	for i := range v.Encoding.Tooltip {
		chs = append(chs, &v.Encoding.Tooltip[i])
	}
	return chs
}

// unit renders the view as a Vega-Lite unit specification. sel is nil unless the
// view hosts the selection.
func (v ViewSpec) unit(schema domain.Schema, sel *SelectionState, param map[string]any, filtered bool) map[string]any {
	mark := map[string]any{"type": string(v.Mark)}
	for k, val := range v.MarkOpts {
		mark[k] = val
	}

	enc := map[string]any{}
	channels := map[string]*Channel{
		"x": v.Encoding.X, "y": v.Encoding.Y, "color": v.Encoding.Color,
		"size": v.Encoding.Size, "row": v.Encoding.Row,
	}
	for name, ch := range channels {
		if ch != nil {
			enc[name] = ch.render(name, schema)
		}
	}
	if len(v.Encoding.Tooltip) > 0 {
		tips := make([]any, len(v.Encoding.Tooltip))
		for i := range v.Encoding.Tooltip {
			tips[i] = v.Encoding.Tooltip[i].render("tooltip", schema)
		}
		enc["tooltip"] = tips
	}
	if v.Highlight != nil && sel != nil {
		enc["color"] = map[string]any{
			"condition": map[string]any{"param": sel.Name, "value": v.Highlight.Selected, "empty": true},
			"value":     v.Highlight.Unselected,
		}
	}

	var transforms []any
	for _, f := range v.Filters {
		transforms = append(transforms, map[string]any{
			"filter": map[string]any{"field": f.Field, "equal": jsonCell(f.Equal)},
		})
	}
	if filtered {
		transforms = append(transforms, map[string]any{
			"filter": map[string]any{"param": param["name"], "empty": true},
		})
	}

	var params []any
	if sel != nil {
		params = append(params, param)
	}
	if v.Interactive && v.Mark != MarkGeoshape {
		params = append(params, map[string]any{
			"name":   v.Name + "_zoom",
			"select": "interval",
			"bind":   "scales",
		})
	}

	unit := map[string]any{
		"name": v.Name,
		"data": map[string]any{"name": datasetName},
		"mark": mark,
	}
	if v.Title != "" {
		unit["title"] = v.Title
	}
	if v.Width > 0 {
		unit["width"] = v.Width
	}
	if v.Height > 0 {
		unit["height"] = v.Height
	}

	if v.Geo != nil {
		transforms = append(transforms, map[string]any{
			"lookup": v.Geo.Field,
			"from": map[string]any{
				"data": geoData(v.Geo.URL),
				"key":  v.Geo.Key,
			},
			"as": "geo",
		})
		enc["shape"] = map[string]any{"field": "geo", "type": "geojson"}
	}

	if len(transforms) > 0 {
		unit["transform"] = transforms
	}
	if len(params) > 0 {
		unit["params"] = params
	}
	unit["encoding"] = enc
	if len(v.IndependentAxes) > 0 {
		axes := make(map[string]any, len(v.IndependentAxes))
		for _, axis := range v.IndependentAxes {
			axes[axis] = "independent"
		}
		unit["resolve"] = map[string]any{"axis": axes}
	}

	if v.Geo == nil {
		return unit
	}

	// choropleths draw every country in white underneath the joined data
	base := map[string]any{
		"data": geoData(v.Geo.URL),
		"mark": map[string]any{"type": "geoshape", "fill": "white", "stroke": "#bbbbbb", "strokeWidth": 0.5},
	}
	layered := map[string]any{
		"name":       v.Name,
		"projection": map[string]any{"type": "equalEarth"},
		"layer":      []any{base, unit},
	}
	delete(unit, "name")
	for _, k := range []string{"title", "width", "height"} {
		if val, ok := unit[k]; ok {
			layered[k] = val
			delete(unit, k)
		}
	}
	return layered
}

func geoData(url string) map[string]any {
	return map[string]any{
		"url":    url,
		"format": map[string]any{"type": "json", "property": "features"},
	}
}

// render produces the Vega-Lite channel definition
func (c *Channel) render(channel string, schema domain.Schema) map[string]any {
	if c.Field == "" {
		return map[string]any{"value": c.Value}
	}

	def := map[string]any{"field": c.Field, "type": string(c.fieldType(schema))}
	if c.Aggregate != "" {
		def["aggregate"] = c.Aggregate
	}
	if c.TimeUnit != "" {
		def["timeUnit"] = c.TimeUnit
	}
	if c.Title != "" {
		def["title"] = c.Title
	} else if channel == "row" {
		def["title"] = nil
	}
	if c.Sort != "" {
		def["sort"] = c.Sort
	}

	if c.Format != "" {
		switch channel {
		case "tooltip":
			def["format"] = c.Format
		case "color", "size":
			def["legend"] = map[string]any{"format": c.Format}
		default:
			def["axis"] = map[string]any{"format": c.Format}
		}
	}
	if c.NoLegend {
		def["legend"] = nil
	}
	if channel == "row" {
		def["header"] = map[string]any{
			"labelAngle":      0,
			"labelOrient":     "top",
			"labelBaseline":   "top",
			"labelFontWeight": "bold",
			"labelFontSize":   13,
		}
	}

	if c.Scale != nil {
		scale := map[string]any{}
		if len(c.Scale.Range) > 0 {
			scale["range"] = c.Scale.Range
		}
		if len(c.Scale.Domain) > 0 {
			scale["domain"] = c.Scale.Domain
		}
		if c.Scale.Zero != nil {
			scale["zero"] = *c.Scale.Zero
		}
		if c.Scale.Reverse {
			scale["reverse"] = true
		}
		if c.Scale.Mid != nil {
			scale["domainMid"] = *c.Scale.Mid
		}
		def["scale"] = scale
	}
	return def
}

// fieldType infers the measurement type from the column kind unless set explicitly
func (c *Channel) fieldType(schema domain.Schema) FieldType {
	if c.Type != "" {
		return c.Type
	}
	if c.Aggregate != "" {
		return Quantitative
	}
	idx := schema.Index(c.Field)
	if idx < 0 {
		return Nominal
	}
	switch schema.Columns[idx].Kind {
	case domain.KindMeasure:
		return Quantitative
	case domain.KindTemporal:
		return Temporal
	case domain.KindInteger:
		return Ordinal
	default:
		return Nominal
	}
}
