package datasets

import (
	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/pkg/contracts/domain"
)

// professionalFields are the wide columns of the OECD entrants table, in dropdown order
var professionalFields = []string{
	"Agriculture, forestry, fisheries and veterinary",
	"Engineering, manufacturing and construction",
	"Health and welfare",
	"Information and Communication Technologies (ICTs)",
	"Natural sciences, mathematics and statistics",
	"Arts and humanities",
	"Business, administration and law",
	"Education",
	"Generic programmes and qualifications",
	"Services",
	"Social sciences, journalism and information",
}

// LaborEntrance maps the gap between men and women entering each professional field,
// with a field dropdown and a year slider driving one selection
func LaborEntrance() Dataset {
	columns := []domain.Column{
		{Name: "COUNTRY", Kind: domain.KindCategorical},
		{Name: "Country", Kind: domain.KindCategorical},
		{Name: "Year", Kind: domain.KindInteger},
	}
	for _, f := range professionalFields {
		columns = append(columns, domain.Column{Name: f, Kind: domain.KindMeasure})
	}

	return Dataset{
		Name:   "labor_entrance",
		Source: "OECD_LaborForce_Data.csv",
		Output: "OECD_Novel_Viz.html",
		Rules: dataprocessing.CleaningRules{
			Schema: domain.Schema{Entity: "COUNTRY", Columns: columns},
			// annual measurements only
			Deny: []dataprocessing.Predicate{{Column: "Year", Values: []string{"2005"}, Exact: true}},
			Melt: &dataprocessing.MeltRule{
				Columns:   append([]string(nil), professionalFields...),
				KeyName:   "Field",
				ValueName: "Difference",
			},
			SortBy:    []string{"Year"},
			Precision: 3,
		},
		Compose: composeLaborEntrance,
	}
}

func composeLaborEntrance(t *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout) {
	options := make([]any, len(professionalFields))
	for i, f := range professionalFields {
		options[i] = f
	}

	init := map[string]any{"Field": professionalFields[0]}
	if years := t.DistinctValues("Year"); len(years) > 0 {
		// rows are sorted by year
		init["Year"] = years[0]
	}

	sel := &binder.SelectionState{
		Name:   "field_year",
		Fields: []string{"Field", "Year"},
		Bindings: []binder.Binding{
			{Field: "Field", Kind: binder.BindSelect, Label: "Field: ", Options: options},
			{Field: "Year", Kind: binder.BindRange, Label: "Year: ", Step: 1},
		},
		Init: init,
	}

	choropleth := binder.ViewSpec{
		Name: "entrants_map",
		Mark: binder.MarkGeoshape,
		Role: binder.RoleReader,
		Geo:  &binder.Geo{URL: render.GeoJSONURL, Key: render.GeoKey, Field: "COUNTRY"},
		Encoding: binder.Encoding{
			Color: &binder.Channel{
				Field: "Difference",
				Title: "% Men Minus % Women Entering",
				Scale: &binder.Scale{
					Range:  []string{"#FF69B4", "#f49cc8", "#d9d2e9", "#8cbae0", "#4682B4"},
					Domain: []float64{-45, 45},
					Mid:    floatPtr(0),
				},
			},
			Tooltip: []binder.Channel{
				{Field: "Country", Title: "Country"},
				{Field: "Difference", Title: "Difference", Format: ".3f"},
				{Field: "Field"},
				{Field: "Year"},
			},
		},
		Width:  900,
		Height: 500,
	}

	return binder.Context{
		Selection: sel,
		Title:     "Difference in Share of Men and Women Entering Different Professional Fields",
		Footnote:  "*Data Source: OECD Statistics 2018 (https://stats.oecd.org/Index.aspx?QueryId=109881)*",
		Config:    style(render, 23),
	}, binder.Single(choropleth)
}
