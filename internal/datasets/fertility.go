package datasets

import (
	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/pkg/contracts/domain"
)

const participation = "Female_labor_force_participation_rate"

// FertilityParticipation links a bar chart of average participation per OECD country
// to a fertility boxplot and a participation/fertility scatter
func FertilityParticipation() Dataset {
	return Dataset{
		Name:   "fertility_participation",
		Source: "female_labor_participation_CLEAN.csv",
		Output: "fertility_part_dashboard.html",
		Rules: dataprocessing.CleaningRules{
			Schema: domain.Schema{
				Entity: "Country",
				Columns: []domain.Column{
					{Name: "Country", Kind: domain.KindCategorical},
					{Name: "Year", Kind: domain.KindTemporal},
					{Name: participation, Kind: domain.KindMeasure},
					{Name: "Fertility_rate", Kind: domain.KindMeasure},
				},
			},
			Allow:     []dataprocessing.Predicate{{Column: "Country", Values: OECDMembers()}},
			Relabel:   map[string]map[string]string{"Country": {"United States Virgin Islands": "Virgin Islands"}},
			Precision: config.DefaultPrecision,
		},
		Compose: composeFertility,
	}
}

func composeFertility(_ *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout) {
	sel := &binder.SelectionState{Name: "country_pick", Encodings: []string{"y"}}

	bar := binder.ViewSpec{
		Name:  "participation_by_country",
		Title: "Average Female Labor Force Participation From 1960-2020",
		Mark:  binder.MarkBar,
		Role:  binder.RoleAnchor,
		Encoding: binder.Encoding{
			X: &binder.Channel{Field: participation, Aggregate: "mean", Title: "Average Female Labor Force Participation Rate (%)"},
			Y: &binder.Channel{Field: "Country", Type: binder.Nominal, Title: "Country", Sort: "-x"},
			Tooltip: []binder.Channel{
				{Field: participation, Aggregate: "mean", Title: "Avg Labor Force Participation", Format: ".2f"},
				{Field: "Country"},
			},
		},
		Highlight:   &binder.Highlight{Selected: "#4DAF4A", Unselected: "grey"},
		Width:       300,
		Height:      760,
		Interactive: true,
	}

	scatter := binder.ViewSpec{
		Name:  "participation_vs_fertility",
		Title: "Female Labor Force Participation And Fertility Rate From 1960-2020",
		Mark:  binder.MarkPoint,
		Role:  binder.RoleReader,
		Encoding: binder.Encoding{
			X:     &binder.Channel{Field: participation, Title: "Female Labor Force Participation Rate (%)"},
			Y:     &binder.Channel{Field: "Fertility_rate", Title: "Fertility Rate (%)"},
			Size:  &binder.Channel{Field: "Year"},
			Color: &binder.Channel{Field: "Year", Format: "%Y", Scale: &binder.Scale{Range: []string{"#4DAF4A", "#013220"}}},
			Tooltip: []binder.Channel{
				{Field: "Year", Format: "%Y"},
				{Field: "Fertility_rate", Title: "Fertility Rate", Format: ".2f"},
				{Field: participation, Title: "Labor Force Participation", Format: ".2f"},
				{Field: "Country"},
			},
		},
		Width:       850,
		Height:      300,
		Interactive: true,
	}

	box := binder.ViewSpec{
		Name:     "fertility_distribution",
		Title:    "Fertility Rate Distribution By Country From 1960-2020",
		Mark:     binder.MarkBoxplot,
		MarkOpts: map[string]any{"size": 20},
		Role:     binder.RoleReader,
		Encoding: binder.Encoding{
			X:     &binder.Channel{Field: "Country", Type: binder.Nominal, Title: "Country"},
			Y:     &binder.Channel{Field: "Fertility_rate", Title: "Fertility Rate (%)", Scale: &binder.Scale{Zero: boolPtr(false)}},
			Color: &binder.Channel{Field: "Country", NoLegend: true, Scale: &binder.Scale{Range: []string{"#4DAF4A"}}},
		},
		Width:  850,
		Height: 300,
	}

	return binder.Context{
		Selection: sel,
		Footnote: "Source: OWID (https://ourworldindata.org/grapher/fertility-and-female-labor-force-participation) | " +
			"Data File: female_labor_participation_CLEAN.csv",
		Config:    style(render, 20),
	}, binder.HConcat(binder.Single(bar), binder.VConcat(binder.Single(box), binder.Single(scatter)))
}
