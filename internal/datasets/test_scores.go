package datasets

import (
	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/pkg/contracts/domain"
)

// TestScores is the PISA line chart with a country dropdown. The OECD average is added
// as the ALL pseudo-country and selected initially.
func TestScores() Dataset {
	return Dataset{
		Name:   "test_scores",
		Source: "OECD_Test_Scores_Clean.csv",
		Output: "test_scores_altair.html",
		Rules: dataprocessing.CleaningRules{
			Schema: domain.Schema{
				Entity: "Country_Code",
				Columns: []domain.Column{
					{Name: "Country_Code", Source: "country_code", Kind: domain.KindCategorical},
					{Name: "Gender", Source: "gender", Kind: domain.KindCategorical},
					{Name: "Subject", Source: "subject", Kind: domain.KindCategorical},
					{Name: "Year", Source: "year", Kind: domain.KindTemporal},
					{Name: "Test_Score", Source: "test_score", Kind: domain.KindMeasure},
				},
			},
			// countries with one or few data points
			Deny: []dataprocessing.Predicate{{
				Column: "Country_Code",
				Values: []string{"PER", "COL", "MAC", "TWN", "HKG", "SGP", "CRI", "LTU", "IDN"},
			}},
			Relabel: map[string]map[string]string{
				"Subject": {"read": "Reading", "math": "Math", "science": "Science"},
				"Gender":  {"boy": "Boy", "girl": "Girl", "tot": "Total"},
			},
			Aggregate: &dataprocessing.AggregateRule{Measures: []string{"Test_Score"}, Sentinel: config.DefaultSentinel},
			SortBy:    []string{"Country_Code"},
			Precision: config.DefaultPrecision,
		},
		Compose: composeTestScores,
	}
}

func composeTestScores(t *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout) {
	sel := &binder.SelectionState{
		Name:     "country",
		Fields:   []string{"Country_Code"},
		Bindings: []binder.Binding{{Field: "Country_Code", Kind: binder.BindSelect, Label: " Country: "}},
		Init:     map[string]any{"Country_Code": config.DefaultSentinel},
	}

	lines := binder.ViewSpec{
		Name:     "scores",
		Mark:     binder.MarkLine,
		MarkOpts: map[string]any{"point": map[string]any{"filled": false, "fill": "white"}},
		Role:     binder.RoleReader,
		Encoding: binder.Encoding{
			X:     &binder.Channel{Field: "Year", Title: "Year"},
			Y:     &binder.Channel{Field: "Test_Score", Title: "Test Score", Scale: &binder.Scale{Zero: boolPtr(false)}},
			Row:   &binder.Channel{Field: "Subject", Type: binder.Ordinal},
			Color: &binder.Channel{Field: "Gender", Title: "Gender", Scale: &binder.Scale{Range: []string{"#4682B4", "#FF69B4", "#4DAF4A"}}},
			Tooltip: []binder.Channel{
				{Field: "Year", Type: binder.Temporal, Format: "%Y"},
				{Field: "Subject"},
				{Field: "Gender"},
				{Field: "Test_Score"},
				{Field: "Country_Code"},
			},
		},
		Width:           780,
		Height:          200,
		Interactive:     true,
		IndependentAxes: []string{"y"},
	}

	return binder.Context{
		Selection: sel,
		Title:     "Average PISA Test Scores By Subject And Gender From 2000-2018 (Every Three Years)",
		Footnote: "Source: OECD (https://data.oecd.org/pisa/reading-performance-pisa.htm#indicator-chart) | " +
			"Data File: OECD_Test_Scores_Clean.csv",
		Config:    style(render, 22),
	}, binder.Single(lines)
}
