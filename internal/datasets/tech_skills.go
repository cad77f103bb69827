package datasets

import (
	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/pkg/contracts/domain"
)

// TechSkills is a butterfly chart of programming tools by gender. The male side uses a
// reversed axis instead of negated values.
func TechSkills() Dataset {
	return Dataset{
		Name:   "tech_skills",
		Source: "Kaggle_WomenInDataScience_viz.csv",
		Output: "kaggle_prog_skills.html",
		Rules: dataprocessing.CleaningRules{
			Schema: domain.Schema{
				Columns: []domain.Column{
					{Name: "programming_skill", Kind: domain.KindCategorical},
					{Name: "gender", Kind: domain.KindCategorical},
					{Name: "ratio", Kind: domain.KindMeasure},
				},
			},
			Deny:      []dataprocessing.Predicate{{Column: "programming_skill", Values: []string{"None", "Other"}, Exact: true}},
			SortBy:    []string{"ratio"},
			Precision: 4,
		},
		Compose: composeTechSkills,
	}
}

func skillBars(name, gender, color string, reverse bool) binder.ViewSpec {
	return binder.ViewSpec{
		Name:     name,
		Title:    gender + "s",
		Mark:     binder.MarkBar,
		Filters:  []binder.StaticFilter{{Field: "gender", Equal: gender}},
		Encoding: binder.Encoding{
			X: &binder.Channel{
				Field:  "ratio",
				Title:  "Percentage Of Respondents Using On A Regular Basis",
				Format: ".0%",
				Scale:  &binder.Scale{Reverse: reverse, Domain: []float64{0, 0.33}},
			},
			Y:     &binder.Channel{Field: "programming_skill", Type: binder.Nominal, Title: "Programming Tool", Sort: "-x"},
			Color: &binder.Channel{Value: color},
			Tooltip: []binder.Channel{
				{Field: "ratio", Title: gender + "s", Format: ".2%"},
				{Field: "programming_skill", Title: "Tool"},
			},
		},
		Width:  400,
		Height: 500,
	}
}

func composeTechSkills(_ *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout) {
	return binder.Context{
			Title:    "Data Analytics Technical Skills By Gender",
			Footnote: "Data File: Kaggle_WomenInDataScience_viz.csv",
			Config:   style(render, 25),
		}, binder.HConcat(
			binder.Single(skillBars("males", "Male", "#4682B4", true)),
			binder.Single(skillBars("females", "Female", "#FF69B4", false)),
		)
}
