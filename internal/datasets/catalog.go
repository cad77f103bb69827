// Package datasets holds the pipeline configuration of every dashboard.
package datasets

import (
	"sort"

	"genderviz/internal/binder"
	"genderviz/internal/config"
	"genderviz/internal/dataprocessing"
	"genderviz/pkg/contracts/domain"
)

// Composer builds the binder context and layout once the table is clean. It receives
// the table so selections can be initialised from the data.
type Composer func(t *domain.CanonicalTable, render config.RenderConfig) (binder.Context, binder.Layout)

// Dataset is one dashboard: where its data lives, how to clean it and how to draw it
type Dataset struct {
	Name    string
	Source  string
	Load    dataprocessing.LoadOptions
	Rules   dataprocessing.CleaningRules
	Output  string
	Compose Composer
}

// MungeJob converts a raw spreadsheet into a clean CSV without charting it
type MungeJob struct {
	Name     string
	Source   string
	Load     dataprocessing.LoadOptions
	Sections dataprocessing.SectionRule
	Output   string
}

// All returns every dashboard in a stable order
func All() []Dataset {
	return []Dataset{
		TestScores(),
		FertilityParticipation(),
		TechSkills(),
		LaborEntrance(),
	}
}

// ByName looks a dashboard up by name
func ByName(name string) (Dataset, bool) {
	for _, d := range All() {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

// Names lists the dashboard names alphabetically
func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

func style(render config.RenderConfig, titleSize int) binder.StyleConfig {
	return binder.StyleConfig{Font: render.Font, TitleFontSize: titleSize, AxisFontSize: 12}
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
