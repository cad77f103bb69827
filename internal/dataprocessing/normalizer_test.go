package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

func yearRateSchema() domain.Schema {
	return domain.Schema{
		Entity: "Country",
		Columns: []domain.Column{
			{Name: "Country", Kind: domain.KindCategorical},
			{Name: "Year", Kind: domain.KindInteger},
			{Name: "Rate", Source: "rate_pct", Kind: domain.KindMeasure},
		},
	}
}

func TestNormalize_SchemaMismatch(t *testing.T) {
	raw := &domain.RawTable{
		Source: "female_labor.csv",
		Header: []string{"Country", "Year"},
		Rows:   [][]string{{"Canada", "2010"}},
	}

	_, err := Normalize(raw, CleaningRules{Schema: yearRateSchema()})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))
	assert.Contains(t, err.Error(), "rate_pct")
}

func TestNormalize_EmptyTable(t *testing.T) {
	tests := []struct {
		name string
		raw  *domain.RawTable
	}{
		{name: "nil", raw: nil},
		{name: "no header and no rows", raw: &domain.RawTable{Source: "empty.csv"}},
		{name: "header only", raw: &domain.RawTable{Source: "empty.csv", Header: []string{"Country", "Year", "rate_pct"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize(tt.raw, CleaningRules{
				Schema:    yearRateSchema(),
				Aggregate: &AggregateRule{Measures: []string{"Rate"}},
				SortBy:    []string{"Country"},
			})
			require.NoError(t, err)
			require.NotNil(t, res.Table)
			assert.Equal(t, 0, res.Table.Len())
			assert.Equal(t, []string{"Country", "Year", "Rate"}, res.Table.Schema.Names())
			assert.Empty(t, res.Issues)
			assert.Zero(t, res.Aggregates)
		})
	}
}

func TestNormalize_OECDAllowList(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"Canada", "2010", "61.5"},
			{"Brazil", "2010", "55.0"},
		},
	}

	res, err := Normalize(raw, CleaningRules{
		Schema: yearRateSchema(),
		Allow:  []Predicate{{Column: "Country", Values: []string{"Australia", "Canada", "Chile", "United States"}}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Table.Len())
	assert.Equal(t, []string{"Canada"}, res.Table.Distinct("Country"))
}

func TestNormalize_YearMeansWithSentinel(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"A", "2010", "10"},
			{"B", "2010", "20"},
			{"C", "2012", "30"},
		},
	}

	res, err := Normalize(raw, CleaningRules{
		Schema:    yearRateSchema(),
		Aggregate: &AggregateRule{Measures: []string{"Rate"}, Sentinel: "ALL"},
	})
	require.NoError(t, err)

	want := []domain.Row{
		{"ALL", int64(2010), 15.0},
		{"ALL", int64(2012), 30.0},
		{"A", int64(2010), 10.0},
		{"B", int64(2010), 20.0},
		{"C", int64(2012), 30.0},
	}
	assert.Equal(t, want, res.Table.Rows)
	assert.Equal(t, 2, res.Aggregates)
	assert.Equal(t, "ALL", res.Sentinel)
}

func TestNormalize_AggregationIdempotentOnDetail(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"country_code", "gender", "subject", "year", "test_score"},
		Rows: [][]string{
			{"CAN", "boy", "math", "2015", "520.1"},
			{"CAN", "girl", "math", "2015", "511.9"},
			{"FRA", "boy", "math", "2015", "500.3"},
			{"FRA", "girl", "math", "2015", "491.7"},
			{"CAN", "boy", "read", "2018", "511.0"},
			{"FRA", "boy", "read", "2018", "479.0"},
		},
	}
	rules := CleaningRules{
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
		Aggregate: &AggregateRule{Measures: []string{"Test_Score"}},
		SortBy:    []string{"Country_Code"},
	}

	first, err := Normalize(raw, rules)
	require.NoError(t, err)
	require.Equal(t, 3, first.Aggregates)

	detail := first.Detail()
	assert.Equal(t, 6, detail.Len())

	again, err := Aggregate(detail, *rules.Aggregate)
	require.NoError(t, err)

	var firstAgg []domain.Row
	for _, row := range first.Table.Rows {
		if row[0] == "ALL" {
			firstAgg = append(firstAgg, row)
		}
	}
	require.Len(t, again.Rows, len(firstAgg))
	for i := range firstAgg {
		assert.Equal(t, firstAgg[i][:4], again.Rows[i][:4])
		assert.InDelta(t, firstAgg[i][4].(float64), again.Rows[i][4].(float64), 1e-9)
	}
}

func TestNormalize_AllowBeforeDeny(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"Canada", "2010", "1"},
			{"United States", "2010", "2"},
			{"United States Virgin Islands", "2010", "3"},
			{"Brazil", "2010", "4"},
		},
	}

	res, err := Normalize(raw, CleaningRules{
		Schema: yearRateSchema(),
		Allow:  []Predicate{{Column: "Country", Values: []string{"Canada", "United States"}}},
		Deny:   []Predicate{{Column: "Country", Values: []string{"Canada"}, Exact: true}},
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Table.Len(), len(raw.Rows))
	assert.Equal(t, []string{"United States", "United States Virgin Islands"}, res.Table.Distinct("Country"))
}

func TestNormalize_RowIssues(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"Canada", "2010", "61.5"},
			{"Chile", "20x0", "40"},
			{"Japan", "2011", "n/a"},
			{"Korea", "2011", "NaN"},
			{"Mexico", "2012", " 1,234.5 "},
			{"Norway", "1e30", "1"},
			{"Poland", "9.3e18", "1"},
			{"Spain", "-1e19", "1"},
			{"Turkey", "2013.0", "2"},
		},
	}

	res, err := Normalize(raw, CleaningRules{Schema: yearRateSchema()})
	require.NoError(t, err)

	require.Equal(t, 3, res.Table.Len())
	assert.Equal(t, 1234.5, res.Table.Float(1, "Rate"))
	assert.Equal(t, int64(2013), res.Table.Rows[2][1])

	require.Len(t, res.Issues, 6)
	assert.Equal(t, 1, res.Issues[0].Row)
	assert.Equal(t, "Year", res.Issues[0].Column)
	assert.Equal(t, "20x0", res.Issues[0].Value)
	assert.True(t, apperrors.IsType(res.Issues[0].Err, apperrors.ErrTypeParsing))
	assert.Equal(t, "Rate", res.Issues[1].Column)
	assert.Equal(t, 3, res.Issues[2].Row)

	// whole numbers beyond int64 are dropped, never wrapped
	for i, value := range []string{"1e30", "9.3e18", "-1e19"} {
		issue := res.Issues[3+i]
		assert.Equal(t, 5+i, issue.Row)
		assert.Equal(t, "Year", issue.Column)
		assert.Equal(t, value, issue.Value)
		assert.True(t, apperrors.IsType(issue.Err, apperrors.ErrTypeParsing))
	}
}

func TestNormalize_Strict(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows:   [][]string{{"Chile", "2010", "abc"}},
	}

	_, err := Normalize(raw, CleaningRules{Schema: yearRateSchema(), Strict: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestNormalize_FilteredRowsAreNotCoerced(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"Canada", "2010", "1"},
			{"Aggregate", "total", "n/a"},
		},
	}

	res, err := Normalize(raw, CleaningRules{
		Schema: yearRateSchema(),
		Deny:   []Predicate{{Column: "Country", Values: []string{"Aggregate"}, Exact: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Table.Len())
	assert.Empty(t, res.Issues)
}

func TestNormalize_RelabelAndTemporal(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows: [][]string{
			{"United States Virgin Islands", "1990", "60"},
			{"Canada", "1990", "58"},
		},
	}
	schema := yearRateSchema()
	schema.Columns[1].Kind = domain.KindTemporal

	res, err := Normalize(raw, CleaningRules{
		Schema:  schema,
		Relabel: map[string]map[string]string{"Country": {"United States Virgin Islands": "Virgin Islands"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Virgin Islands", res.Table.String(0, "Country"))
	assert.Equal(t, "Canada", res.Table.String(1, "Country"))
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), res.Table.Rows[0][1])
}

func TestNormalize_MeltKeepsPartialRows(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"COUNTRY", "Country", "Year", "Education", "Services"},
		Rows: [][]string{
			{"CAN", "Canada", "2010", "-20.5", "3.1"},
			{"FRA", "France", "2010", "", "4.0"},
			{"FRA", "France", "2005", "1", "1"},
		},
	}

	res, err := Normalize(raw, CleaningRules{
		Schema: domain.Schema{
			Entity: "COUNTRY",
			Columns: []domain.Column{
				{Name: "COUNTRY", Kind: domain.KindCategorical},
				{Name: "Country", Kind: domain.KindCategorical},
				{Name: "Year", Kind: domain.KindInteger},
				{Name: "Education", Kind: domain.KindMeasure},
				{Name: "Services", Kind: domain.KindMeasure},
			},
		},
		Deny: []Predicate{{Column: "Year", Values: []string{"2005"}, Exact: true}},
		Melt: &MeltRule{Columns: []string{"Education", "Services"}, KeyName: "Field", ValueName: "Difference"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"COUNTRY", "Country", "Year", "Field", "Difference"}, res.Table.Schema.Names())
	assert.Equal(t, []domain.Row{
		{"CAN", "Canada", int64(2010), "Education", -20.5},
		{"CAN", "Canada", int64(2010), "Services", 3.1},
		{"FRA", "France", int64(2010), "Services", 4.0},
	}, res.Table.Rows)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "Education", res.Issues[0].Column)
}

func TestNormalize_SentinelCollision(t *testing.T) {
	raw := &domain.RawTable{
		Header: []string{"Country", "Year", "rate_pct"},
		Rows:   [][]string{{"ALL", "2010", "1"}},
	}

	_, err := Normalize(raw, CleaningRules{
		Schema:    yearRateSchema(),
		Aggregate: &AggregateRule{Measures: []string{"Rate"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestCleaningRules_Validate(t *testing.T) {
	tests := []struct {
		name  string
		rules CleaningRules
	}{
		{name: "empty schema", rules: CleaningRules{}},
		{name: "bad kind", rules: CleaningRules{Schema: domain.Schema{Columns: []domain.Column{{Name: "a", Kind: "text"}}}}},
		{name: "unknown filter column", rules: CleaningRules{
			Schema: yearRateSchema(),
			Deny:   []Predicate{{Column: "Region", Values: []string{"x"}}},
		}},
		{name: "predicate without values", rules: CleaningRules{
			Schema: yearRateSchema(),
			Deny:   []Predicate{{Column: "Country"}},
		}},
		{name: "aggregate over categorical", rules: CleaningRules{
			Schema:    yearRateSchema(),
			Aggregate: &AggregateRule{Measures: []string{"Year"}},
		}},
		{name: "melt categorical", rules: CleaningRules{
			Schema: yearRateSchema(),
			Melt:   &MeltRule{Columns: []string{"Country"}, KeyName: "k", ValueName: "v"},
		}},
		{name: "unknown sort column", rules: CleaningRules{Schema: yearRateSchema(), SortBy: []string{"Region"}}},
		{name: "negative precision", rules: CleaningRules{Schema: yearRateSchema(), Precision: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rules.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}
