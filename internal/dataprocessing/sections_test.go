package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "genderviz/internal/errors"
	"genderviz/pkg/contracts/domain"
)

func TestExtractSections(t *testing.T) {
	raw := &domain.RawTable{
		Source: "stem.xlsx",
		Header: []string{"occupation", "total_employed", "women_employed"},
		Rows: [][]string{
			{"Unlabelled row", "1", "0"},
			{"Management occupations:", "", ""},
			{"...Chief executives...", "1000", "250"},
			{"General managers", "900", "300"},
			{"Computer occupations:", "", ""},
			{"Software developers.", "1200", "240"},
		},
	}

	got, err := ExtractSections(raw, SectionRule{LabelColumn: "occupation", CategoryColumn: "occupation_category"})
	require.NoError(t, err)

	assert.Equal(t, []string{"occupation", "occupation_category", "total_employed", "women_employed"}, got.Header)
	assert.Equal(t, [][]string{
		{"Unlabelled row", "", "1", "0"},
		{"Chief executives", "Management occupations", "1000", "250"},
		{"General managers", "Management occupations", "900", "300"},
		{"Software developers", "Computer occupations", "1200", "240"},
	}, got.Rows)
	// the input is left intact
	assert.Equal(t, "...Chief executives...", raw.Rows[2][0])
}

func TestExtractSections_Errors(t *testing.T) {
	raw := &domain.RawTable{Header: []string{"occupation", "category"}}

	_, err := ExtractSections(raw, SectionRule{LabelColumn: "job", CategoryColumn: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))

	_, err = ExtractSections(raw, SectionRule{LabelColumn: "occupation", CategoryColumn: "category"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}
