package soapnote

import (
	"testing"

	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/stretchr/testify/require"
)

func TestValidate_ParsedNotesPass(t *testing.T) {
	for _, text := range []string{
		"",
		"Subjective:\n",
		"Subjective:\n- Cough [0]\nObjective:\n- Temp 38.2 [1, 1]\nAssessment:\n- URI [0,1]\nPlan:\n- Fluids",
	} {
		require.NoError(t, Validate(Parse(text)), "text: %q", text)
	}
}

func TestValidate_RejectsBlankText(t *testing.T) {
	err := Validate(&models.SOAPNote{Sections: []models.SOAPSection{
		{Name: models.SectionPlan, Entries: []models.SOAPEntry{{Text: "  ", SourceIndices: []int{}}}},
	}})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Len(t, schemaErr.Problems, 1)
	require.Contains(t, schemaErr.Problems[0], "/sections/0/entries/0/text")
}

func TestValidate_RejectsUnknownSectionAndNegativeIndex(t *testing.T) {
	err := Validate(&models.SOAPNote{Sections: []models.SOAPSection{
		{Name: "History", Entries: []models.SOAPEntry{}},
		{Name: models.SectionPlan, Entries: []models.SOAPEntry{{Text: "x", SourceIndices: []int{-1}}}},
	}})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.ErrorContains(t, err, "/sections/0/name")
	require.ErrorContains(t, err, "/sections/1/entries/0/source_indices/0")
}

func TestValidate_RejectsNullArrays(t *testing.T) {
	err := Validate(&models.SOAPNote{})

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestValidateJSON_Malformed(t *testing.T) {
	err := ValidateJSON([]byte("{"))
	require.Error(t, err)

	var schemaErr *SchemaError
	require.NotErrorAs(t, err, &schemaErr)
}

func TestDecodeJSON(t *testing.T) {
	note, err := DecodeJSON([]byte(`{"sections":[{"name":"Plan","entries":[{"text":"Rest","source_indices":[2,2]}]}]}`))
	require.NoError(t, err)
	require.Equal(t, []models.SOAPSection{
		{Name: models.SectionPlan, Entries: []models.SOAPEntry{{Text: "Rest", SourceIndices: []int{2, 2}}}},
	}, note.Sections)
}

func TestDecodeJSON_RejectsInvalidNote(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"blank text", `{"sections":[{"name":"Plan","entries":[{"text":"  ","source_indices":[]}]}]}`, "/sections/0/entries/0/text"},
		{"fractional index", `{"sections":[{"name":"Plan","entries":[{"text":"a","source_indices":[1.5]}]}]}`, "/sections/0/entries/0/source_indices/0"},
		{"extra field", `{"sections":[],"status":"completed"}`, "status"},
		{"missing sections", `{}`, "sections"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := DecodeJSON([]byte(tt.raw))
			require.Nil(t, note)

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
