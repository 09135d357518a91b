package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidAge(t *testing.T) {
	tests := []struct {
		age  string
		want bool
	}{
		{"2 años", true},
		{"9 meses", true},
		{"1 año", true},
		{"1 mes", false},
		{"1 mese", true},
		{"15 días", true},
		{"3 AÑOS", true},
		{"4", true},
		{"12meses", true},
		{"two years", false},
		{"", false},
		{"años", false},
		{"2 years", false},
		{"-1 años", false},
		{" 2 años", false},
	}

	for _, tt := range tests {
		t.Run(tt.age, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidAge(tt.age))
		})
	}
}

func TestListingMissingFields(t *testing.T) {
	complete := Listing{
		Name:          "Luna",
		Species:       SpeciesFeline,
		Age:           "2 años",
		Sex:           SexFemale,
		ContactNumber: "3511234567",
		ShelterCode:   "REF01",
	}
	assert.Empty(t, complete.MissingFields())

	partial := Listing{Name: "  ", Species: SpeciesCanine, Age: "1 año"}
	assert.Equal(t, []string{"name", "sex", "contact_number", "shelter_code"}, partial.MissingFields())
}

func TestSpeciesAndSexValid(t *testing.T) {
	assert.True(t, SpeciesCanine.Valid())
	assert.True(t, SpeciesFeline.Valid())
	assert.False(t, Species("dog").Valid())
	assert.True(t, SexMale.Valid())
	assert.False(t, Sex("unknown").Valid())
}
