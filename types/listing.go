package types

import (
	"regexp"
	"strings"
)

// Species is the animal category of a listing.
type Species string

const (
	SpeciesCanine Species = "Canina"
	SpeciesFeline Species = "Felina"
)

// Valid reports whether s is one of the two accepted species.
func (s Species) Valid() bool {
	return s == SpeciesCanine || s == SpeciesFeline
}

// Sex of the listed animal.
type Sex string

const (
	SexFemale Sex = "Hembra"
	SexMale   Sex = "Macho"
)

// Valid reports whether s is one of the two accepted values.
func (s Sex) Valid() bool {
	return s == SexFemale || s == SexMale
}

// Listing represents an adoptable animal published by a shelter.
type Listing struct {
	// ID is assigned by the database on insert.
	ID int `json:"id" db:"id"`

	// Name is the animal's name.
	Name string `json:"name" db:"name"`

	// Species is either Canina or Felina.
	Species Species `json:"species" db:"species"`

	// Age is free text such as "2 años" or "9 meses".
	Age string `json:"age" db:"age"`

	// Sex is either Hembra or Macho.
	Sex Sex `json:"sex" db:"sex"`

	// Description is optional free text.
	Description string `json:"description" db:"description"`

	// ContactNumber is the phone number adopters should call.
	ContactNumber string `json:"contact_number" db:"contact_number"`

	// ShelterCode references the owning shelter. It is not enforced, so a
	// listing may point at a shelter that does not exist.
	ShelterCode string `json:"shelter_code" db:"shelter_code"`

	// ImageURL is the public URL of the animal's photo, if any.
	ImageURL *string `json:"image_url" db:"image_url"`

	// ShelterName is filled by the listing query's join and is nil when the
	// shelter code has no matching shelter. It is ignored on writes.
	ShelterName *string `json:"shelter_name,omitempty" db:"shelter_name"`
}

// RecentListing is the homepage preview projection of a listing.
type RecentListing struct {
	ID       int     `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	ImageURL *string `json:"image_url" db:"image_url"`
}

// MissingFields returns the JSON names of required fields that are blank.
// Description and image URL are optional.
func (l Listing) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"name", l.Name},
		{"species", string(l.Species)},
		{"age", l.Age},
		{"sex", string(l.Sex)},
		{"contact_number", l.ContactNumber},
		{"shelter_code", l.ShelterCode},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// ImageURLValue returns the image URL or "" when unset.
func (l Listing) ImageURLValue() string {
	if l.ImageURL == nil {
		return ""
	}
	return *l.ImageURL
}

var agePattern = regexp.MustCompile(`(?i)^(\d+)\s*(años?|meses?|días?)?$`)

// ValidAge reports whether age looks like "<number> años|meses|días".
// The unit is optional; "2 años", "9 meses" and "3" are accepted. The
// month unit must be written "meses" (or "mese"): "1 mes" is rejected.
func ValidAge(age string) bool {
	return agePattern.MatchString(age)
}
