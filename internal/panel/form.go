package panel

import (
	"strings"

	"github.com/patitas-adopcion/apiserver/types"
)

// Field identifies one input of the listing form.
type Field int

const (
	FieldShelterCode Field = iota
	FieldName
	FieldSpecies
	FieldAge
	FieldSex
	FieldDescription
	FieldContactNumber
	FieldImageURL

	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Código de Refugio",
	"Nombre",
	"Especie",
	"Edad (ej. 2 años, 9 meses)",
	"Sexo",
	"Descripción",
	"Número de contacto",
	"Imagen (URL)",
}

func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldLabels[f]
}

// Options lists the accepted values of a select field, starting with the
// empty choice. Free text fields have none.
func (f Field) Options() []string {
	switch f {
	case FieldSpecies:
		return []string{"", string(types.SpeciesCanine), string(types.SpeciesFeline)}
	case FieldSex:
		return []string{"", string(types.SexFemale), string(types.SexMale)}
	default:
		return nil
	}
}

// Form holds the raw values typed into the panel. It is comparable so an
// edited form can be diffed against the record it was loaded from.
type Form struct {
	ShelterCode   string
	Name          string
	Species       string
	Age           string
	Sex           string
	Description   string
	ContactNumber string
	ImageURL      string
}

func FormFromListing(l types.Listing) Form {
	return Form{
		ShelterCode:   l.ShelterCode,
		Name:          l.Name,
		Species:       string(l.Species),
		Age:           l.Age,
		Sex:           string(l.Sex),
		Description:   l.Description,
		ContactNumber: l.ContactNumber,
		ImageURL:      l.ImageURLValue(),
	}
}

// Listing converts the form into the payload sent to the API. A blank image
// URL is sent as null.
func (f Form) Listing() types.Listing {
	listing := types.Listing{
		Name:          strings.TrimSpace(f.Name),
		Species:       types.Species(f.Species),
		Age:           strings.TrimSpace(f.Age),
		Sex:           types.Sex(f.Sex),
		Description:   f.Description,
		ContactNumber: strings.TrimSpace(f.ContactNumber),
		ShelterCode:   strings.TrimSpace(f.ShelterCode),
	}
	if url := strings.TrimSpace(f.ImageURL); url != "" {
		listing.ImageURL = &url
	}
	return listing
}

func (f Form) Get(field Field) string {
	switch field {
	case FieldShelterCode:
		return f.ShelterCode
	case FieldName:
		return f.Name
	case FieldSpecies:
		return f.Species
	case FieldAge:
		return f.Age
	case FieldSex:
		return f.Sex
	case FieldDescription:
		return f.Description
	case FieldContactNumber:
		return f.ContactNumber
	case FieldImageURL:
		return f.ImageURL
	default:
		return ""
	}
}

func (f *Form) Set(field Field, value string) {
	switch field {
	case FieldShelterCode:
		f.ShelterCode = value
	case FieldName:
		f.Name = value
	case FieldSpecies:
		f.Species = value
	case FieldAge:
		f.Age = value
	case FieldSex:
		f.Sex = value
	case FieldDescription:
		f.Description = value
	case FieldContactNumber:
		f.ContactNumber = value
	case FieldImageURL:
		f.ImageURL = value
	}
}

// cycleOption returns the option after (or before, when step is negative)
// current, wrapping around.
func cycleOption(options []string, current string, step int) string {
	if len(options) == 0 {
		return current
	}
	idx := 0
	for i, opt := range options {
		if opt == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(options)) % len(options)
	return options[idx]
}
