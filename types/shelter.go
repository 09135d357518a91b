package types

// Shelter is an institution that publishes listings.
type Shelter struct {
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}
