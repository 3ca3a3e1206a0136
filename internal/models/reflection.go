package models

import "time"

// Reflection is a single community submission.
// ID and CreatedAt are assigned by the record store on insert and never change.
type Reflection struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email,omitempty"`
	Neighborhood string    `json:"neighborhood"`
	Reflection   string    `json:"reflection"`
	Title        *string   `json:"title"`
	PhotoURL     *string   `json:"photo_url"`
	Featured     bool      `json:"featured"`
}

// ReflectionFilter narrows a listing. Zero values mean "no filter";
// FeaturedOnly never implies featured=false.
type ReflectionFilter struct {
	Neighborhood string
	FeaturedOnly bool
}

// Public returns a copy safe for public listings (no contact email).
func (r Reflection) Public() Reflection {
	r.Email = ""
	return r
}
