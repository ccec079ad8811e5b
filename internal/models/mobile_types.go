package models

import "time"

// Specifications holds the spec-sheet fields of a mobile. Stored as
// individual columns but serialized as a nested object, matching the
// API contract.
type Specifications struct {
	RAM       string `json:"ram,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Camera    string `json:"camera,omitempty"`
	Battery   string `json:"battery,omitempty"`
	Display   string `json:"display,omitempty"`
	Processor string `json:"processor,omitempty"`
}

// Mobile is the model for the 'mobiles' table.
type Mobile struct {
	ID             int64          `json:"id" db:"id"`
	Brand          string         `json:"brand" db:"brand"`
	Model          string         `json:"model" db:"model"`
	Slug           string         `json:"slug,omitempty" db:"slug"`
	Price          float64        `json:"price" db:"price"`
	Stock          int            `json:"stock" db:"stock"`
	Specifications Specifications `json:"specifications"`
	ImageURL       string         `json:"imageUrl,omitempty" db:"image_url"`
	Description    string         `json:"description,omitempty" db:"description"`
	IsAvailable    bool           `json:"isAvailable" db:"is_available"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
