package models

import "time"

type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultCategories are seeded at startup when missing.
var DefaultCategories = []string{
	"Despensa",
	"Salud",
	"Diversión",
	"Alimentos",
	"Educación",
	"Transporte",
	"Servicios",
}
