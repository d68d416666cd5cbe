package models

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // en paise
	ImageURL    string    `json:"image_url"`
	CategoryID  string    `json:"category_id"`
	Available   bool      `json:"available"`
	IsSpecial   bool      `json:"is_special"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
