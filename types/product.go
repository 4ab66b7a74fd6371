package types

import "time"

// ProductImage references the stored image object and the path it is
// served from.
type ProductImage struct {
	URL string `json:"url"`
	Key string `json:"-"`
}

// Product represents a catalog item.
type Product struct {
	ID          int          `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Price       float64      `json:"price" db:"price"`
	Stock       int          `json:"stock" db:"stock"`
	Category    string       `json:"category" db:"category"`
	Image       ProductImage `json:"image"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}
