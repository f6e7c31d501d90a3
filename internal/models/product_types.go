package models

import "time"

// Product is the canonical catalog entry stored in the 'products' collection.
// Price is in minor currency units (paise).
type Product struct {
	ID          string   `json:"id" firestore:"-"`
	ArtisanID   string   `json:"artisanId" firestore:"artisanId"`
	Name        string   `json:"name" firestore:"name"`
	Description string   `json:"description" firestore:"description"`
	ImageURL    string   `json:"imageUrl" firestore:"imageUrl"`
	Price       int64    `json:"price" firestore:"price"`
	Stock       int      `json:"stock" firestore:"stock"`
	Category    string   `json:"category" firestore:"category"`
	Region      string   `json:"region" firestore:"region"`
	Materials   []string `json:"materials" firestore:"materials"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// HasStock reports whether quantity units can be taken from the product.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
