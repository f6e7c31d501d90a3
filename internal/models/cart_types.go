package models

import "time"

// CartItem is one product in a user's cart ('users/{uid}/cart/{productId}').
// Price, Name, ImageURL and ArtisanID are display snapshots taken when the
// item was added; the product document stays the source of truth for stock.
type CartItem struct {
	ProductID string    `json:"productId" firestore:"productId"`
	Quantity  int       `json:"quantity" firestore:"quantity"`
	Price     int64     `json:"price" firestore:"price"`
	Name      string    `json:"name" firestore:"name"`
	ImageURL  string    `json:"imageUrl" firestore:"imageUrl"`
	ArtisanID string    `json:"artisanId" firestore:"artisanId"`
	AddedAt   time.Time `json:"addedAt" firestore:"addedAt"`
}

// LineTotal is price * quantity in minor units.
func (ci CartItem) LineTotal() int64 {
	return ci.Price * int64(ci.Quantity)
}

// CartTotal sums the line totals of items.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}
