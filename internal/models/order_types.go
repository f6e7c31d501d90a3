package models

import "time"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
)

// orderStatusRank orders the statuses; fulfillment only moves forward.
var orderStatusRank = map[OrderStatus]int{
	OrderProcessing: 0,
	OrderShipped:    1,
	OrderDelivered:  2,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// CanAdvanceTo reports whether an order in status s may move to next.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	cur, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	n, ok := orderStatusRank[next]
	return ok && n == cur+1
}

// Order is a placed order in the 'orders' collection. It is created once by
// checkout and afterwards only its Status changes.
type Order struct {
	ID             string                `json:"id" firestore:"-"`
	UserID         string                `json:"userId" firestore:"userId"`
	Items          []CartItem            `json:"items" firestore:"items"`
	ItemsByArtisan map[string][]CartItem `json:"itemsByArtisan" firestore:"itemsByArtisan"`
	ArtisanIDs     []string              `json:"artisanIds" firestore:"artisanIds"`
	ShippingInfo   map[string]any        `json:"shippingInfo" firestore:"shippingInfo"`
	Total          int64                 `json:"total" firestore:"total"`
	Status         OrderStatus           `json:"status" firestore:"status"`
	CreatedAt      time.Time             `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt" firestore:"updatedAt"`
}

// HasArtisan reports whether artisanID sold at least one item in the order.
func (o *Order) HasArtisan(artisanID string) bool {
	for _, id := range o.ArtisanIDs {
		if id == artisanID {
			return true
		}
	}
	return false
}

// GroupByArtisan splits items per artisan and returns the artisan ids in
// first-seen order.
func GroupByArtisan(items []CartItem) (map[string][]CartItem, []string) {
	byArtisan := make(map[string][]CartItem)
	var ids []string
	for _, item := range items {
		if _, seen := byArtisan[item.ArtisanID]; !seen {
			ids = append(ids, item.ArtisanID)
		}
		byArtisan[item.ArtisanID] = append(byArtisan[item.ArtisanID], item)
	}
	return byArtisan, ids
}
