// Package notify carries marketplace events to the notifier process.
// Handlers publish after a successful operation; the transactional core
// never does.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names a notification event.
type EventType string

const (
	EventOrderCreated  EventType = "order.created"
	EventBidPlaced     EventType = "bid.placed"
	EventAuctionClosed EventType = "auction.closed"
)

// Event is the envelope put on the queue.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderCreated is the payload of order.created.
type OrderCreated struct {
	OrderID    string   `json:"orderId"`
	UserID     string   `json:"userId"`
	Email      string   `json:"email,omitempty"`
	Total      int64    `json:"total"`
	ItemCount  int      `json:"itemCount"`
	ArtisanIDs []string `json:"artisanIds"`
}

// BidPlaced is the payload of bid.placed.
type BidPlaced struct {
	AuctionPieceID string `json:"auctionPieceId"`
	Title          string `json:"title"`
	BidderID       string `json:"bidderId"`
	BidderEmail    string `json:"bidderEmail,omitempty"`
	Amount         int64  `json:"amount"`
}

// AuctionClosed is the payload of auction.closed.
type AuctionClosed struct {
	AuctionPieceID  string `json:"auctionPieceId"`
	Title           string `json:"title"`
	ArtisanID       string `json:"artisanId"`
	Status          string `json:"status"`
	WinningBidderID string `json:"winningBidderId,omitempty"`
	WinningBid      int64  `json:"winningBid,omitempty"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(t EventType, payload any, now time.Time) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: now.UTC(), Payload: body}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
