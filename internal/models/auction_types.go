package models

import "time"

// AuctionStatus is the lifecycle state of an auction piece.
type AuctionStatus string

const (
	AuctionPendingValuation AuctionStatus = "pending_valuation"
	AuctionAppraised        AuctionStatus = "appraised"
	AuctionLive             AuctionStatus = "live"
	AuctionSold             AuctionStatus = "sold"
	AuctionUnsold           AuctionStatus = "unsold"
)

// Valid reports whether s is a known status.
func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionPendingValuation, AuctionAppraised, AuctionLive, AuctionSold, AuctionUnsold:
		return true
	}
	return false
}

// AcceptsBids reports whether bids may be placed in status s.
func (s AuctionStatus) AcceptsBids() bool {
	return s == AuctionAppraised || s == AuctionLive
}

// AuctionPiece is one item under bidding in the 'auctionPieces' collection.
// All amounts are in minor currency units.
type AuctionPiece struct {
	ID          string `json:"id" firestore:"-"`
	ArtisanID   string `json:"artisanId" firestore:"artisanId"`
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description" firestore:"description"`
	ImageURL    string `json:"imageUrl" firestore:"imageUrl"`

	ReservePrice           int64   `json:"reservePrice" firestore:"reservePrice"`
	CurrentHighestBid      *int64  `json:"currentHighestBid" firestore:"currentHighestBid"`
	CurrentHighestBidderID *string `json:"currentHighestBidderId" firestore:"currentHighestBidderId"`
	BidCount               int     `json:"bidCount" firestore:"bidCount"`

	EndTime time.Time     `json:"endTime" firestore:"endTime"`
	Status  AuctionStatus `json:"status" firestore:"status"`

	WinningBidAmount *int64     `json:"winningBidAmount,omitempty" firestore:"winningBidAmount"`
	WinningBidderID  *string    `json:"winningBidderId,omitempty" firestore:"winningBidderId"`
	ClosedAt         *time.Time `json:"closedAt,omitempty" firestore:"closedAt"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// MinimumBid is the smallest amount the next bid must reach: the reserve
// price when nobody has bid yet, otherwise one unit above the highest bid.
func (a *AuctionPiece) MinimumBid() int64 {
	if a.CurrentHighestBid == nil {
		return a.ReservePrice
	}
	return *a.CurrentHighestBid + 1
}

// EndedAt reports whether the bidding window is closed at now.
func (a *AuctionPiece) EndedAt(now time.Time) bool {
	return !now.Before(a.EndTime)
}
