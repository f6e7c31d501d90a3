package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/artisansloom-golang/internal/marketplace"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/notify"
)

//
// --- Auction Handlers ---
//

// PlaceBidInput is the data of placeBid. BidAmount is in minor units.
type PlaceBidInput struct {
	AuctionPieceID string `json:"auctionPieceId" binding:"required"`
	BidAmount      int64  `json:"bidAmount"`
}

// PlaceBid handles placeBid.
func (h *Handlers) PlaceBid(c *gin.Context) {
	const op = "placeBid"

	// 1. Who is asking
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	// 2. Parse input
	input, ok := bind[PlaceBidInput](h, c, op)
	if !ok {
		return
	}

	// 3. Run the bid transaction
	res, err := h.Market.PlaceBid(c.Request.Context(), input.AuctionPieceID, caller.UID, input.BidAmount)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 4. Notify
	event := notify.BidPlaced{
		AuctionPieceID: res.Piece.ID,
		Title:          res.Piece.Title,
		BidderID:       caller.UID,
		BidderEmail:    caller.Email,
		Amount:         input.BidAmount,
	}
	h.publish(c.Request.Context(), notify.EventBidPlaced, event)

	h.ok(c, gin.H{"success": true})
}

// SubmitAuctionPieceInput is the data of submitAuctionPiece.
type SubmitAuctionPieceInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// SubmitAuctionPiece handles submitAuctionPiece (artisans).
func (h *Handlers) SubmitAuctionPiece(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	input, ok := bind[SubmitAuctionPieceInput](h, c, "submitAuctionPiece")
	if !ok {
		return
	}

	piece, err := h.Market.SubmitAuctionPiece(c.Request.Context(), caller.UID, marketplace.AuctionSubmission{
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"auctionPieceId": piece.ID, "auctionPiece": piece})
}

// AppraiseAuctionPieceInput is the data of appraiseAuctionPiece.
type AppraiseAuctionPieceInput struct {
	AuctionPieceID string    `json:"auctionPieceId" binding:"required"`
	ReservePrice   int64     `json:"reservePrice"`
	EndTime        time.Time `json:"endTime" binding:"required"`
	GoLive         bool      `json:"goLive"`
}

// AppraiseAuctionPiece handles appraiseAuctionPiece (admins).
func (h *Handlers) AppraiseAuctionPiece(c *gin.Context) {
	input, ok := bind[AppraiseAuctionPieceInput](h, c, "appraiseAuctionPiece")
	if !ok {
		return
	}

	piece, err := h.Market.AppraiseAuctionPiece(c.Request.Context(),
		input.AuctionPieceID, input.ReservePrice, input.EndTime, input.GoLive)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"auctionPiece": piece})
}

// AuctionPieceIDInput carries a single auction piece id.
type AuctionPieceIDInput struct {
	AuctionPieceID string `json:"auctionPieceId" binding:"required"`
}

// CloseAuction handles closeAuction (admins).
func (h *Handlers) CloseAuction(c *gin.Context) {
	input, ok := bind[AuctionPieceIDInput](h, c, "closeAuction")
	if !ok {
		return
	}

	piece, err := h.Market.CloseAuction(c.Request.Context(), input.AuctionPieceID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.publish(c.Request.Context(), notify.EventAuctionClosed, AuctionClosedEvent(piece))
	h.ok(c, gin.H{"auctionPiece": piece})
}

// AuctionClosedEvent builds the auction.closed payload for piece.
func AuctionClosedEvent(piece *models.AuctionPiece) notify.AuctionClosed {
	event := notify.AuctionClosed{
		AuctionPieceID: piece.ID,
		Title:          piece.Title,
		ArtisanID:      piece.ArtisanID,
		Status:         string(piece.Status),
	}
	if piece.WinningBidderID != nil {
		event.WinningBidderID = *piece.WinningBidderID
	}
	if piece.WinningBidAmount != nil {
		event.WinningBid = *piece.WinningBidAmount
	}
	return event
}

// GetAuctionPiece handles getAuctionPiece (public).
func (h *Handlers) GetAuctionPiece(c *gin.Context) {
	input, ok := bind[AuctionPieceIDInput](h, c, "getAuctionPiece")
	if !ok {
		return
	}
	piece, err := h.Market.GetAuctionPiece(c.Request.Context(), input.AuctionPieceID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"auctionPiece": piece})
}

// ListAuctionsInput is the data of listAuctions; an empty status lists all.
type ListAuctionsInput struct {
	Status models.AuctionStatus `json:"status"`
}

// ListAuctions handles listAuctions (public).
func (h *Handlers) ListAuctions(c *gin.Context) {
	input, ok := bind[ListAuctionsInput](h, c, "listAuctions")
	if !ok {
		return
	}
	pieces, err := h.Market.ListAuctions(c.Request.Context(), input.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, gin.H{"auctionPieces": pieces})
}
