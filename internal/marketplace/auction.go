package marketplace

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// BidResult describes an accepted bid.
type BidResult struct {
	Piece *models.AuctionPiece
	// PreviousBidderID is the bidder who just lost the highest position,
	// nil for the first bid.
	PreviousBidderID *string
	PreviousBid      *int64
}

// PlaceBid records bidAmount (minor units) by bidderID as the new highest
// bid on a piece. The comparison against the current highest bid and the
// write happen in one transaction, so two equal concurrent bids cannot both
// win: the loser re-runs against the committed bid and is rejected.
func (s *Service) PlaceBid(ctx context.Context, pieceID, bidderID string, bidAmount int64) (res *BidResult, err error) {
	const op = "marketplace.PlaceBid"

	ctx, span := s.startSpan(ctx, op,
		attribute.String("auction.id", pieceID),
		attribute.Int64("bid.amount", bidAmount))
	defer func() { endSpan(span, err) }()

	if bidderID == "" {
		return nil, apperrors.Unauthenticated(op, "sign in to bid")
	}
	if pieceID == "" {
		return nil, apperrors.InvalidArgument(op, "auctionPieceId is required")
	}
	if bidAmount <= 0 {
		return nil, apperrors.InvalidArgument(op, "bidAmount must be positive")
	}

	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		piece, err := tx.GetAuctionPiece(pieceID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound(op, "auction piece not found")
		}
		if err != nil {
			return err
		}

		if piece.ArtisanID == bidderID {
			return apperrors.FailedPrecondition(op, "artisans cannot bid on their own pieces")
		}
		if !piece.Status.AcceptsBids() {
			return apperrors.FailedPrecondition(op, "auction is not open for bidding (status %s)", piece.Status).
				WithDetail("status", piece.Status)
		}
		if piece.EndedAt(s.now()) {
			return apperrors.FailedPrecondition(op, "auction has ended").
				WithDetail("endTime", piece.EndTime)
		}

		if bidAmount < piece.MinimumBid() {
			if piece.CurrentHighestBid == nil {
				return apperrors.OutOfRange(op, "bid must be at least the reserve price").
					WithDetail("minimumBid", piece.MinimumBid())
			}
			return apperrors.OutOfRange(op, "bid must exceed the current highest bid").
				WithDetail("minimumBid", piece.MinimumBid()).
				WithDetail("currentHighestBid", *piece.CurrentHighestBid)
		}

		res = &BidResult{
			PreviousBidderID: piece.CurrentHighestBidderID,
			PreviousBid:      piece.CurrentHighestBid,
		}
		amount, bidder := bidAmount, bidderID
		piece.CurrentHighestBid = &amount
		piece.CurrentHighestBidderID = &bidder
		piece.BidCount++
		piece.UpdatedAt = s.now()
		res.Piece = piece
		return tx.SetAuctionPiece(piece)
	})
	if err != nil {
		return nil, classify(op, err, "")
	}

	fields := []zap.Field{
		zap.String("auctionPieceId", pieceID),
		zap.String("bidderId", bidderID),
		zap.Int64("amount", bidAmount),
	}
	if res.PreviousBidderID != nil {
		fields = append(fields, zap.String("outbidBidderId", *res.PreviousBidderID))
	}
	s.log.Info("bid accepted", fields...)
	return res, nil
}

// AuctionSubmission is an artisan's request to put a piece up for auction.
type AuctionSubmission struct {
	Title       string
	Description string
	ImageURL    string
}

// SubmitAuctionPiece creates a piece awaiting valuation.
func (s *Service) SubmitAuctionPiece(ctx context.Context, artisanID string, in AuctionSubmission) (*models.AuctionPiece, error) {
	const op = "marketplace.SubmitAuctionPiece"

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.InvalidArgument(op, "title is required")
	}

	now := s.now()
	piece := &models.AuctionPiece{
		ID:          s.newID(),
		ArtisanID:   artisanID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		Status:      models.AuctionPendingValuation,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateAuctionPiece(ctx, piece); err != nil {
		return nil, apperrors.Internal(op, err)
	}
	return piece, nil
}

// AppraiseAuctionPiece sets the reserve price and end time of a piece that
// is awaiting valuation and opens it for bidding.
func (s *Service) AppraiseAuctionPiece(ctx context.Context, pieceID string, reservePrice int64, endTime time.Time, goLive bool) (*models.AuctionPiece, error) {
	const op = "marketplace.AppraiseAuctionPiece"

	if reservePrice <= 0 {
		return nil, apperrors.InvalidArgument(op, "reservePrice must be positive")
	}
	if !endTime.After(s.now()) {
		return nil, apperrors.InvalidArgument(op, "endTime must be in the future")
	}

	var piece *models.AuctionPiece
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		piece, err = tx.GetAuctionPiece(pieceID)
		if err != nil {
			return err
		}
		if piece.Status != models.AuctionPendingValuation {
			return apperrors.FailedPrecondition(op, "piece has already been appraised (status %s)", piece.Status)
		}

		piece.ReservePrice = reservePrice
		piece.EndTime = endTime
		piece.Status = models.AuctionAppraised
		if goLive {
			piece.Status = models.AuctionLive
		}
		piece.UpdatedAt = s.now()
		return tx.SetAuctionPiece(piece)
	})
	if err != nil {
		return nil, classify(op, err, "auction piece not found")
	}
	return piece, nil
}

// CloseAuction settles a piece whose bidding window is over. It becomes
// sold when the highest bid reaches the reserve price and unsold otherwise;
// the winning fields are frozen either way.
func (s *Service) CloseAuction(ctx context.Context, pieceID string) (piece *models.AuctionPiece, err error) {
	const op = "marketplace.CloseAuction"

	ctx, span := s.startSpan(ctx, op, attribute.String("auction.id", pieceID))
	defer func() { endSpan(span, err) }()

	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		piece, err = tx.GetAuctionPiece(pieceID)
		if err != nil {
			return err
		}
		if !piece.Status.AcceptsBids() {
			return apperrors.FailedPrecondition(op, "auction is not open (status %s)", piece.Status)
		}
		now := s.now()
		if !piece.EndedAt(now) {
			return apperrors.FailedPrecondition(op, "auction is still running").
				WithDetail("endTime", piece.EndTime)
		}

		if piece.CurrentHighestBid != nil && *piece.CurrentHighestBid >= piece.ReservePrice {
			piece.Status = models.AuctionSold
			piece.WinningBidAmount = piece.CurrentHighestBid
			piece.WinningBidderID = piece.CurrentHighestBidderID
		} else {
			piece.Status = models.AuctionUnsold
			piece.WinningBidAmount = nil
			piece.WinningBidderID = nil
		}
		piece.ClosedAt = &now
		piece.UpdatedAt = now
		return tx.SetAuctionPiece(piece)
	})
	if err != nil {
		return nil, classify(op, err, "auction piece not found")
	}

	s.log.Info("auction closed",
		zap.String("auctionPieceId", pieceID),
		zap.String("status", string(piece.Status)))
	return piece, nil
}

// CloseExpiredAuctions closes every open piece whose end time has passed.
// Pieces closed concurrently by someone else are skipped.
func (s *Service) CloseExpiredAuctions(ctx context.Context) ([]models.AuctionPiece, error) {
	const op = "marketplace.CloseExpiredAuctions"

	var closed []models.AuctionPiece
	now := s.now()
	for _, status := range []models.AuctionStatus{models.AuctionAppraised, models.AuctionLive} {
		pieces, err := s.store.ListAuctionPieces(ctx, status)
		if err != nil {
			return closed, apperrors.Internal(op, err)
		}
		for i := range pieces {
			if !pieces[i].EndedAt(now) {
				continue
			}
			piece, err := s.CloseAuction(ctx, pieces[i].ID)
			if apperrors.Is(err, apperrors.CodeFailedPrecondition) {
				continue
			}
			if err != nil {
				return closed, err
			}
			closed = append(closed, *piece)
		}
	}
	return closed, nil
}

// GetAuctionPiece returns one piece.
func (s *Service) GetAuctionPiece(ctx context.Context, pieceID string) (*models.AuctionPiece, error) {
	piece, err := s.store.GetAuctionPiece(ctx, pieceID)
	if err != nil {
		return nil, classify("marketplace.GetAuctionPiece", err, "auction piece not found")
	}
	return piece, nil
}

// ListAuctions returns pieces in the given status, or all of them.
func (s *Service) ListAuctions(ctx context.Context, status models.AuctionStatus) ([]models.AuctionPiece, error) {
	const op = "marketplace.ListAuctions"
	if status != "" && !status.Valid() {
		return nil, apperrors.InvalidArgument(op, "unknown status %q", status)
	}
	pieces, err := s.store.ListAuctionPieces(ctx, status)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}
	return pieces, nil
}
