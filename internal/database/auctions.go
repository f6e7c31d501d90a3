package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

const auctionColumns = `id, artisan_id, title, description, image_url, reserve_price,
	current_highest_bid, current_highest_bidder_id, bid_count, end_time, status,
	winning_bid_amount, winning_bidder_id, closed_at, created_at, updated_at`

func scanAuctionPiece(row rowScanner) (*models.AuctionPiece, error) {
	var a models.AuctionPiece
	var highest, winning sql.NullInt64
	var bidder, winner sql.NullString
	var endTime, closedAt sql.NullTime

	err := row.Scan(&a.ID, &a.ArtisanID, &a.Title, &a.Description, &a.ImageURL, &a.ReservePrice,
		&highest, &bidder, &a.BidCount, &endTime, &a.Status,
		&winning, &winner, &closedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if highest.Valid {
		a.CurrentHighestBid = &highest.Int64
	}
	if bidder.Valid {
		a.CurrentHighestBidderID = &bidder.String
	}
	if winning.Valid {
		a.WinningBidAmount = &winning.Int64
	}
	if winner.Valid {
		a.WinningBidderID = &winner.String
	}
	if endTime.Valid {
		a.EndTime = endTime.Time
	}
	if closedAt.Valid {
		a.ClosedAt = &closedAt.Time
	}
	return &a, nil
}

// auctionArgs binds a piece to auctionColumns. Pieces awaiting valuation
// have no end time yet and store NULL.
func auctionArgs(a *models.AuctionPiece) []any {
	endTime := sql.NullTime{Time: a.EndTime, Valid: !a.EndTime.IsZero()}
	return []any{a.ID, a.ArtisanID, a.Title, a.Description, a.ImageURL, a.ReservePrice,
		a.CurrentHighestBid, a.CurrentHighestBidderID, a.BidCount, endTime, a.Status,
		a.WinningBidAmount, a.WinningBidderID, a.ClosedAt, a.CreatedAt, a.UpdatedAt}
}

const auctionPlaceholders = "?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?"

func getAuctionPiece(ctx context.Context, q queryer, id string, lock bool) (*models.AuctionPiece, error) {
	query := forUpdate("SELECT "+auctionColumns+" FROM auction_pieces WHERE id = ?", lock)
	a, err := scanAuctionPiece(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get auction piece %s: %w", id, err)
	}
	return a, nil
}

func upsertAuctionPiece(ctx context.Context, q queryer, a *models.AuctionPiece) error {
	query := `INSERT INTO auction_pieces (` + auctionColumns + `) VALUES (` + auctionPlaceholders + `)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title), description = VALUES(description), image_url = VALUES(image_url),
			reserve_price = VALUES(reserve_price), current_highest_bid = VALUES(current_highest_bid),
			current_highest_bidder_id = VALUES(current_highest_bidder_id), bid_count = VALUES(bid_count),
			end_time = VALUES(end_time), status = VALUES(status),
			winning_bid_amount = VALUES(winning_bid_amount), winning_bidder_id = VALUES(winning_bidder_id),
			closed_at = VALUES(closed_at), updated_at = VALUES(updated_at)`
	if _, err := q.ExecContext(ctx, query, auctionArgs(a)...); err != nil {
		return fmt.Errorf("save auction piece %s: %w", a.ID, err)
	}
	return nil
}

// GetAuctionPiece reads one auction piece.
func (s *Store) GetAuctionPiece(ctx context.Context, id string) (*models.AuctionPiece, error) {
	return getAuctionPiece(ctx, s.db, id, false)
}

// ListAuctionPieces returns pieces in status (all when empty), soonest
// ending first.
func (s *Store) ListAuctionPieces(ctx context.Context, status models.AuctionStatus) ([]models.AuctionPiece, error) {
	query := "SELECT " + auctionColumns + " FROM auction_pieces"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY end_time ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auction pieces: %w", err)
	}
	defer rows.Close()

	pieces := []models.AuctionPiece{}
	for rows.Next() {
		a, err := scanAuctionPiece(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction piece: %w", err)
		}
		pieces = append(pieces, *a)
	}
	return pieces, rows.Err()
}

// CreateAuctionPiece inserts a new piece.
func (s *Store) CreateAuctionPiece(ctx context.Context, a *models.AuctionPiece) error {
	query := `INSERT INTO auction_pieces (` + auctionColumns + `) VALUES (` + auctionPlaceholders + `)`
	if _, err := s.db.ExecContext(ctx, query, auctionArgs(a)...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("auction piece %s already exists: %w", a.ID, err)
		}
		return fmt.Errorf("create auction piece %s: %w", a.ID, err)
	}
	return nil
}
