package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

const cartColumns = `product_id, quantity, price, name, image_url, artisan_id, added_at`

func scanCartItem(row rowScanner) (*models.CartItem, error) {
	var item models.CartItem
	err := row.Scan(&item.ProductID, &item.Quantity, &item.Price, &item.Name,
		&item.ImageURL, &item.ArtisanID, &item.AddedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CartItems returns the user's cart, oldest item first.
func (s *Store) CartItems(ctx context.Context, uid string) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+cartColumns+" FROM cart_items WHERE user_id = ? ORDER BY added_at ASC", uid)
	if err != nil {
		return nil, fmt.Errorf("list cart of %s: %w", uid, err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetCartItem reads one cart line.
func (s *Store) GetCartItem(ctx context.Context, uid, productID string) (*models.CartItem, error) {
	item, err := scanCartItem(s.db.QueryRowContext(ctx,
		"SELECT "+cartColumns+" FROM cart_items WHERE user_id = ? AND product_id = ?", uid, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cart item %s/%s: %w", uid, productID, err)
	}
	return item, nil
}

// SetCartItem creates or overwrites a cart line.
func (s *Store) SetCartItem(ctx context.Context, uid string, item *models.CartItem) error {
	query := `INSERT INTO cart_items (user_id, ` + cartColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			quantity = VALUES(quantity), price = VALUES(price), name = VALUES(name),
			image_url = VALUES(image_url), artisan_id = VALUES(artisan_id), added_at = VALUES(added_at)`
	_, err := s.db.ExecContext(ctx, query, uid, item.ProductID, item.Quantity, item.Price,
		item.Name, item.ImageURL, item.ArtisanID, item.AddedAt)
	if err != nil {
		return fmt.Errorf("save cart item %s/%s: %w", uid, item.ProductID, err)
	}
	return nil
}

// DeleteCartItem removes a cart line. Removing a missing line is not an error.
func (s *Store) DeleteCartItem(ctx context.Context, uid, productID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ? AND product_id = ?", uid, productID)
	if err != nil {
		return fmt.Errorf("delete cart item %s/%s: %w", uid, productID, err)
	}
	return nil
}

// ClearCart deletes the listed cart lines in one statement.
func (s *Store) ClearCart(ctx context.Context, uid string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(productIDs)), ", ")
	args := make([]any, 0, len(productIDs)+1)
	args = append(args, uid)
	for _, id := range productIDs {
		args = append(args, id)
	}
	query := "DELETE FROM cart_items WHERE user_id = ? AND product_id IN (" + placeholders + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear cart of %s: %w", uid, err)
	}
	return nil
}
