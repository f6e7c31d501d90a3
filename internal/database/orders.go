package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

const orderColumns = `o.id, o.user_id, o.items, o.items_by_artisan, o.shipping_info, o.total,
	o.status, o.created_at, o.updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var items, byArtisan, shipping []byte
	err := row.Scan(&o.ID, &o.UserID, &items, &byArtisan, &shipping, &o.Total,
		&o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(byArtisan, &o.ItemsByArtisan); err != nil {
		return nil, fmt.Errorf("decode itemsByArtisan of order %s: %w", o.ID, err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingInfo); err != nil {
		return nil, fmt.Errorf("decode shippingInfo of order %s: %w", o.ID, err)
	}
	return &o, nil
}

// loadArtisanIDs fills o.ArtisanIDs from the order_artisans index.
func loadArtisanIDs(ctx context.Context, q queryer, o *models.Order) error {
	rows, err := q.QueryContext(ctx,
		"SELECT artisan_id FROM order_artisans WHERE order_id = ? ORDER BY position", o.ID)
	if err != nil {
		return fmt.Errorf("load artisans of order %s: %w", o.ID, err)
	}
	defer rows.Close()

	o.ArtisanIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		o.ArtisanIDs = append(o.ArtisanIDs, id)
	}
	return rows.Err()
}

func getOrder(ctx context.Context, q queryer, id string, lock bool) (*models.Order, error) {
	query := forUpdate("SELECT "+orderColumns+" FROM orders o WHERE o.id = ?", lock)
	o, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if err := loadArtisanIDs(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func upsertOrder(ctx context.Context, q queryer, o *models.Order) error {
	// 1. --- Encode the document parts ---
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	byArtisan, err := json.Marshal(o.ItemsByArtisan)
	if err != nil {
		return fmt.Errorf("encode order itemsByArtisan: %w", err)
	}
	shipping, err := json.Marshal(o.ShippingInfo)
	if err != nil {
		return fmt.Errorf("encode order shippingInfo: %w", err)
	}

	// 2. --- Upsert the order row ---
	query := `INSERT INTO orders (id, user_id, items, items_by_artisan, shipping_info, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			items = VALUES(items), items_by_artisan = VALUES(items_by_artisan),
			shipping_info = VALUES(shipping_info), total = VALUES(total),
			status = VALUES(status), updated_at = VALUES(updated_at)`
	_, err = q.ExecContext(ctx, query, o.ID, o.UserID, items, byArtisan, shipping, o.Total,
		o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}

	// 3. --- Rebuild the artisan index ---
	if _, err := q.ExecContext(ctx, "DELETE FROM order_artisans WHERE order_id = ?", o.ID); err != nil {
		return fmt.Errorf("reset artisans of order %s: %w", o.ID, err)
	}
	for i, artisanID := range o.ArtisanIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO order_artisans (order_id, artisan_id, position) VALUES (?, ?, ?)", o.ID, artisanID, i)
		if err != nil {
			return fmt.Errorf("index artisan %s of order %s: %w", artisanID, o.ID, err)
		}
	}
	return nil
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range orders {
		if err := loadArtisanIDs(ctx, s.db, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetOrder reads one order.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return getOrder(ctx, s.db, id, false)
}

// OrdersByUser returns the buyer's orders, newest first.
func (s *Store) OrdersByUser(ctx context.Context, uid string) ([]models.Order, error) {
	return s.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = ? ORDER BY o.created_at DESC", uid)
}

// OrdersByArtisan returns orders containing items of artisanID, newest first.
func (s *Store) OrdersByArtisan(ctx context.Context, artisanID string) ([]models.Order, error) {
	return s.queryOrders(ctx, "SELECT "+orderColumns+` FROM orders o
		JOIN order_artisans oa ON oa.order_id = o.id
		WHERE oa.artisan_id = ? ORDER BY o.created_at DESC`, artisanID)
}
