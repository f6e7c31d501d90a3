package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

const productColumns = `id, artisan_id, name, description, image_url, price, stock,
	category, region, materials, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var materials []byte
	err := row.Scan(&p.ID, &p.ArtisanID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Stock,
		&p.Category, &p.Region, &materials, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(materials, &p.Materials); err != nil {
		return nil, fmt.Errorf("decode materials of product %s: %w", p.ID, err)
	}
	return &p, nil
}

func getProduct(ctx context.Context, q queryer, id string, lock bool) (*models.Product, error) {
	query := forUpdate("SELECT "+productColumns+" FROM products WHERE id = ?", lock)
	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func productArgs(p *models.Product) ([]any, error) {
	materials := p.Materials
	if materials == nil {
		materials = []string{}
	}
	encoded, err := json.Marshal(materials)
	if err != nil {
		return nil, fmt.Errorf("encode materials: %w", err)
	}
	return []any{p.ID, p.ArtisanID, p.Name, p.Description, p.ImageURL, p.Price, p.Stock,
		p.Category, p.Region, encoded, p.CreatedAt, p.UpdatedAt}, nil
}

func upsertProduct(ctx context.Context, q queryer, p *models.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			artisan_id = VALUES(artisan_id), name = VALUES(name), description = VALUES(description),
			image_url = VALUES(image_url), price = VALUES(price), stock = VALUES(stock),
			category = VALUES(category), region = VALUES(region), materials = VALUES(materials),
			updated_at = VALUES(updated_at)`
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save product %s: %w", p.ID, err)
	}
	return nil
}

// GetProduct reads one product.
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return getProduct(ctx, s.db, id, false)
}

// ListProducts returns matching products, newest first.
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	var where []string
	var args []any
	if filter.ArtisanID != "" {
		where = append(where, "artisan_id = ?")
		args = append(args, filter.ArtisanID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Region != "" {
		where = append(where, "region = ?")
		args = append(args, filter.Region)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// CreateProduct inserts a new product; an existing id is an error.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("product %s already exists: %w", p.ID, err)
		}
		return fmt.Errorf("create product %s: %w", p.ID, err)
	}
	return nil
}
