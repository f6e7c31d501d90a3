package marketplace

import (
	"context"
	"strings"

	"github.com/gosimple/slug"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// ProductInput holds the fields of a new product. Price is in minor units.
type ProductInput struct {
	ArtisanID   string // only honoured for admins
	Name        string
	Description string
	ImageURL    string
	Price       int64
	Stock       int
	Category    string
	Region      string
	Materials   []string
}

// ProductPatch is a partial product update; nil fields are left alone.
type ProductPatch struct {
	Name        *string
	Description *string
	ImageURL    *string
	Price       *int64
	Stock       *int
	Category    *string
	Region      *string
	Materials   []string
}

// normalizeMaterials trims, lowercases and de-duplicates materials while
// keeping their order.
func normalizeMaterials(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := []string{}
	for _, m := range in {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func validateProduct(op string, p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.InvalidArgument(op, "name is required")
	}
	if p.Price <= 0 {
		return apperrors.InvalidArgument(op, "price must be positive")
	}
	if p.Stock < 0 {
		return apperrors.InvalidArgument(op, "stock must not be negative")
	}
	return nil
}

// CreateProduct adds a product to the catalog on behalf of caller.
func (s *Service) CreateProduct(ctx context.Context, caller models.Caller, in ProductInput) (*models.Product, error) {
	const op = "marketplace.CreateProduct"

	artisanID := caller.UID
	if caller.IsAdmin() && in.ArtisanID != "" {
		artisanID = in.ArtisanID
	}

	now := s.now()
	p := &models.Product{
		ID:          s.newID(),
		ArtisanID:   artisanID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    slug.Make(in.Category),
		Region:      slug.Make(in.Region),
		Materials:   normalizeMaterials(in.Materials),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(op, p); err != nil {
		return nil, err
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, apperrors.Internal(op, err)
	}
	return p, nil
}

// UpdateProduct applies patch to a product owned by caller (or any product
// for admins). It runs in a transaction so a restock cannot overwrite a
// concurrent checkout's stock decrement.
func (s *Service) UpdateProduct(ctx context.Context, caller models.Caller, productID string, patch ProductPatch) (*models.Product, error) {
	const op = "marketplace.UpdateProduct"

	var product *models.Product
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProduct(productID)
		if err != nil {
			return err
		}
		if p.ArtisanID != caller.UID && !caller.IsAdmin() {
			return apperrors.PermissionDenied(op, "you can only edit your own products")
		}

		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.ImageURL != nil {
			p.ImageURL = *patch.ImageURL
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Stock != nil {
			p.Stock = *patch.Stock
		}
		if patch.Category != nil {
			p.Category = slug.Make(*patch.Category)
		}
		if patch.Region != nil {
			p.Region = slug.Make(*patch.Region)
		}
		if patch.Materials != nil {
			p.Materials = normalizeMaterials(patch.Materials)
		}
		if err := validateProduct(op, p); err != nil {
			return err
		}

		p.UpdatedAt = s.now()
		product = p
		return tx.SetProduct(p)
	})
	if err != nil {
		return nil, classify(op, err, "product not found")
	}
	return product, nil
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, classify("marketplace.GetProduct", err, "product not found")
	}
	return p, nil
}

// ListProducts returns products matching filter. Category and region are
// compared in their slug form.
func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	if filter.Category != "" {
		filter.Category = slug.Make(filter.Category)
	}
	if filter.Region != "" {
		filter.Region = slug.Make(filter.Region)
	}
	products, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("marketplace.ListProducts", err)
	}
	return products, nil
}
