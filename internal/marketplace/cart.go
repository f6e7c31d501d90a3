package marketplace

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// UpdateCart sets the quantity of productID in uid's cart. A quantity of 0
// removes the item. The item snapshot (price, name, image, artisan) is
// refreshed from the product on every update.
func (s *Service) UpdateCart(ctx context.Context, uid, productID string, quantity int) error {
	const op = "marketplace.UpdateCart"

	// 1. --- Validate Input ---
	if productID == "" {
		return apperrors.InvalidArgument(op, "productId is required")
	}
	if quantity < 0 {
		return apperrors.InvalidArgument(op, "quantity must not be negative")
	}

	// 2. --- Quantity 0 Means Remove ---
	if quantity == 0 {
		if err := s.store.DeleteCartItem(ctx, uid, productID); err != nil {
			return apperrors.Internal(op, err)
		}
		return nil
	}

	// 3. --- Check Product & Stock ---
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return classify(op, err, "product not found")
	}
	if !product.HasStock(quantity) {
		return apperrors.OutOfRange(op, "only %d of %q left in stock", product.Stock, product.Name).
			WithDetail("productId", product.ID).
			WithDetail("availableStock", product.Stock)
	}

	// 4. --- Upsert the Cart Item ---
	addedAt := s.now()
	existing, err := s.store.GetCartItem(ctx, uid, productID)
	switch {
	case err == nil:
		addedAt = existing.AddedAt
	case !errors.Is(err, store.ErrNotFound):
		return apperrors.Internal(op, err)
	}

	item := &models.CartItem{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		ArtisanID: product.ArtisanID,
		AddedAt:   addedAt,
	}
	if err := s.store.SetCartItem(ctx, uid, item); err != nil {
		return apperrors.Internal(op, err)
	}

	s.log.Debug("cart updated",
		zap.String("uid", uid),
		zap.String("productId", productID),
		zap.Int("quantity", quantity))
	return nil
}

// GetCart returns every item in uid's cart.
func (s *Service) GetCart(ctx context.Context, uid string) ([]models.CartItem, error) {
	items, err := s.store.CartItems(ctx, uid)
	if err != nil {
		return nil, apperrors.Internal("marketplace.GetCart", err)
	}
	return items, nil
}
