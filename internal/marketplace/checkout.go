package marketplace

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// CreateOrder turns uid's cart into an order. Stock for every item is
// checked against a fresh read and decremented in the same transaction that
// writes the order, so either all of it lands or none of it does. The cart
// is cleared afterwards, outside the transaction.
func (s *Service) CreateOrder(ctx context.Context, uid string, shippingInfo map[string]any) (order *models.Order, err error) {
	const op = "marketplace.CreateOrder"

	ctx, span := s.startSpan(ctx, op, attribute.String("user.id", uid))
	defer func() { endSpan(span, err) }()

	// 1. --- Validate Input ---
	if uid == "" {
		return nil, apperrors.Unauthenticated(op, "sign in to place an order")
	}
	if len(shippingInfo) == 0 {
		return nil, apperrors.InvalidArgument(op, "shippingInfo is required")
	}

	// 2. --- Load the Cart ---
	items, err := s.store.CartItems(ctx, uid)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}
	if len(items) == 0 {
		return nil, apperrors.FailedPrecondition(op, "cart empty")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperrors.FailedPrecondition(op, "cart item %q has an invalid quantity", item.ProductID)
		}
	}
	total := models.CartTotal(items)
	orderID := s.newID()

	// 3. --- Stock Check, Decrement & Order Write (one transaction) ---
	err = s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		now := s.now()

		products := make([]*models.Product, len(items))
		for i, item := range items {
			p, err := tx.GetProduct(item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.NotFound(op, "product %q no longer exists", item.Name).
					WithDetail("productId", item.ProductID)
			}
			if err != nil {
				return err
			}
			products[i] = p
		}

		for i, item := range items {
			if !products[i].HasStock(item.Quantity) {
				return apperrors.OutOfRange(op, "insufficient stock for %q: %d left", products[i].Name, products[i].Stock).
					WithDetail("productId", products[i].ID).
					WithDetail("availableStock", products[i].Stock).
					WithDetail("requested", item.Quantity)
			}
		}

		for i, item := range items {
			products[i].Stock -= item.Quantity
			products[i].UpdatedAt = now
			if err := tx.SetProduct(products[i]); err != nil {
				return err
			}
		}

		byArtisan, artisanIDs := models.GroupByArtisan(items)
		order = &models.Order{
			ID:             orderID,
			UserID:         uid,
			Items:          items,
			ItemsByArtisan: byArtisan,
			ArtisanIDs:     artisanIDs,
			ShippingInfo:   shippingInfo,
			Total:          total,
			Status:         models.OrderProcessing,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.SetOrder(order)
	})
	if err != nil {
		return nil, classify(op, err, "")
	}

	// 4. --- Clear the Cart (best effort) ---
	productIDs := make([]string, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	if clearErr := s.store.ClearCart(ctx, uid, productIDs); clearErr != nil {
		s.log.Warn("order placed but cart not cleared",
			zap.String("orderId", orderID),
			zap.String("uid", uid),
			zap.Error(clearErr))
	}

	s.log.Info("order created",
		zap.String("orderId", orderID),
		zap.String("uid", uid),
		zap.Int64("total", total),
		zap.Int("items", len(items)))
	return order, nil
}
