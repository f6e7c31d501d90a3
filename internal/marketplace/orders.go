package marketplace

import (
	"context"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// MyOrders returns the orders placed by uid, newest first.
func (s *Service) MyOrders(ctx context.Context, uid string) ([]models.Order, error) {
	orders, err := s.store.OrdersByUser(ctx, uid)
	if err != nil {
		return nil, apperrors.Internal("marketplace.MyOrders", err)
	}
	return orders, nil
}

// ArtisanOrders returns the orders containing artisanID's products. Each
// order is narrowed to that artisan's items and its total recomputed.
func (s *Service) ArtisanOrders(ctx context.Context, artisanID string) ([]models.Order, error) {
	orders, err := s.store.OrdersByArtisan(ctx, artisanID)
	if err != nil {
		return nil, apperrors.Internal("marketplace.ArtisanOrders", err)
	}

	views := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		items := o.ItemsByArtisan[artisanID]
		o.Items = items
		o.ItemsByArtisan = map[string][]models.CartItem{artisanID: items}
		o.ArtisanIDs = []string{artisanID}
		o.Total = models.CartTotal(items)
		views = append(views, o)
	}
	return views, nil
}

// canView reports whether caller may see order.
func canView(caller models.Caller, order *models.Order) bool {
	return caller.IsAdmin() || order.UserID == caller.UID || order.HasArtisan(caller.UID)
}

// GetOrder returns one order to its buyer, an involved artisan or an admin.
// Anyone else gets NOT_FOUND so order ids cannot be probed.
func (s *Service) GetOrder(ctx context.Context, caller models.Caller, orderID string) (*models.Order, error) {
	const op = "marketplace.GetOrder"

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, classify(op, err, "order not found")
	}
	if !canView(caller, order) {
		return nil, apperrors.NotFound(op, "order not found")
	}
	return order, nil
}

// UpdateOrderStatus moves an order one step along
// Processing -> Shipped -> Delivered.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller models.Caller, orderID string, status models.OrderStatus) (*models.Order, error) {
	const op = "marketplace.UpdateOrderStatus"

	if !status.Valid() {
		return nil, apperrors.InvalidArgument(op, "unknown order status %q", status)
	}

	var order *models.Order
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		o, err := tx.GetOrder(orderID)
		if err != nil {
			return err
		}
		if !caller.IsAdmin() && !o.HasArtisan(caller.UID) {
			if o.UserID == caller.UID {
				return apperrors.PermissionDenied(op, "buyers cannot change fulfillment status")
			}
			return apperrors.NotFound(op, "order not found")
		}
		if !o.Status.CanAdvanceTo(status) {
			return apperrors.FailedPrecondition(op, "cannot move order from %s to %s", o.Status, status)
		}

		o.Status = status
		o.UpdatedAt = s.now()
		order = o
		return tx.SetOrder(o)
	})
	if err != nil {
		return nil, classify(op, err, "order not found")
	}
	return order, nil
}
