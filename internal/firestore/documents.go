package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// --- Products ---

// GetProduct reads products/{id}.
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	snap, err := s.products().Doc(id).Get(ctx)
	if err := decode(snap, err, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// ListProducts queries products by the filter fields, newest first.
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	q := s.products().Query
	if filter.ArtisanID != "" {
		q = q.Where("artisanId", "==", filter.ArtisanID)
	}
	if filter.Category != "" {
		q = q.Where("category", "==", filter.Category)
	}
	if filter.Region != "" {
		q = q.Where("region", "==", filter.Region)
	}
	q = q.OrderBy("createdAt", firestore.Desc)

	products := []models.Product{}
	err := getAll(ctx, q, func(snap *firestore.DocumentSnapshot) error {
		var p models.Product
		if err := snap.DataTo(&p); err != nil {
			return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		p.ID = snap.Ref.ID
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CreateProduct creates products/{p.ID}; it fails if the document exists.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if _, err := s.products().Doc(p.ID).Create(ctx, p); err != nil {
		return fmt.Errorf("create product %s: %w", p.ID, err)
	}
	return nil
}

// --- Carts ---

// CartItems returns users/{uid}/cart, oldest item first.
func (s *Store) CartItems(ctx context.Context, uid string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := getAll(ctx, s.cart(uid).OrderBy("addedAt", firestore.Asc), func(snap *firestore.DocumentSnapshot) error {
		var item models.CartItem
		if err := snap.DataTo(&item); err != nil {
			return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		item.ProductID = snap.Ref.ID
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cart of %s: %w", uid, err)
	}
	return items, nil
}

// GetCartItem reads users/{uid}/cart/{productID}.
func (s *Store) GetCartItem(ctx context.Context, uid, productID string) (*models.CartItem, error) {
	var item models.CartItem
	snap, err := s.cart(uid).Doc(productID).Get(ctx)
	if err := decode(snap, err, &item); err != nil {
		return nil, err
	}
	item.ProductID = productID
	return &item, nil
}

// SetCartItem overwrites users/{uid}/cart/{item.ProductID}.
func (s *Store) SetCartItem(ctx context.Context, uid string, item *models.CartItem) error {
	if _, err := s.cart(uid).Doc(item.ProductID).Set(ctx, item); err != nil {
		return fmt.Errorf("save cart item %s/%s: %w", uid, item.ProductID, err)
	}
	return nil
}

// DeleteCartItem removes a cart line; deleting a missing line succeeds.
func (s *Store) DeleteCartItem(ctx context.Context, uid, productID string) error {
	if _, err := s.cart(uid).Doc(productID).Delete(ctx); err != nil {
		return fmt.Errorf("delete cart item %s/%s: %w", uid, productID, err)
	}
	return nil
}

// maxBatchWrites is Firestore's limit on writes per batch.
const maxBatchWrites = 500

// ClearCart deletes the listed cart lines with write batches.
func (s *Store) ClearCart(ctx context.Context, uid string, productIDs []string) error {
	for start := 0; start < len(productIDs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(productIDs))
		batch := s.client.Batch()
		for _, id := range productIDs[start:end] {
			batch.Delete(s.cart(uid).Doc(id))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("clear cart of %s: %w", uid, err)
		}
	}
	return nil
}

// --- Orders ---

// GetOrder reads orders/{id}.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	snap, err := s.orders().Doc(id).Get(ctx)
	if err := decode(snap, err, &o); err != nil {
		return nil, err
	}
	o.ID = id
	return &o, nil
}

func (s *Store) queryOrders(ctx context.Context, q firestore.Query) ([]models.Order, error) {
	orders := []models.Order{}
	err := getAll(ctx, q.OrderBy("createdAt", firestore.Desc), func(snap *firestore.DocumentSnapshot) error {
		var o models.Order
		if err := snap.DataTo(&o); err != nil {
			return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		o.ID = snap.Ref.ID
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// OrdersByUser returns the buyer's orders, newest first.
func (s *Store) OrdersByUser(ctx context.Context, uid string) ([]models.Order, error) {
	return s.queryOrders(ctx, s.orders().Where("userId", "==", uid))
}

// OrdersByArtisan returns orders whose artisanIds contain artisanID.
func (s *Store) OrdersByArtisan(ctx context.Context, artisanID string) ([]models.Order, error) {
	return s.queryOrders(ctx, s.orders().Where("artisanIds", "array-contains", artisanID))
}

// --- Auction pieces ---

// GetAuctionPiece reads auctionPieces/{id}.
func (s *Store) GetAuctionPiece(ctx context.Context, id string) (*models.AuctionPiece, error) {
	var a models.AuctionPiece
	snap, err := s.auctions().Doc(id).Get(ctx)
	if err := decode(snap, err, &a); err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// ListAuctionPieces returns pieces in status (all when empty), soonest
// ending first.
func (s *Store) ListAuctionPieces(ctx context.Context, status models.AuctionStatus) ([]models.AuctionPiece, error) {
	q := s.auctions().Query
	if status != "" {
		q = q.Where("status", "==", string(status))
	}
	pieces := []models.AuctionPiece{}
	err := getAll(ctx, q.OrderBy("endTime", firestore.Asc), func(snap *firestore.DocumentSnapshot) error {
		var a models.AuctionPiece
		if err := snap.DataTo(&a); err != nil {
			return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		a.ID = snap.Ref.ID
		pieces = append(pieces, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list auction pieces: %w", err)
	}
	return pieces, nil
}

// CreateAuctionPiece creates auctionPieces/{a.ID}.
func (s *Store) CreateAuctionPiece(ctx context.Context, a *models.AuctionPiece) error {
	if _, err := s.auctions().Doc(a.ID).Create(ctx, a); err != nil {
		return fmt.Errorf("create auction piece %s: %w", a.ID, err)
	}
	return nil
}
