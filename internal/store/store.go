// Package store defines the document store the marketplace runs on.
//
// Implementations live in internal/store/memory, internal/database (MySQL)
// and internal/firestore. All of them honour the same transaction contract:
// the function passed to RunTransaction may be invoked more than once, only
// writes made through the Tx are atomic, and an error returned by the
// function aborts the transaction and is returned unchanged.
package store

import (
	"context"
	"errors"

	"github.com/01moynul/artisansloom-golang/internal/models"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAborted is returned when a transaction kept conflicting with
	// concurrent writers and ran out of attempts.
	ErrAborted = errors.New("transaction aborted after repeated conflicts")
)

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx Tx) error

// Tx is the read-modify-write view inside a transaction. Every read must
// happen before the first write.
type Tx interface {
	GetProduct(id string) (*models.Product, error)
	SetProduct(p *models.Product) error

	GetOrder(id string) (*models.Order, error)
	SetOrder(o *models.Order) error

	GetAuctionPiece(id string) (*models.AuctionPiece, error)
	SetAuctionPiece(a *models.AuctionPiece) error
}

// ProductFilter narrows ListProducts. Empty fields match everything.
type ProductFilter struct {
	ArtisanID string
	Category  string
	Region    string
}

// Matches reports whether p passes the filter.
func (f ProductFilter) Matches(p *models.Product) bool {
	return (f.ArtisanID == "" || p.ArtisanID == f.ArtisanID) &&
		(f.Category == "" || p.Category == f.Category) &&
		(f.Region == "" || p.Region == f.Region)
}

// Store is the repository behind every marketplace operation.
type Store interface {
	RunTransaction(ctx context.Context, fn TxFunc) error

	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error

	CartItems(ctx context.Context, uid string) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, uid, productID string) (*models.CartItem, error)
	SetCartItem(ctx context.Context, uid string, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, uid, productID string) error
	// ClearCart deletes the given cart items in one batch.
	ClearCart(ctx context.Context, uid string, productIDs []string) error

	GetOrder(ctx context.Context, id string) (*models.Order, error)
	OrdersByUser(ctx context.Context, uid string) ([]models.Order, error)
	OrdersByArtisan(ctx context.Context, artisanID string) ([]models.Order, error)

	GetAuctionPiece(ctx context.Context, id string) (*models.AuctionPiece, error)
	ListAuctionPieces(ctx context.Context, status models.AuctionStatus) ([]models.AuctionPiece, error)
	CreateAuctionPiece(ctx context.Context, a *models.AuctionPiece) error

	Close() error
}
