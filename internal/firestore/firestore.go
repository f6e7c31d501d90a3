// Package firestore is the Cloud Firestore implementation of store.Store,
// using the collection layout of the original deployment:
// products/{id}, orders/{id}, auctionPieces/{id} and users/{uid}/cart/{productId}.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	auctionsCollection = "auctionPieces"
	usersCollection    = "users"
	cartCollection     = "cart"
)

// DefaultMaxAttempts is the Firestore client's own transaction retry budget.
const DefaultMaxAttempts = 5

var _ store.Store = (*Store)(nil)

// Store wraps a Firestore client.
type Store struct {
	client *firestore.Client
}

// New connects to projectID. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS or the metadata server) unless opts say
// otherwise.
func New(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) products() *firestore.CollectionRef { return s.client.Collection(productsCollection) }
func (s *Store) orders() *firestore.CollectionRef   { return s.client.Collection(ordersCollection) }
func (s *Store) auctions() *firestore.CollectionRef { return s.client.Collection(auctionsCollection) }

func (s *Store) cart(uid string) *firestore.CollectionRef {
	return s.client.Collection(usersCollection).Doc(uid).Collection(cartCollection)
}

// translate maps Firestore status codes onto store errors.
func translate(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.Aborted:
		return fmt.Errorf("%w: %v", store.ErrAborted, err)
	}
	return err
}

// decode reads snap into v and returns the error translated.
func decode(snap *firestore.DocumentSnapshot, err error, v any) error {
	if err != nil {
		return translate(err)
	}
	if !snap.Exists() {
		return store.ErrNotFound
	}
	if err := snap.DataTo(v); err != nil {
		return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
	}
	return nil
}

// getAll drains a query, decoding each document with fn.
func getAll(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	it := q.Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return translate(err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

// RunTransaction runs fn in a Firestore transaction. The client retries fn
// on contention; a transaction that still conflicts returns store.ErrAborted.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	var fnErr error
	err := s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		fnErr = fn(ctx, &tx{store: s, tx: ftx})
		return fnErr
	}, firestore.MaxAttempts(DefaultMaxAttempts))
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.Aborted:
		return store.ErrAborted
	case fnErr != nil:
		return fnErr
	}
	return fmt.Errorf("firestore transaction: %w", err)
}

type tx struct {
	store *Store
	tx    *firestore.Transaction
}

func (t *tx) GetProduct(id string) (*models.Product, error) {
	var p models.Product
	snap, err := t.tx.Get(t.store.products().Doc(id))
	if err := decode(snap, err, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

func (t *tx) SetProduct(p *models.Product) error {
	return t.tx.Set(t.store.products().Doc(p.ID), p)
}

func (t *tx) GetOrder(id string) (*models.Order, error) {
	var o models.Order
	snap, err := t.tx.Get(t.store.orders().Doc(id))
	if err := decode(snap, err, &o); err != nil {
		return nil, err
	}
	o.ID = id
	return &o, nil
}

func (t *tx) SetOrder(o *models.Order) error {
	return t.tx.Set(t.store.orders().Doc(o.ID), o)
}

func (t *tx) GetAuctionPiece(id string) (*models.AuctionPiece, error) {
	var a models.AuctionPiece
	snap, err := t.tx.Get(t.store.auctions().Doc(id))
	if err := decode(snap, err, &a); err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

func (t *tx) SetAuctionPiece(a *models.AuctionPiece) error {
	return t.tx.Set(t.store.auctions().Doc(a.ID), a)
}
