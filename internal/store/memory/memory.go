// Package memory is an in-process store.Store with optimistic transactions.
// Documents are held JSON-encoded under Firestore-style paths so every read
// hands out an independent copy.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

// DefaultMaxAttempts matches the retry budget of Firestore transactions.
const DefaultMaxAttempts = 5

type document struct {
	version int64
	data    []byte
}

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	docs    map[string]document
	seq     int64
	maxTry  int
	onRetry func(attempt int)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxAttempts sets how many times a conflicting transaction is run.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTry = n
		}
	}
}

// WithRetryHook is called before every retried attempt.
func WithRetryHook(fn func(attempt int)) Option {
	return func(s *Store) { s.onRetry = fn }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		docs:   make(map[string]document),
		maxTry: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func productPath(id string) string { return "products/" + id }
func orderPath(id string) string { return "orders/" + id }
func auctionPath(id string) string { return "auctionPieces/" + id }
func cartPrefix(uid string) string { return "users/" + uid + "/cart/" }
func cartPath(uid, pid string) string { return cartPrefix(uid) + pid }

// --- raw document access (caller holds no lock) ---

func (s *Store) read(path string, v any) (int64, error) {
	s.mu.Lock()
	doc, ok := s.docs[path]
	s.mu.Unlock()
	if !ok {
		return 0, store.ErrNotFound
	}
	if err := json.Unmarshal(doc.data, v); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.version, nil
}

func (s *Store) write(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.docs[path] = document{version: s.seq, data: data}
	return nil
}

func (s *Store) create(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[path]; exists {
		return fmt.Errorf("document %s already exists", path)
	}
	s.seq++
	s.docs[path] = document{version: s.seq, data: data}
	return nil
}

// scan returns the encoded documents whose path starts with prefix and has
// no further path segments.
func (s *Store) scan(prefix string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]byte
	for path, doc := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		out = append(out, doc.data)
	}
	return out
}

// --- transactions ---

// RunTransaction runs fn and commits its writes if none of the documents it
// read changed in the meantime; otherwise fn is run again.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	for attempt := 1; attempt <= s.maxTry; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 1 && s.onRetry != nil {
			s.onRetry(attempt)
		}

		tx := &memTx{s: s, reads: make(map[string]int64), writes: make(map[string][]byte)}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		if tx.err != nil {
			return tx.err
		}
		if s.commit(tx) {
			return nil
		}
	}
	return store.ErrAborted
}

func (s *Store) commit(tx *memTx) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, seen := range tx.reads {
		if s.docs[path].version != seen {
			return false
		}
	}
	for _, path := range tx.order {
		s.seq++
		s.docs[path] = document{version: s.seq, data: tx.writes[path]}
	}
	return true
}

type memTx struct {
	s      *Store
	reads  map[string]int64
	writes map[string][]byte
	order  []string
	err    error
}

func (t *memTx) get(path string, v any) error {
	if len(t.writes) > 0 {
		return fmt.Errorf("read of %s after write in transaction", path)
	}
	version, err := t.s.read(path, v)
	if err == store.ErrNotFound {
		t.reads[path] = 0
		return err
	}
	if err != nil {
		return err
	}
	t.reads[path] = version
	return nil
}

func (t *memTx) set(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		t.err = fmt.Errorf("encode %s: %w", path, err)
		return t.err
	}
	if _, dup := t.writes[path]; !dup {
		t.order = append(t.order, path)
	}
	t.writes[path] = data
	return nil
}

func (t *memTx) GetProduct(id string) (*models.Product, error) {
	var p models.Product
	if err := t.get(productPath(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *memTx) SetProduct(p *models.Product) error {
	return t.set(productPath(p.ID), p)
}

func (t *memTx) GetOrder(id string) (*models.Order, error) {
	var o models.Order
	if err := t.get(orderPath(id), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *memTx) SetOrder(o *models.Order) error {
	return t.set(orderPath(o.ID), o)
}

func (t *memTx) GetAuctionPiece(id string) (*models.AuctionPiece, error) {
	var a models.AuctionPiece
	if err := t.get(auctionPath(id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *memTx) SetAuctionPiece(a *models.AuctionPiece) error {
	return t.set(auctionPath(a.ID), a)
}

// --- products ---

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	var p models.Product
	if _, err := s.read(productPath(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, filter store.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	for _, data := range s.scan("products/") {
		var p models.Product
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if filter.Matches(&p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID < products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	return s.create(productPath(p.ID), p)
}

// --- cart ---

func (s *Store) CartItems(_ context.Context, uid string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	for _, data := range s.scan(cartPrefix(uid)) {
		var item models.CartItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].ProductID < items[j].ProductID
		}
		return items[i].AddedAt.Before(items[j].AddedAt)
	})
	return items, nil
}

func (s *Store) GetCartItem(_ context.Context, uid, productID string) (*models.CartItem, error) {
	var item models.CartItem
	if _, err := s.read(cartPath(uid, productID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SetCartItem(_ context.Context, uid string, item *models.CartItem) error {
	return s.write(cartPath(uid, item.ProductID), item)
}

func (s *Store) DeleteCartItem(_ context.Context, uid, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, cartPath(uid, productID))
	return nil
}

func (s *Store) ClearCart(_ context.Context, uid string, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range productIDs {
		delete(s.docs, cartPath(uid, pid))
	}
	return nil
}

// --- orders ---

func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	var o models.Order
	if _, err := s.read(orderPath(id), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) orders(match func(*models.Order) bool) ([]models.Order, error) {
	orders := []models.Order{}
	for _, data := range s.scan("orders/") {
		var o models.Order
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, err
		}
		if match(&o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *Store) OrdersByUser(_ context.Context, uid string) ([]models.Order, error) {
	return s.orders(func(o *models.Order) bool { return o.UserID == uid })
}

func (s *Store) OrdersByArtisan(_ context.Context, artisanID string) ([]models.Order, error) {
	return s.orders(func(o *models.Order) bool { return o.HasArtisan(artisanID) })
}

// --- auction pieces ---

func (s *Store) GetAuctionPiece(_ context.Context, id string) (*models.AuctionPiece, error) {
	var a models.AuctionPiece
	if _, err := s.read(auctionPath(id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAuctionPieces(_ context.Context, status models.AuctionStatus) ([]models.AuctionPiece, error) {
	pieces := []models.AuctionPiece{}
	for _, data := range s.scan("auctionPieces/") {
		var a models.AuctionPiece
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		if status == "" || a.Status == status {
			pieces = append(pieces, a)
		}
	}
	sort.Slice(pieces, func(i, j int) bool {
		if pieces[i].EndTime.Equal(pieces[j].EndTime) {
			return pieces[i].ID < pieces[j].ID
		}
		return pieces[i].EndTime.Before(pieces[j].EndTime)
	})
	return pieces, nil
}

func (s *Store) CreateAuctionPiece(_ context.Context, a *models.AuctionPiece) error {
	return s.create(auctionPath(a.ID), a)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

var _ store.Store = (*Store)(nil)
