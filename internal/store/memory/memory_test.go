package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

func seedProduct(t *testing.T, s *Store, id string, stock int) {
	t.Helper()
	require.NoError(t, s.CreateProduct(context.Background(), &models.Product{ID: id, Stock: stock, Price: 100}))
}

func TestRunTransaction_CommitsWrites(t *testing.T) {
	s := New()
	seedProduct(t, s, "p1", 5)

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProduct("p1")
		if err != nil {
			return err
		}
		p.Stock -= 2
		return tx.SetProduct(p)
	})
	require.NoError(t, err)

	p, err := s.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestRunTransaction_ErrorDiscardsWrites(t *testing.T) {
	s := New()
	seedProduct(t, s, "p1", 5)
	boom := errors.New("boom")

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		p, _ := tx.GetProduct("p1")
		p.Stock = 0
		_ = tx.SetProduct(p)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, _ := s.GetProduct(context.Background(), "p1")
	assert.Equal(t, 5, p.Stock)
}

func TestRunTransaction_RetriesOnConflict(t *testing.T) {
	s := New()
	seedProduct(t, s, "p1", 5)

	attempts := 0
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		attempts++
		p, err := tx.GetProduct("p1")
		if err != nil {
			return err
		}
		if attempts == 1 {
			// a concurrent writer lands between our read and our commit
			require.NoError(t, s.write(productPath("p1"), &models.Product{ID: "p1", Stock: 1}))
		}
		p.Stock--
		return tx.SetProduct(p)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	p, _ := s.GetProduct(context.Background(), "p1")
	assert.Equal(t, 0, p.Stock)
}

func TestRunTransaction_AbortsAfterMaxAttempts(t *testing.T) {
	s := New(WithMaxAttempts(3))
	seedProduct(t, s, "p1", 5)

	attempts := 0
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		attempts++
		p, _ := tx.GetProduct("p1")
		require.NoError(t, s.write(productPath("p1"), p))
		return tx.SetProduct(p)
	})
	assert.ErrorIs(t, err, store.ErrAborted)
	assert.Equal(t, 3, attempts)
}

func TestRunTransaction_MissingDocumentJoinsReadSet(t *testing.T) {
	s := New()

	attempts := 0
	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		attempts++
		_, err := tx.GetProduct("p1")
		if attempts == 1 {
			require.ErrorIs(t, err, store.ErrNotFound)
			seedProduct(t, s, "p1", 1)
		}
		return tx.SetProduct(&models.Product{ID: "p1", Stock: 9})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRunTransaction_ReadAfterWriteRejected(t *testing.T) {
	s := New()
	seedProduct(t, s, "p1", 1)

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.SetProduct(&models.Product{ID: "p2"}))
		_, err := tx.GetProduct("p1")
		return err
	})
	assert.Error(t, err)
}

func TestRunTransaction_ConcurrentDecrementsNeverLoseUpdates(t *testing.T) {
	s := New(WithMaxAttempts(100))
	seedProduct(t, s, "p1", 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
				p, err := tx.GetProduct("p1")
				if err != nil {
					return err
				}
				p.Stock--
				return tx.SetProduct(p)
			})
		}()
	}
	wg.Wait()

	p, _ := s.GetProduct(context.Background(), "p1")
	assert.Equal(t, 30, p.Stock)
}

func TestCartIsolatedPerUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SetCartItem(ctx, "u1", &models.CartItem{ProductID: "a", Quantity: 1}))
	require.NoError(t, s.SetCartItem(ctx, "u1", &models.CartItem{ProductID: "b", Quantity: 2}))
	require.NoError(t, s.SetCartItem(ctx, "u2", &models.CartItem{ProductID: "a", Quantity: 3}))

	items, err := s.CartItems(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, s.ClearCart(ctx, "u1", []string{"a", "b"}))
	items, _ = s.CartItems(ctx, "u1")
	assert.Empty(t, items)

	items, _ = s.CartItems(ctx, "u2")
	assert.Len(t, items, 1)
}

func TestOrdersByArtisan(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunTransaction(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.SetOrder(&models.Order{ID: "o1", UserID: "u1", ArtisanIDs: []string{"a1", "a2"}}); err != nil {
			return err
		}
		return tx.SetOrder(&models.Order{ID: "o2", UserID: "u2", ArtisanIDs: []string{"a2"}})
	})
	require.NoError(t, err)

	orders, err := s.OrdersByArtisan(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)

	orders, _ = s.OrdersByArtisan(ctx, "a2")
	assert.Len(t, orders, 2)

	orders, _ = s.OrdersByUser(ctx, "u2")
	assert.Len(t, orders, 1)
}
