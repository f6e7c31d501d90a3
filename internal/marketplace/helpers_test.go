package marketplace

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store/memory"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *Service
	clock time.Time
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(opts...), clock: testNow}
	var seq atomic.Int64
	f.svc = New(f.store,
		WithClock(func() time.Time { return f.clock }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	)
	return f
}

func (f *fixture) addProduct(t *testing.T, id, artisanID string, price int64, stock int) {
	t.Helper()
	require.NoError(t, f.store.CreateProduct(context.Background(), &models.Product{
		ID:        id,
		ArtisanID: artisanID,
		Name:      "Product " + id,
		Price:     price,
		Stock:     stock,
		CreatedAt: testNow,
	}))
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.CodeOf(err), "error: %v", err)
}

func int64p(v int64) *int64 { return &v }
func strp(v string) *string { return &v }

var adminCaller = models.Caller{UID: "admin-1", Role: models.RoleAdmin}

func intp(v int) *int { return &v }

func uid(i int) string { return fmt.Sprintf("buyer-%d", i) }

func cartItem(productID string, qty int) models.CartItem {
	return models.CartItem{ProductID: productID, Quantity: qty, Price: 100, Name: productID, ArtisanID: "a1"}
}
