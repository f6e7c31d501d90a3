package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
)

func TestUpdateCart_AddsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "artisan-1", 45000, 4)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateCart(ctx, "u1", "p1", 2))

	items, err := f.svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(45000), items[0].Price)
	assert.Equal(t, "artisan-1", items[0].ArtisanID)
	assert.Equal(t, "Product p1", items[0].Name)
	assert.True(t, items[0].AddedAt.Equal(testNow))
}

func TestUpdateCart_OverwriteKeepsAddedAt(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "artisan-1", 100, 10)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateCart(ctx, "u1", "p1", 1))
	f.clock = testNow.Add(time.Hour)
	require.NoError(t, f.svc.UpdateCart(ctx, "u1", "p1", 5))

	items, _ := f.svc.GetCart(ctx, "u1")
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.True(t, items[0].AddedAt.Equal(testNow))
}

func TestUpdateCart_ZeroRemoves(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "artisan-1", 100, 10)
	ctx := context.Background()

	require.NoError(t, f.svc.UpdateCart(ctx, "u1", "p1", 3))
	require.NoError(t, f.svc.UpdateCart(ctx, "u1", "p1", 0))

	items, _ := f.svc.GetCart(ctx, "u1")
	assert.Empty(t, items)
}

func TestUpdateCart_Failures(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "artisan-1", 100, 2)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		quantity  int
		code      apperrors.Code
	}{
		{"missing product id", "", 1, apperrors.CodeInvalidArgument},
		{"negative quantity", "p1", -1, apperrors.CodeInvalidArgument},
		{"unknown product", "nope", 1, apperrors.CodeNotFound},
		{"more than stock", "p1", 3, apperrors.CodeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.UpdateCart(ctx, "u1", tt.productID, tt.quantity)
			requireCode(t, err, tt.code)
		})
	}

	err := f.svc.UpdateCart(ctx, "u1", "p1", 3)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Details["availableStock"])
}
