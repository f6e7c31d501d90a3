package marketplace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
	"github.com/01moynul/artisansloom-golang/internal/models"
)

func placeTwoArtisanOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	f.addProduct(t, "p1", "artisan-1", 1000, 5)
	f.addProduct(t, "p2", "artisan-2", 300, 5)
	ctx := context.Background()
	require.NoError(t, f.svc.UpdateCart(ctx, "buyer", "p1", 1))
	require.NoError(t, f.svc.UpdateCart(ctx, "buyer", "p2", 2))
	order, err := f.svc.CreateOrder(ctx, "buyer", shipping)
	require.NoError(t, err)
	return order
}

func TestArtisanOrders_OnlyOwnItems(t *testing.T) {
	f := newFixture(t)
	placeTwoArtisanOrder(t, f)

	orders, err := f.svc.ArtisanOrders(context.Background(), "artisan-2")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	require.Len(t, o.Items, 1)
	assert.Equal(t, "p2", o.Items[0].ProductID)
	assert.Equal(t, int64(600), o.Total)
	assert.Equal(t, []string{"artisan-2"}, o.ArtisanIDs)

	mine, err := f.svc.MyOrders(context.Background(), "buyer")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1600), mine[0].Total)
}

func TestGetOrder_Visibility(t *testing.T) {
	f := newFixture(t)
	order := placeTwoArtisanOrder(t, f)
	ctx := context.Background()

	for _, caller := range []models.Caller{
		{UID: "buyer", Role: models.RoleCustomer},
		{UID: "artisan-1", Role: models.RoleArtisan},
		adminCaller,
	} {
		_, err := f.svc.GetOrder(ctx, caller, order.ID)
		assert.NoError(t, err, caller.UID)
	}

	_, err := f.svc.GetOrder(ctx, models.Caller{UID: "stranger", Role: models.RoleCustomer}, order.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	order := placeTwoArtisanOrder(t, f)
	ctx := context.Background()
	artisan := models.Caller{UID: "artisan-1", Role: models.RoleArtisan}

	_, err := f.svc.UpdateOrderStatus(ctx, artisan, order.ID, models.OrderDelivered)
	requireCode(t, err, apperrors.CodeFailedPrecondition)

	updated, err := f.svc.UpdateOrderStatus(ctx, artisan, order.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)

	_, err = f.svc.UpdateOrderStatus(ctx, artisan, order.ID, models.OrderProcessing)
	requireCode(t, err, apperrors.CodeFailedPrecondition)

	_, err = f.svc.UpdateOrderStatus(ctx, models.Caller{UID: "buyer", Role: models.RoleCustomer}, order.ID, models.OrderDelivered)
	requireCode(t, err, apperrors.CodePermissionDenied)

	_, err = f.svc.UpdateOrderStatus(ctx, adminCaller, order.ID, "Lost")
	requireCode(t, err, apperrors.CodeInvalidArgument)

	updated, err = f.svc.UpdateOrderStatus(ctx, adminCaller, order.ID, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.Status)

	// everything except status stays as checkout wrote it
	stored, err := f.store.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, stored.Total)
	assert.Len(t, stored.Items, 2)
}
