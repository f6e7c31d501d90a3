package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/marketplace"
	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{"lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{"wrapped deadlock", fmt.Errorf("save product p1: %w", &mysql.MySQLError{Number: 1213}), true},
		{"duplicate key", &mysql.MySQLError{Number: 1062}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1213}))
}

func TestSchemaStatements(t *testing.T) {
	stmts := splitStatements(schema)
	require.Len(t, stmts, 5)
	for _, stmt := range stmts {
		assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"), stmt)
	}
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, "SELECT 1 FOR UPDATE", forUpdate("SELECT 1", true))
	assert.Equal(t, "SELECT 1", forUpdate("SELECT 1", false))
}

func TestOpenDBWithDSN_RequiresParseTime(t *testing.T) {
	_, err := OpenDBWithDSN(context.Background(), "loom:secret@tcp(127.0.0.1:3306)/loom")
	assert.ErrorContains(t, err, "parseTime")

	_, err = OpenDBWithDSN(context.Background(), "::not a dsn::")
	assert.Error(t, err)
}

func TestAuctionArgs_PendingPieceHasNullEndTime(t *testing.T) {
	pending := &models.AuctionPiece{ID: "a1", Status: models.AuctionPendingValuation}
	args := auctionArgs(pending)
	require.Len(t, args, strings.Count(auctionPlaceholders, "?"))
	assert.Equal(t, sql.NullTime{}, args[9])

	end := time.Date(2025, 3, 8, 18, 0, 0, 0, time.UTC)
	live := &models.AuctionPiece{ID: "a2", Status: models.AuctionLive, EndTime: end}
	assert.Equal(t, sql.NullTime{Time: end, Valid: true}, auctionArgs(live)[9])
}

// newTestStore opens the MySQL database named by LOOM_TEST_MYSQL_DSN and
// skips the test when it is not set.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LOOM_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("LOOM_TEST_MYSQL_DSN not set")
	}
	s, err := Open(context.Background(), dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// runSuffix keeps rows from separate runs apart in a shared database.
func runSuffix() string {
	return time.Now().UTC().Format("150405.000000")
}

func TestMySQL_CheckoutDecrementsStockAndIndexesArtisans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	suffix := runSuffix()
	artisanA, artisanB, buyer := "artisan-a-"+suffix, "artisan-b-"+suffix, "buyer-"+suffix

	market := marketplace.New(s)
	shawl, err := market.CreateProduct(ctx, models.Caller{UID: artisanA, Role: models.RoleArtisan},
		marketplace.ProductInput{Name: "Pashmina shawl", Price: 450000, Stock: 3, Materials: []string{"wool"}})
	require.NoError(t, err)
	bowl, err := market.CreateProduct(ctx, models.Caller{UID: artisanB, Role: models.RoleArtisan},
		marketplace.ProductInput{Name: "Blue pottery bowl", Price: 120000, Stock: 5})
	require.NoError(t, err)

	require.NoError(t, market.UpdateCart(ctx, buyer, shawl.ID, 2))
	require.NoError(t, market.UpdateCart(ctx, buyer, bowl.ID, 1))

	order, err := market.CreateOrder(ctx, buyer, map[string]any{"city": "Jaipur"})
	require.NoError(t, err)
	assert.Equal(t, int64(2*450000+120000), order.Total)

	p, err := s.GetProduct(ctx, shawl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
	assert.Equal(t, []string{"wool"}, p.Materials)
	p, err = s.GetProduct(ctx, bowl.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)

	cart, err := s.CartItems(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, cart)

	stored, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, stored.Status)
	assert.Equal(t, "Jaipur", stored.ShippingInfo["city"])
	assert.Len(t, stored.Items, 2)
	assert.ElementsMatch(t, []string{artisanA, artisanB}, stored.ArtisanIDs)

	for _, artisanID := range []string{artisanA, artisanB} {
		orders, err := s.OrdersByArtisan(ctx, artisanID)
		require.NoError(t, err)
		require.Len(t, orders, 1, artisanID)
		assert.Equal(t, order.ID, orders[0].ID)
	}
	mine, err := s.OrdersByUser(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	// A cart row that outgrew the stock fails checkout and leaves stock untouched.
	require.NoError(t, s.SetCartItem(ctx, buyer, &models.CartItem{
		ProductID: shawl.ID, Quantity: 2, Price: shawl.Price, Name: shawl.Name,
		ArtisanID: artisanA, AddedAt: time.Now().UTC(),
	}))
	_, err = market.CreateOrder(ctx, buyer, map[string]any{"city": "Jaipur"})
	require.Error(t, err)
	p, err = s.GetProduct(ctx, shawl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestMySQL_AuctionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	suffix := runSuffix()
	artisan, bidder := "artisan-"+suffix, "bidder-"+suffix

	clock := time.Now().UTC().Truncate(time.Microsecond)
	market := marketplace.New(s, marketplace.WithClock(func() time.Time { return clock }))

	piece, err := market.SubmitAuctionPiece(ctx, artisan, marketplace.AuctionSubmission{Title: "Kantha quilt"})
	require.NoError(t, err)

	stored, err := s.GetAuctionPiece(ctx, piece.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionPendingValuation, stored.Status)
	assert.True(t, stored.EndTime.IsZero())
	assert.Nil(t, stored.CurrentHighestBid)
	assert.Nil(t, stored.ClosedAt)

	end := clock.Add(time.Hour)
	_, err = market.AppraiseAuctionPiece(ctx, piece.ID, 500000, end, true)
	require.NoError(t, err)

	_, err = market.PlaceBid(ctx, piece.ID, bidder, 520000)
	require.NoError(t, err)

	stored, err = s.GetAuctionPiece(ctx, piece.ID)
	require.NoError(t, err)
	assert.True(t, end.Equal(stored.EndTime), "end time %v", stored.EndTime)
	require.NotNil(t, stored.CurrentHighestBid)
	assert.Equal(t, int64(520000), *stored.CurrentHighestBid)
	assert.Equal(t, 1, stored.BidCount)

	live, err := s.ListAuctionPieces(ctx, models.AuctionLive)
	require.NoError(t, err)
	var listed bool
	for _, p := range live {
		listed = listed || p.ID == piece.ID
	}
	assert.True(t, listed)

	clock = end.Add(time.Minute)
	closed, err := market.CloseAuction(ctx, piece.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionSold, closed.Status)

	stored, err = s.GetAuctionPiece(ctx, piece.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionSold, stored.Status)
	require.NotNil(t, stored.WinningBidderID)
	assert.Equal(t, bidder, *stored.WinningBidderID)
	require.NotNil(t, stored.ClosedAt)
}

func TestMySQL_FunctionErrorIsReturned(t *testing.T) {
	s := newTestStore(t)
	sentinel := errors.New("stock too low")

	err := s.RunTransaction(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = s.GetProduct(context.Background(), "missing-"+runSuffix())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
