package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/models"
	"github.com/01moynul/artisansloom-golang/internal/store"
)

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*tx)(nil)
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunTransaction runs fn in a serializable transaction whose reads lock
// their rows (SELECT ... FOR UPDATE). Deadlocks and lock wait timeouts
// restart fn; after the attempt budget store.ErrAborted is returned.
func (s *Store) RunTransaction(ctx context.Context, fn store.TxFunc) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		s.log.Debug("retrying transaction after lock conflict",
			zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return store.ErrAborted
}

func (s *Store) runOnce(ctx context.Context, fn store.TxFunc) (err error) {
	// 1. --- Begin ---
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Warn("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	// 2. --- Body ---
	if err = fn(ctx, &tx{ctx: ctx, q: sqlTx}); err != nil {
		return err
	}

	// 3. --- Commit ---
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx is the store.Tx view of a *sql.Tx.
type tx struct {
	ctx context.Context
	q   queryer
}

func (t *tx) GetProduct(id string) (*models.Product, error) {
	return getProduct(t.ctx, t.q, id, true)
}

func (t *tx) SetProduct(p *models.Product) error {
	return upsertProduct(t.ctx, t.q, p)
}

func (t *tx) GetOrder(id string) (*models.Order, error) {
	return getOrder(t.ctx, t.q, id, true)
}

func (t *tx) SetOrder(o *models.Order) error {
	return upsertOrder(t.ctx, t.q, o)
}

func (t *tx) GetAuctionPiece(id string) (*models.AuctionPiece, error) {
	return getAuctionPiece(t.ctx, t.q, id, true)
}

func (t *tx) SetAuctionPiece(a *models.AuctionPiece) error {
	return upsertAuctionPiece(t.ctx, t.q, a)
}

// forUpdate appends the row lock clause when locking is requested.
func forUpdate(query string, lock bool) string {
	if lock {
		return query + " FOR UPDATE"
	}
	return query
}
