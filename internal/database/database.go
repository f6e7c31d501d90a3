// Package database is the MySQL implementation of store.Store.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schema string

// OpenDBWithDSN creates and configures a connection pool for dsn and
// verifies it with a ping. The DSN must set parseTime=true.
func OpenDBWithDSN(ctx context.Context, dsn string) (*sql.DB, error) {
	// 1. Validate the DSN before opening anything.
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	if !cfg.ParseTime {
		return nil, errors.New("mysql dsn must set parseTime=true")
	}

	// 2. Open a new connection pool.
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// 3. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 4. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// splitStatements breaks a schema file on semicolons. The schema holds no
// string literals containing ';'.
func splitStatements(sqlText string) []string {
	var out []string
	for _, part := range strings.Split(sqlText, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// DefaultMaxAttempts is how many times a transaction is run when MySQL
// reports a deadlock or lock wait timeout.
const DefaultMaxAttempts = 5

// Store implements store.Store on MySQL.
type Store struct {
	db          *sql.DB
	log         *zap.Logger
	maxAttempts int
}

// New wraps an open pool.
func New(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log, maxAttempts: DefaultMaxAttempts}
}

// Open connects to dsn, applies the schema and returns the store.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	db, err := OpenDBWithDSN(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db, log), nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// MySQL error numbers that mean "run the transaction again".
const (
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// isRetryable reports whether err is a transient lock conflict.
func isRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDeadlock || myErr.Number == errLockWaitTimeout
	}
	return false
}

// isDuplicate reports whether err is a primary key violation.
func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
