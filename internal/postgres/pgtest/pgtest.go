//go:build integration

// Package pgtest hands repository tests a migrated Postgres. TEST_POSTGRES_DSN points it
// at an existing database; otherwise one container is started per test binary and
// reaped by testcontainers when the binary exits. Run packages with -p 1 when they
// share a TEST_POSTGRES_DSN database.
package pgtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const tables = "users, sellers, admins, books, carts, cart_items, wishlists, wishlist_items, " +
	"orders, order_items, reviews, order_status_history"

var (
	once     sync.Once
	dsn      string
	setupErr error
)

// New returns a pool on an emptied, migrated database. The test is skipped under -short
// or when no database can be reached.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests skipped in -short mode")
	}
	once.Do(func() { dsn, setupErr = start() })
	if setupErr != nil {
		t.Skipf("postgres unavailable: %v", setupErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE "+tables+" CASCADE")
	require.NoError(t, err)
	return pool
}

func start() (string, error) {
	if v := os.Getenv("TEST_POSTGRES_DSN"); v != "" {
		return v, postgres.Migrate(v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bookstore"),
		tcpostgres.WithUsername("bookstore"),
		tcpostgres.WithPassword("bookstore"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return "", err
	}
	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", err
	}
	return url, postgres.Migrate(url)
}
