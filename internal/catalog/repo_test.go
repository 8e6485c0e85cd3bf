//go:build integration

package catalog

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres/pgtest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBook(t *testing.T, r *Repo, title string, stock StockStatus) Book {
	t.Helper()
	b := Book{
		ID: uuid.NewString(), Title: title, Author: "R. K. Narayan", Genres: []string{"fiction"},
		Price: decimal.NewFromInt(200), StockStatus: stock, StockCount: stock.Count(), SellerID: uuid.NewString(),
	}
	require.NoError(t, r.Create(context.Background(), &b))
	return b
}

func review(t *testing.T, db *pgxpool.Pool, bookID string, rating int) {
	t.Helper()
	_, err := db.Exec(context.Background(), `
		INSERT INTO reviews (id, book_id, user_id, user_name, rating, text)
		VALUES ($1, $2, $3, 'Asha', $4, 'fine')`, uuid.NewString(), bookID, uuid.NewString(), rating)
	require.NoError(t, err)
}

func TestRepoTopRatedSkipsDeletedBooks(t *testing.T) {
	ctx := context.Background()
	db := pgtest.New(t)
	r := &Repo{DB: db}
	svc := &Service{Store: r}

	newest := createBook(t, r, "Swami and Friends", InStock)
	top, err := svc.TopBooks(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, newest.ID, top[0].ID, "newest books stand in before any review")

	rated := createBook(t, r, "The Guide", InStock)
	review(t, db, rated.ID, 5)
	review(t, db, rated.ID, 4)

	top, err = svc.TopBooks(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, rated.ID, top[0].ID)
	assert.InDelta(t, 4.5, top[0].AvgRating, 0.001)
	assert.Equal(t, int64(2), top[0].ReviewCount)

	require.NoError(t, r.Delete(ctx, rated.ID))
	has, err := r.HasReviews(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	top, err = svc.TopBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestRepoListAndSearch(t *testing.T) {
	ctx := context.Background()
	r := &Repo{DB: pgtest.New(t)}

	in := createBook(t, r, "100% Pure", InStock)
	createBook(t, r, "1000 Nights", OutOfStock)

	all, err := r.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stocked, err := r.List(ctx, Filter{InStockOnly: true})
	require.NoError(t, err)
	require.Len(t, stocked, 1)
	assert.Equal(t, in.ID, stocked[0].ID)

	found, err := r.Search(ctx, "0%", SearchLimit)
	require.NoError(t, err)
	require.Len(t, found, 1, "percent matches literally")
	assert.Equal(t, in.ID, found[0].ID)

	_, err = r.Get(ctx, "not-a-uuid")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
