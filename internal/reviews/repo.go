package reviews

import (
	"context"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Insert(ctx context.Context, rv *Review) error {
	rv.CreatedAt = time.Now().UTC()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO reviews (id, book_id, user_id, user_name, rating, title, text, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rv.ID, rv.BookID, rv.UserID, rv.UserName, rv.Rating, rv.Title, rv.Text, rv.CreatedAt)
	return err
}

func (r *Repo) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, book_id, user_id, user_name, rating, title, text, created_at
		FROM reviews WHERE book_id=$1 ORDER BY created_at DESC`, bookID)
	if postgres.IsMissing(err) {
		return []Review{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Title, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	// a malformed book id surfaces here as 22P02
	if err := rows.Err(); err != nil && !postgres.IsMissing(err) {
		return nil, err
	}
	return out, nil
}

// Aggregate returns 0, 0 for a book without reviews.
func (r *Repo) Aggregate(ctx context.Context, bookID string) (avg float64, count int64, err error) {
	err = r.DB.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE book_id=$1`, bookID).
		Scan(&avg, &count)
	if postgres.IsMissing(err) {
		return 0, 0, nil
	}
	return avg, count, err
}
