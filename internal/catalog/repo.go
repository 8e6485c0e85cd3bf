package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const bookCols = "id, title, author, genres, description, price, item_image, pages, " +
	"stock_status, stock_count, seller_id, seller_name, created_at, updated_at"

var errBookNotFound = apperr.NotFound("book not found")

type scanner interface{ Scan(dest ...any) error }

func scanBook(row scanner, b *Book, extra ...any) error {
	dest := []any{&b.ID, &b.Title, &b.Author, &b.Genres, &b.Description, &b.Price, &b.ItemImage, &b.Pages,
		&b.StockStatus, &b.StockCount, &b.SellerID, &b.SellerName, &b.CreatedAt, &b.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func collectBooks(rows pgx.Rows, err error) ([]Book, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Book, error) {
	q := postgres.QB.Select(bookCols).From("books").OrderBy("created_at DESC")
	if f.Genre != "" {
		q = q.Where("? = ANY(genres)", f.Genre)
	}
	if len(f.SellerIDs) > 0 {
		q = q.Where(sq.Eq{"seller_id": f.SellerIDs})
	}
	if f.InStockOnly {
		q = q.Where(sq.Eq{"stock_status": InStock})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return collectBooks(r.DB.Query(ctx, query, args...))
}

func (r *Repo) Get(ctx context.Context, id string) (Book, error) {
	var b Book
	err := scanBook(r.DB.QueryRow(ctx, `SELECT `+bookCols+` FROM books WHERE id=$1`, id), &b)
	if postgres.IsMissing(err) {
		return Book{}, errBookNotFound
	}
	return b, err
}

func (r *Repo) Create(ctx context.Context, b *Book) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx, `
		INSERT INTO books (`+bookCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		b.ID, b.Title, b.Author, b.Genres, b.Description, b.Price, b.ItemImage, b.Pages,
		b.StockStatus, b.StockCount, b.SellerID, b.SellerName, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *Repo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	set := p.fields()
	set["updated_at"] = time.Now().UTC()
	query, args, err := postgres.QB.Update("books").SetMap(set).
		Where(sq.Eq{"id": id}).Suffix("RETURNING " + bookCols).ToSql()
	if err != nil {
		return Book{}, err
	}
	var b Book
	err = scanBook(r.DB.QueryRow(ctx, query, args...), &b)
	if postgres.IsMissing(err) {
		return Book{}, errBookNotFound
	}
	return b, err
}

func (r *Repo) SetStock(ctx context.Context, id string, s StockStatus) (Book, error) {
	var b Book
	err := scanBook(r.DB.QueryRow(ctx, `
		UPDATE books SET stock_status=$2, stock_count=$3, updated_at=now()
		WHERE id=$1 RETURNING `+bookCols, id, s, s.Count()), &b)
	if postgres.IsMissing(err) {
		return Book{}, errBookNotFound
	}
	return b, err
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if postgres.IsMissing(err) {
		return errBookNotFound
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errBookNotFound
	}
	return nil
}

// Search matches q as a literal substring of title or author.
func (r *Repo) Search(ctx context.Context, q string, limit int) ([]Book, error) {
	pattern := "%" + likeEscaper.Replace(q) + "%"
	return collectBooks(r.DB.Query(ctx, `
		SELECT `+bookCols+` FROM books
		WHERE title ILIKE $1 OR author ILIKE $1
		ORDER BY title LIMIT $2`, pattern, limit))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// TopRated ranks reviewed books that still exist.
func (r *Repo) TopRated(ctx context.Context, limit int) ([]TopBook, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+postgres.Prefixed("b", bookCols)+`, s.avg_rating, s.review_count
		FROM (
			SELECT book_id, AVG(rating)::float8 AS avg_rating, COUNT(*) AS review_count
			FROM reviews GROUP BY book_id
		) s
		JOIN books b ON b.id = s.book_id
		ORDER BY s.avg_rating DESC, s.review_count DESC, b.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopBook{}
	for rows.Next() {
		var t TopBook
		if err := scanBook(rows, &t.Book, &t.AvgRating, &t.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) HasReviews(ctx context.Context) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews)`).Scan(&ok)
	return ok, err
}

func (r *Repo) Newest(ctx context.Context, limit int) ([]Book, error) {
	return collectBooks(r.DB.Query(ctx,
		`SELECT `+bookCols+` FROM books ORDER BY created_at DESC LIMIT $1`, limit))
}

// CountBySeller groups book counts by seller id; sellers without books are absent.
func (r *Repo) CountBySeller(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.Query(ctx, `SELECT seller_id::text, COUNT(*) FROM books GROUP BY seller_id`)
	if err != nil {
		return nil, fmt.Errorf("count books by seller: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}
