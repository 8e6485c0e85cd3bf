package cart

import (
	"context"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	errCartNotFound = apperr.NotFound("cart not found")
	errLineNotFound = apperr.NotFound("item not in cart")
)

func (r *Repo) Lines(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.book_id, i.title, i.author, i.item_image, i.price, i.quantity
		FROM cart_items i JOIN carts c ON c.id = i.cart_id
		WHERE c.user_id = $1
		ORDER BY i.position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.BookID, &l.Title, &l.Author, &l.ItemImage, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Add creates the cart on first use and either appends the line or bumps its quantity,
// all in one statement.
func (r *Repo) Add(ctx context.Context, userID string, l Line) error {
	_, err := r.DB.Exec(ctx, `
		WITH c AS (
			INSERT INTO carts (id, user_id) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
			RETURNING id
		)
		INSERT INTO cart_items (cart_id, book_id, title, author, item_image, price, quantity)
		SELECT c.id, $3, $4, $5, $6, $7, $8 FROM c
		ON CONFLICT (cart_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		uuid.NewString(), userID, l.BookID, l.Title, l.Author, l.ItemImage, l.Price, l.Quantity)
	return err
}

func (r *Repo) SetQuantity(ctx context.Context, userID, bookID string, qty int) error {
	var cartID string
	err := r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&cartID)
	if postgres.IsMissing(err) {
		return errCartNotFound
	}
	if err != nil {
		return err
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE cart_items SET quantity=$3 WHERE cart_id=$1 AND book_id=$2`, cartID, bookID, qty)
	if postgres.IsMissing(err) {
		return errLineNotFound
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errLineNotFound
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, bookID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items i USING carts c
		WHERE c.id = i.cart_id AND c.user_id = $1 AND i.book_id = $2`, userID, bookID)
	if postgres.IsMissing(err) {
		return nil
	}
	return err
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items i USING carts c
		WHERE c.id = i.cart_id AND c.user_id = $1`, userID)
	return err
}

func (r *Repo) WishItems(ctx context.Context, userID string) ([]WishItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.book_id, i.title, i.author, i.item_image, i.price
		FROM wishlist_items i JOIN wishlists w ON w.id = i.wishlist_id
		WHERE w.user_id = $1
		ORDER BY i.position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []WishItem{}
	for rows.Next() {
		var w WishItem
		if err := rows.Scan(&w.BookID, &w.Title, &w.Author, &w.ItemImage, &w.Price); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// AddWish is a no-op when the book is already on the list.
func (r *Repo) AddWish(ctx context.Context, userID string, w WishItem) error {
	_, err := r.DB.Exec(ctx, `
		WITH wl AS (
			INSERT INTO wishlists (id, user_id) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
			RETURNING id
		)
		INSERT INTO wishlist_items (wishlist_id, book_id, title, author, item_image, price)
		SELECT wl.id, $3, $4, $5, $6, $7 FROM wl
		ON CONFLICT (wishlist_id, book_id) DO NOTHING`,
		uuid.NewString(), userID, w.BookID, w.Title, w.Author, w.ItemImage, w.Price)
	return err
}

func (r *Repo) RemoveWish(ctx context.Context, userID, bookID string) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM wishlist_items i USING wishlists w
		WHERE w.id = i.wishlist_id AND w.user_id = $1 AND i.book_id = $2`, userID, bookID)
	if postgres.IsMissing(err) {
		return nil
	}
	return err
}
