package orders

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = "id, user_id, seller_id, flatno, pincode, city, state, total_amount, status, " +
	"booking_date, delivery_date, created_at, updated_at"

var (
	errOrderNotFound  = apperr.NotFound("order not found")
	errNotCancellable = apperr.Validation("order can no longer be cancelled")
)

type scanner interface{ Scan(dest ...any) error }

func scanOrder(row scanner, o *Order, extra ...any) error {
	dest := []any{&o.ID, &o.UserID, &o.SellerID, &o.Flatno, &o.Pincode, &o.City, &o.State,
		&o.TotalAmount, &o.Status, &o.BookingDate, &o.DeliveryDate, &o.CreatedAt, &o.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

// Insert writes the order and its items; when clearCartOf is set the buyer's cart is
// emptied in the same transaction.
func (r *Repo) Insert(ctx context.Context, o *Order, clearCartOf string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = scanOrder(tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, seller_id, flatno, pincode, city, state, total_amount, status,
		                    booking_date, delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING `+orderCols,
		o.ID, o.UserID, o.SellerID, o.Flatno, o.Pincode, o.City, o.State, o.TotalAmount, o.Status,
		o.BookingDate, o.DeliveryDate), o)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, book_id, title, price, quantity, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, i, it.BookID, it.Title, it.Price, it.Quantity, it.Subtotal); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if clearCartOf != "" {
		if _, err := tx.Exec(ctx, `
			DELETE FROM cart_items i USING carts c
			WHERE c.id = i.cart_id AND c.user_id = $1`, clearCartOf); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id), &o)
	if postgres.IsMissing(err) {
		return Order{}, errOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if postgres.IsMissing(err) {
		return []Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	ids := []string{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func (r *Repo) items(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	out := map[string][]Item{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id::text, book_id, title, price, quantity, subtotal
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var it Item
		if err := rows.Scan(&id, &it.BookID, &it.Title, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		out[id] = append(out[id], it)
	}
	return out, rows.Err()
}

// ListBySeller returns the latest orders of a seller with buyer contact and the live
// state of each ordered book, plus the seller's total order count.
func (r *Repo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]SellerOrder, int64, error) {
	var total int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE seller_id=$1`, sellerID).Scan(&total); err != nil {
		if postgres.IsMissing(err) {
			return []SellerOrder{}, 0, nil
		}
		return nil, 0, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT `+postgres.Prefixed("o", orderCols)+`, u.name, u.email, u.phone
		FROM orders o LEFT JOIN users u ON u.id = o.user_id
		WHERE o.seller_id = $1
		ORDER BY o.created_at DESC LIMIT $2`, sellerID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []SellerOrder{}
	ids := []string{}
	for rows.Next() {
		var so SellerOrder
		var name, email, phone *string
		if err := scanOrder(rows, &so.Order, &name, &email, &phone); err != nil {
			return nil, 0, err
		}
		if name != nil {
			so.Buyer = &Buyer{Name: *name, Email: deref(email), Phone: deref(phone)}
		}
		out = append(out, so)
		ids = append(ids, so.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.sellerItems(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
		for _, si := range out[i].Items {
			out[i].Order.Items = append(out[i].Order.Items, si.Item)
		}
	}
	return out, total, nil
}

func (r *Repo) sellerItems(ctx context.Context, orderIDs []string) (map[string][]SellerItem, error) {
	out := map[string][]SellerItem{}
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `
		SELECT i.order_id::text, i.book_id, i.title, i.price, i.quantity, i.subtotal,
		       b.title, b.item_image, b.price
		FROM order_items i LEFT JOIN books b ON b.id = i.book_id
		WHERE i.order_id = ANY($1::uuid[])
		ORDER BY i.order_id, i.position`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var si SellerItem
		var title, image *string
		var price decimal.NullDecimal
		if err := rows.Scan(&id, &si.BookID, &si.Title, &si.Price, &si.Quantity, &si.Subtotal,
			&title, &image, &price); err != nil {
			return nil, err
		}
		if title != nil {
			si.Book = &LiveBook{Title: *title, ItemImage: deref(image), Price: price.Decimal}
		}
		out[id] = append(out[id], si)
	}
	return out, rows.Err()
}

// SetStatus writes status unconditionally.
func (r *Repo) SetStatus(ctx context.Context, id string, s Status) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING `+orderCols, id, s), &o)
	if postgres.IsMissing(err) {
		return Order{}, errOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return r.withItems(ctx, o)
}

// Cancel moves a buyer's own order to CANCELLED only while it is still cancellable;
// the guard is part of the UPDATE so a concurrent ship cannot slip in between.
func (r *Repo) Cancel(ctx context.Context, userID, id string) (Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND user_id=$2 AND status = ANY($4)
		RETURNING `+orderCols, id, userID, StatusCancelled, cancellable()), &o)
	if err == nil {
		return r.withItems(ctx, o)
	}
	if !postgres.IsMissing(err) {
		return Order{}, err
	}

	var st Status
	err = r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 AND user_id=$2`, id, userID).Scan(&st)
	if postgres.IsMissing(err) {
		return Order{}, errOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return Order{}, errNotCancellable
}

func (r *Repo) withItems(ctx context.Context, o Order) (Order, error) {
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// SellerStats counts orders that contain any of the seller's current books and sums
// the delivered ones.
func (r *Repo) SellerStats(ctx context.Context, sellerID string) (SellerStats, error) {
	var st SellerStats
	err := r.DB.QueryRow(ctx, `
		WITH mine AS (
			SELECT DISTINCT o.id, o.status, o.total_amount
			FROM orders o
			JOIN order_items i ON i.order_id = o.id
			JOIN books b ON b.id = i.book_id
			WHERE b.seller_id = $1
		)
		SELECT
			(SELECT COUNT(*) FROM books WHERE seller_id = $1),
			(SELECT COUNT(*) FROM mine),
			(SELECT COALESCE(SUM(total_amount), 0) FROM mine WHERE status = $2)`,
		sellerID, StatusDelivered).Scan(&st.Books, &st.Orders, &st.Revenue)
	if err != nil {
		return SellerStats{}, fmt.Errorf("seller stats: %w", err)
	}
	return st, nil
}

func (r *Repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

// History reads the status log written by the orderlog consumer.
func (r *Repo) History(ctx context.Context, orderID string) ([]HistoryEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT event_id, order_id, status, actor_role, occurred_at
		FROM order_status_history WHERE order_id=$1 ORDER BY occurred_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.EventID, &h.OrderID, &h.Status, &h.ActorRole, &h.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
