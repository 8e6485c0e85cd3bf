package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/ariefcatur/go-bookstore.git/internal/cart"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	"github.com/ariefcatur/go-bookstore.git/internal/reviews"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Profiles interface {
	Profile(ctx context.Context, userID string) (accounts.User, error)
	UpdateProfile(ctx context.Context, userID string, p accounts.ProfileUpdate) (accounts.User, error)
}

// Shelf is the read side of the catalog shown to buyers.
type Shelf interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Book, error)
	Get(ctx context.Context, id string) (catalog.Book, error)
	Search(ctx context.Context, q string) ([]catalog.Book, error)
	TopBooks(ctx context.Context) ([]catalog.TopBook, error)
}

type Reviewer interface {
	Add(ctx context.Context, bookID, userID, userName string, in reviews.Input) (reviews.Review, error)
	List(ctx context.Context, bookID string) (reviews.Summary, error)
}

type Carts interface {
	Lines(ctx context.Context, userID string) ([]cart.Line, error)
	Add(ctx context.Context, userID, bookID string, qty int) error
	SetQuantity(ctx context.Context, userID, bookID string, qty int) error
	Remove(ctx context.Context, userID, bookID string) error
	Clear(ctx context.Context, userID string) error
	Wishlist(ctx context.Context, userID string) ([]cart.WishItem, error)
	AddWish(ctx context.Context, userID, bookID string) error
	RemoveWish(ctx context.Context, userID, bookID string) error
}

type Checkout interface {
	CreateFromCart(ctx context.Context, userID, idemKey string) (orders.Placed, error)
	BuyNow(ctx context.Context, userID, bookID string, qty int, idemKey string) (orders.Placed, error)
	ListMine(ctx context.Context, userID string) ([]orders.Order, error)
	GetMine(ctx context.Context, userID, id string) (orders.Order, error)
	Cancel(ctx context.Context, userID, id string) (orders.Order, error)
	HistoryForUser(ctx context.Context, userID, id string) ([]orders.HistoryEntry, error)
}

type UserHandler struct {
	Tokens   TokenVerifier
	Profiles Profiles
	Books    Shelf
	Reviews  Reviewer
	Carts    Carts
	Orders   Checkout
	Log      logrus.FieldLogger
}

type reviewReq struct {
	Rating float64 `json:"rating"`
	Title  string  `json:"title"`
	Text   string  `json:"text"`
}

type cartAddReq struct {
	BookID   string `json:"bookId" validate:"required"`
	Quantity *int   `json:"quantity"`
}

type quantityReq struct {
	Quantity *int `json:"quantity"`
}

type wishReq struct {
	BookID string `json:"bookId" validate:"required"`
}

func (h *UserHandler) Register(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Get("/books", h.listBooks)
		r.Get("/books/{id}", h.getBook)
		r.Get("/top-books", h.topBooks)
		r.Get("/search", h.search)
		r.Get("/books/{id}/reviews", h.listReviews)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(h.Tokens, auth.RoleUser))

			r.Get("/profile", h.profile)
			r.Put("/profile", h.updateProfile)
			r.Post("/books/{id}/reviews", h.addReview)

			r.Get("/cart", h.cart)
			r.Post("/cart", h.addToCart)
			r.Delete("/cart", h.clearCart)
			r.Patch("/cart/{bookId}", h.updateCartItem)
			r.Delete("/cart/{bookId}", h.removeCartItem)

			r.Get("/wishlist", h.wishlist)
			r.Post("/wishlist", h.addToWishlist)
			r.Delete("/wishlist/{bookId}", h.removeFromWishlist)

			r.Post("/orders/from-cart", h.createFromCart)
			r.Post("/orders/buy-now/{bookId}", h.buyNow)
			r.Get("/orders", h.myOrders)
			r.Get("/orders/{orderId}", h.myOrder)
			r.Get("/orders/{orderId}/history", h.orderHistory)
			r.Patch("/orders/{orderId}/cancel", h.cancelOrder)
		})
	})
}

func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.Log, err)
}

// profile

func (h *UserHandler) profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Profiles.Profile(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req accounts.ProfileUpdate
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Profiles.UpdateProfile(ctx, identity(r).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// books

func (h *UserHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.List(ctx, catalog.Filter{Genre: r.URL.Query().Get("genre"), InStockOnly: true})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *UserHandler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.Get(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (h *UserHandler) topBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.TopBooks(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// search answers with a bare array, empty on failure.
func (h *UserHandler) search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	books, err := h.Books.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		h.Log.WithError(err).Warn("search failed")
		writeJSON(w, http.StatusInternalServerError, []catalog.Book{})
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// reviews

func (h *UserHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sum, err := h.Reviews.List(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *UserHandler) addReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reviewReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	me := identity(r)
	rv, err := h.Reviews.Add(ctx, id, me.ID, me.Name, reviews.Input{Rating: req.Rating, Title: req.Title, Text: req.Text})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"review": rv})
}

// cart

func (h *UserHandler) cart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Carts.Lines(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines})
}

func (h *UserHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req cartAddReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkID(req.BookID, "book"); err != nil {
		h.fail(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Add(ctx, identity(r).ID, req.BookID, qty); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Added to cart"})
}

func (h *UserHandler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := idParam(r, "bookId", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req quantityReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Quantity == nil || *req.Quantity < 1 {
		h.fail(w, r, apperr.Validation("quantity must be >= 1"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.SetQuantity(ctx, identity(r).ID, bookID, *req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Cart updated"})
}

func (h *UserHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := idParam(r, "bookId", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Remove(ctx, identity(r).ID, bookID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Item removed"})
}

func (h *UserHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, identity(r).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Cart cleared"})
}

// wishlist

func (h *UserHandler) wishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Carts.Wishlist(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *UserHandler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkID(req.BookID, "book"); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.AddWish(ctx, identity(r).ID, req.BookID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Added to wishlist"})
}

func (h *UserHandler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	bookID, err := idParam(r, "bookId", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.RemoveWish(ctx, identity(r).ID, bookID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Removed from wishlist"})
}

// orders

func (h *UserHandler) createFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Orders.CreateFromCart(ctx, identity(r).ID, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePlaced(w, res)
}

func (h *UserHandler) buyNow(w http.ResponseWriter, r *http.Request) {
	bookID, err := idParam(r, "bookId", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req quantityReq
	if err := decodeJSON(r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Orders.BuyNow(ctx, identity(r).ID, bookID, qty, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePlaced(w, res)
}

// writePlaced answers 201 for a new order and 200 when a retry replayed one.
func writePlaced(w http.ResponseWriter, res orders.Placed) {
	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	writeJSON(w, code, res.Order)
}

func (h *UserHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.ListMine(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UserHandler) myOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderId", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.GetMine(ctx, identity(r).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *UserHandler) orderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderId", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	hist, err := h.Orders.HistoryForUser(ctx, identity(r).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": hist})
}

func (h *UserHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderId", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, identity(r).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order cancelled", "order": o})
}
