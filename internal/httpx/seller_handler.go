package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadBytes = 10 << 20
	imageField     = "itemImage"
)

type SellerCatalog interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Book, error)
	GetOwned(ctx context.Context, sellerID, id string) (catalog.Book, error)
	Create(ctx context.Context, sellerID string, nb catalog.NewBook, img *catalog.Image) (catalog.Book, error)
	Update(ctx context.Context, sellerID, id string, p catalog.Patch, img *catalog.Image) (catalog.Book, error)
	SetStockOwned(ctx context.Context, sellerID, id, status string) (catalog.Book, error)
	DeleteOwned(ctx context.Context, sellerID, id string) error
}

type SellerOrders interface {
	ListForSeller(ctx context.Context, sellerID string) ([]orders.SellerOrder, int64, error)
	SetStatus(ctx context.Context, sellerID, id, status string) (orders.Order, error)
	HistoryForSeller(ctx context.Context, sellerID, id string) ([]orders.HistoryEntry, error)
	SellerStats(ctx context.Context, sellerID string) (orders.SellerStats, error)
}

type SellerHandler struct {
	Tokens TokenVerifier
	Books  SellerCatalog
	Orders SellerOrders
	Log    logrus.FieldLogger
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

type bookPatchReq struct {
	Title       *string          `json:"title"`
	Author      *string          `json:"author"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Pages       *int             `json:"pages"`
	Genres      []string         `json:"genres"`
}

func (h *SellerHandler) Register(r chi.Router) {
	r.Route("/seller", func(r chi.Router) {
		r.Use(RequireRole(h.Tokens, auth.RoleSeller))

		r.Post("/books", h.createBook)
		r.Get("/books", h.listBooks)
		r.Get("/books/{id}", h.getBook)
		r.Patch("/books/{id}", h.updateBook)
		r.Patch("/books/{id}/image", h.updateImage)
		r.Patch("/books/{id}/stock", h.setStock)
		r.Delete("/books/{id}", h.deleteBook)

		r.Get("/orders", h.listOrders)
		r.Patch("/orders/{id}/status", h.setOrderStatus)
		r.Get("/orders/{id}/history", h.orderHistory)
		r.Get("/stats", h.stats)
	})
}

func (h *SellerHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.Log, err)
}

// books

func (h *SellerHandler) createBook(w http.ResponseWriter, r *http.Request) {
	img, done, err := readMultipart(r)
	defer done()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	nb, err := newBookFromForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.Books.Create(ctx, identity(r).ID, nb, img)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Book created successfully", "book": b})
}

func (h *SellerHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.List(ctx, catalog.Filter{SellerIDs: []string{identity(r).ID}})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *SellerHandler) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Books.GetOwned(ctx, identity(r).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

// updateBook takes either a JSON patch or a multipart form that may carry a new cover.
func (h *SellerHandler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var (
		p   catalog.Patch
		img *catalog.Image
	)
	if isMultipart(r) {
		var done func()
		img, done, err = readMultipart(r)
		defer done()
		if err == nil {
			p, err = patchFromForm(r)
		}
	} else {
		var req bookPatchReq
		if err = decodeJSON(r, &req, false); err == nil {
			p = catalog.Patch{
				Title:       req.Title,
				Author:      req.Author,
				Price:       req.Price,
				Description: req.Description,
				Pages:       req.Pages,
				Genres:      req.Genres,
			}
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.Books.Update(ctx, identity(r).ID, id, p, img)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b, "message": "Book updated successfully"})
}

func (h *SellerHandler) updateImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	img, done, err := readMultipart(r)
	defer done()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if img == nil {
		h.fail(w, r, apperr.Validation("no image uploaded"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	b, err := h.Books.Update(ctx, identity(r).ID, id, catalog.Patch{}, img)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Image updated", "book": b})
}

func (h *SellerHandler) setStock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.SetStockOwned(ctx, identity(r).ID, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Stock updated", "book": b})
}

func (h *SellerHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Books.DeleteOwned(ctx, identity(r).ID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Book deleted"})
}

// orders

func (h *SellerHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, total, err := h.Orders.ListForSeller(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list, "total": total})
}

func (h *SellerHandler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusReq
	if err := decodeJSON(r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.SetStatus(ctx, identity(r).ID, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Status updated to " + string(o.Status),
		"orderId": o.ID,
		"status":  o.Status,
	})
}

func (h *SellerHandler) orderHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	hist, err := h.Orders.HistoryForSeller(ctx, identity(r).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": hist})
}

func (h *SellerHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Orders.SellerStats(ctx, identity(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// multipart helpers

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// readMultipart parses the form and opens the optional cover file. done
// releases the file and any spooled temp files and is always safe to call.
func readMultipart(r *http.Request) (*catalog.Image, func(), error) {
	done := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, done, apperr.Validation("invalid multipart form")
	}
	file, hdr, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, done, nil
	}
	if err != nil {
		return nil, done, apperr.Validation("invalid image upload")
	}
	return &catalog.Image{Filename: hdr.Filename, Body: file}, func() {
		_ = file.Close()
		done()
	}, nil
}

func formField(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vs, ok := r.MultipartForm.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func newBookFromForm(r *http.Request) (catalog.NewBook, error) {
	title, _ := formField(r, "title")
	author, _ := formField(r, "author")
	description, _ := formField(r, "description")
	genres, _ := formField(r, "genres")
	nb := catalog.NewBook{
		Title:       title,
		Author:      author,
		Description: description,
		Genres:      catalog.ParseGenres(genres),
	}
	if v, ok := formField(r, "price"); ok && strings.TrimSpace(v) != "" {
		price, err := parsePrice(v)
		if err != nil {
			return nb, err
		}
		nb.Price = &price
	}
	if v, ok := formField(r, "pages"); ok && strings.TrimSpace(v) != "" {
		pages, err := parsePages(v)
		if err != nil {
			return nb, err
		}
		nb.Pages = &pages
	}
	return nb, nil
}

func patchFromForm(r *http.Request) (catalog.Patch, error) {
	var p catalog.Patch
	str := func(key string) *string {
		if v, ok := formField(r, key); ok {
			return &v
		}
		return nil
	}
	p.Title, p.Author, p.Description = str("title"), str("author"), str("description")
	if v, ok := formField(r, "genres"); ok {
		if p.Genres = catalog.ParseGenres(v); p.Genres == nil {
			p.Genres = []string{}
		}
	}
	if v, ok := formField(r, "price"); ok {
		price, err := parsePrice(v)
		if err != nil {
			return p, err
		}
		p.Price = &price
	}
	if v, ok := formField(r, "pages"); ok {
		pages, err := parsePages(v)
		if err != nil {
			return p, err
		}
		p.Pages = &pages
	}
	return p, nil
}

func parsePrice(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Decimal{}, apperr.Validation("price must be a number")
	}
	return d, nil
}

func parsePages(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, apperr.Validation("pages must be a whole number")
	}
	return n, nil
}
