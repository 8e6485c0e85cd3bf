package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/admin"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	"github.com/ariefcatur/go-bookstore.git/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type AdminAccounts interface {
	ListUsers(ctx context.Context) ([]accounts.User, error)
	CreateAccount(ctx context.Context, role auth.Role, name, email, password string) (accounts.Account, error)
	Update(ctx context.Context, role auth.Role, id string, u accounts.AccountUpdate) (accounts.Account, error)
	Delete(ctx context.Context, role auth.Role, id string) error
}

type Dashboard interface {
	Stats(ctx context.Context) (admin.Stats, error)
	Sellers(ctx context.Context) ([]admin.Seller, error)
}

type AdminCatalog interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Book, error)
	SetStock(ctx context.Context, id, status string) (catalog.Book, error)
	Delete(ctx context.Context, id string) error
}

type OrderLookup interface {
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
}

type AdminHandler struct {
	Tokens    TokenVerifier
	Accounts  AdminAccounts
	Dashboard Dashboard
	Books     AdminCatalog
	Orders    OrderLookup
	Log       logrus.FieldLogger
}

type accountReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type accountPatchReq struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireRole(h.Tokens, auth.RoleAdmin))

		r.Get("/stats", h.stats)

		r.Get("/users", h.listUsers)
		r.Post("/users", h.createAccount(auth.RoleUser))
		r.Patch("/users/{id}", h.updateAccount(auth.RoleUser))
		r.Delete("/users/{id}", h.deleteAccount(auth.RoleUser))
		r.Get("/users/{id}/orders", h.userOrders)

		r.Get("/sellers", h.listSellers)
		r.Post("/sellers", h.createAccount(auth.RoleSeller))
		r.Patch("/sellers/{id}", h.updateAccount(auth.RoleSeller))
		r.Delete("/sellers/{id}", h.deleteAccount(auth.RoleSeller))
		r.Get("/sellers/{id}/books", h.sellerBooks)

		r.Get("/books", h.listBooks)
		r.Patch("/books/{id}/stock", h.setStock)
		r.Delete("/books/{id}", h.deleteBook)
	})
}

func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.Log, err)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := h.Dashboard.Stats(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// accounts

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.Accounts.ListUsers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) listSellers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sellers, err := h.Dashboard.Sellers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sellers": sellers})
}

func (h *AdminHandler) createAccount(role auth.Role) http.HandlerFunc {
	noun, label := accountNoun(role)
	return func(w http.ResponseWriter, r *http.Request) {
		var req accountReq
		if err := decodeJSON(r, &req, false); err != nil {
			h.fail(w, r, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		a, err := h.Accounts.CreateAccount(ctx, role, req.Name, req.Email, req.Password)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"message": label + " created", noun: a})
	}
}

func (h *AdminHandler) updateAccount(role auth.Role) http.HandlerFunc {
	noun, label := accountNoun(role)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id", noun)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		var req accountPatchReq
		if err := decodeJSON(r, &req, false); err != nil {
			h.fail(w, r, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		a, err := h.Accounts.Update(ctx, role, id, accounts.AccountUpdate{Name: req.Name, Email: req.Email})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": label + " updated", noun: a})
	}
}

func (h *AdminHandler) deleteAccount(role auth.Role) http.HandlerFunc {
	noun, label := accountNoun(role)
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id", noun)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.Accounts.Delete(ctx, role, id); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, message{Message: label + " deleted"})
	}
}

func accountNoun(role auth.Role) (noun, label string) {
	if role == auth.RoleSeller {
		return "seller", "Seller"
	}
	return "user", "User"
}

func (h *AdminHandler) userOrders(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.ListByUser(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

// books

func (h *AdminHandler) sellerBooks(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "seller")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBooks(w, r, catalog.Filter{SellerIDs: []string{id}})
}

// listBooks filters by ?sellerId= or a comma-separated ?sellerIds=.
func (h *AdminHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var ids []string
	if v := strings.TrimSpace(q.Get("sellerId")); v != "" {
		ids = append(ids, v)
	}
	for _, v := range strings.Split(q.Get("sellerIds"), ",") {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	for _, id := range ids {
		if checkID(id, "seller") != nil {
			h.fail(w, r, apperr.Validation("invalid seller id %q", id))
			return
		}
	}
	h.writeBooks(w, r, catalog.Filter{SellerIDs: ids})
}

func (h *AdminHandler) writeBooks(w http.ResponseWriter, r *http.Request, f catalog.Filter) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.List(ctx, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (h *AdminHandler) setStock(w http.ResponseWriter, r *http.Request) {
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

	b, err := h.Books.SetStock(ctx, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Stock updated", "book": b})
}

func (h *AdminHandler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "book")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Books.Delete(ctx, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Book deleted"})
}
