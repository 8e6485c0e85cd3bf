package catalog

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/google/uuid"
)

const (
	SearchLimit   = 8
	TopBooksLimit = 8
	minQueryLen   = 2
	minPages      = 100
)

type Store interface {
	List(ctx context.Context, f Filter) ([]Book, error)
	Get(ctx context.Context, id string) (Book, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, id string, p Patch) (Book, error)
	SetStock(ctx context.Context, id string, s StockStatus) (Book, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, limit int) ([]Book, error)
	TopRated(ctx context.Context, limit int) ([]TopBook, error)
	HasReviews(ctx context.Context) (bool, error)
	Newest(ctx context.Context, limit int) ([]Book, error)
	CountBySeller(ctx context.Context) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}

type Sellers interface {
	Get(ctx context.Context, role auth.Role, id string) (accounts.Account, error)
}

// Images stores an uploaded cover and returns its public URL.
type Images interface {
	Upload(ctx context.Context, folder, filename string, r io.Reader) (string, error)
}

// Image is an optional upload attached to a create or update.
type Image struct {
	Filename string
	Body     io.Reader
}

type Service struct {
	Store   Store
	Sellers Sellers
	Images  Images
}

func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	bs, err := s.Store.List(ctx, f)
	return bs, apperr.Wrap(err, "failed to load books")
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	b, err := s.Store.Get(ctx, id)
	return b, apperr.Wrap(err, "failed to load book")
}

// GetOwned loads a book and checks it belongs to sellerID.
func (s *Service) GetOwned(ctx context.Context, sellerID, id string) (Book, error) {
	b, err := s.Store.Get(ctx, id)
	if err != nil {
		return Book{}, apperr.Wrap(err, "failed to load book")
	}
	if b.SellerID != sellerID {
		return Book{}, apperr.Forbidden("book belongs to another seller")
	}
	return b, nil
}

func (s *Service) Search(ctx context.Context, q string) ([]Book, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < minQueryLen {
		return []Book{}, nil
	}
	bs, err := s.Store.Search(ctx, q, SearchLimit)
	return bs, apperr.Wrap(err, "search failed")
}

// TopBooks ranks by rating. The newest books stand in only while no review exists at
// all; reviews that point only at deleted books yield an empty list.
func (s *Service) TopBooks(ctx context.Context) ([]TopBook, error) {
	top, err := s.Store.TopRated(ctx, TopBooksLimit)
	if err != nil {
		return nil, apperr.Internal("failed to load top books", err)
	}
	if len(top) > 0 {
		return top, nil
	}
	reviewed, err := s.Store.HasReviews(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to load top books", err)
	}
	if reviewed {
		return []TopBook{}, nil
	}
	newest, err := s.Store.Newest(ctx, TopBooksLimit)
	if err != nil {
		return nil, apperr.Internal("failed to load top books", err)
	}
	out := make([]TopBook, 0, len(newest))
	for _, b := range newest {
		out = append(out, TopBook{Book: b})
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, sellerID string, nb NewBook, img *Image) (Book, error) {
	nb.Title, nb.Author = strings.TrimSpace(nb.Title), strings.TrimSpace(nb.Author)
	nb.Genres = cleanGenres(nb.Genres)
	if nb.Title == "" || nb.Author == "" || nb.Price == nil || len(nb.Genres) == 0 {
		return Book{}, apperr.Validation("title, author, price and at least one genre are required")
	}
	if nb.Price.IsNegative() {
		return Book{}, apperr.Validation("price must be >= 0")
	}
	if err := checkPages(nb.Pages); err != nil {
		return Book{}, err
	}

	seller, err := s.Sellers.Get(ctx, auth.RoleSeller, sellerID)
	if err != nil {
		return Book{}, apperr.Wrap(err, "failed to create book")
	}

	b := Book{
		ID:          uuid.NewString(),
		Title:       nb.Title,
		Author:      nb.Author,
		Genres:      nb.Genres,
		Description: strings.TrimSpace(nb.Description),
		Price:       nb.Price.Round(2),
		Pages:       nb.Pages,
		StockStatus: InStock,
		StockCount:  InStock.Count(),
		SellerID:    seller.ID,
		SellerName:  seller.Name,
	}
	if img != nil {
		url, err := s.Images.Upload(ctx, sellerFolder(sellerID), img.Filename, img.Body)
		if err != nil {
			return Book{}, apperr.Internal("image upload failed", err)
		}
		b.ItemImage = url
	}
	if err := s.Store.Create(ctx, &b); err != nil {
		return Book{}, apperr.Internal("failed to create book", err)
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, sellerID, id string, p Patch, img *Image) (Book, error) {
	if _, err := s.GetOwned(ctx, sellerID, id); err != nil {
		return Book{}, err
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Book{}, apperr.Validation("title cannot be empty")
	}
	if p.Author != nil && strings.TrimSpace(*p.Author) == "" {
		return Book{}, apperr.Validation("author cannot be empty")
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return Book{}, apperr.Validation("price must be >= 0")
		}
		rounded := p.Price.Round(2)
		p.Price = &rounded
	}
	if p.Genres != nil {
		if p.Genres = cleanGenres(p.Genres); len(p.Genres) == 0 {
			return Book{}, apperr.Validation("at least one genre is required")
		}
	}
	if err := checkPages(p.Pages); err != nil {
		return Book{}, err
	}
	if img != nil {
		url, err := s.Images.Upload(ctx, sellerFolder(sellerID), img.Filename, img.Body)
		if err != nil {
			return Book{}, apperr.Internal("image upload failed", err)
		}
		p.ItemImage = &url
	}
	if p.empty() {
		return s.Get(ctx, id)
	}
	b, err := s.Store.Update(ctx, id, p)
	return b, apperr.Wrap(err, "failed to update book")
}

// SetStock is the unscoped admin variant.
func (s *Service) SetStock(ctx context.Context, id, status string) (Book, error) {
	st, ok := ParseStockStatus(status)
	if !ok {
		return Book{}, apperr.Validation("status must be IN_STOCK or OUT_OF_STOCK")
	}
	b, err := s.Store.SetStock(ctx, id, st)
	return b, apperr.Wrap(err, "failed to update stock")
}

func (s *Service) SetStockOwned(ctx context.Context, sellerID, id, status string) (Book, error) {
	if _, ok := ParseStockStatus(status); !ok {
		return Book{}, apperr.Validation("status must be IN_STOCK or OUT_OF_STOCK")
	}
	if _, err := s.GetOwned(ctx, sellerID, id); err != nil {
		return Book{}, err
	}
	return s.SetStock(ctx, id, status)
}

// Delete is the unscoped admin variant.
func (s *Service) Delete(ctx context.Context, id string) error {
	return apperr.Wrap(s.Store.Delete(ctx, id), "failed to delete book")
}

func (s *Service) DeleteOwned(ctx context.Context, sellerID, id string) error {
	if _, err := s.GetOwned(ctx, sellerID, id); err != nil {
		return err
	}
	return s.Delete(ctx, id)
}

func (s *Service) CountBySeller(ctx context.Context) (map[string]int64, error) {
	return s.Store.CountBySeller(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Store.Count(ctx)
}

// ParseGenres accepts a JSON array (`["a","b"]`) or a comma-separated list.
func ParseGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &list) == nil {
		return cleanGenres(list)
	}
	return cleanGenres(strings.Split(raw, ","))
}

func cleanGenres(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, g := range in {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

func checkPages(p *int) error {
	if p != nil && *p < minPages {
		return apperr.Validation("pages must be >= %d", minPages)
	}
	return nil
}

func sellerFolder(sellerID string) string { return "bookstore/sellers/" + sellerID }
