package cart

import (
	"context"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
)

type Store interface {
	Lines(ctx context.Context, userID string) ([]Line, error)
	Add(ctx context.Context, userID string, l Line) error
	SetQuantity(ctx context.Context, userID, bookID string, qty int) error
	Remove(ctx context.Context, userID, bookID string) error
	Clear(ctx context.Context, userID string) error

	WishItems(ctx context.Context, userID string) ([]WishItem, error)
	AddWish(ctx context.Context, userID string, w WishItem) error
	RemoveWish(ctx context.Context, userID, bookID string) error
}

type Books interface {
	Get(ctx context.Context, id string) (catalog.Book, error)
}

type Service struct {
	Store Store
	Books Books
}

func (s *Service) Lines(ctx context.Context, userID string) ([]Line, error) {
	ls, err := s.Store.Lines(ctx, userID)
	return ls, apperr.Wrap(err, "failed to load cart")
}

func (s *Service) Add(ctx context.Context, userID, bookID string, qty int) error {
	if qty < 1 {
		return apperr.Validation("quantity must be >= 1")
	}
	b, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return apperr.Wrap(err, "failed to add to cart")
	}
	err = s.Store.Add(ctx, userID, Line{
		BookID:    b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ItemImage: b.ItemImage,
		Price:     b.Price,
		Quantity:  qty,
	})
	return apperr.Wrap(err, "failed to add to cart")
}

func (s *Service) SetQuantity(ctx context.Context, userID, bookID string, qty int) error {
	if qty < 1 {
		return apperr.Validation("quantity must be >= 1")
	}
	return apperr.Wrap(s.Store.SetQuantity(ctx, userID, bookID, qty), "failed to update cart")
}

func (s *Service) Remove(ctx context.Context, userID, bookID string) error {
	return apperr.Wrap(s.Store.Remove(ctx, userID, bookID), "failed to remove item")
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return apperr.Wrap(s.Store.Clear(ctx, userID), "failed to clear cart")
}

func (s *Service) Wishlist(ctx context.Context, userID string) ([]WishItem, error) {
	ws, err := s.Store.WishItems(ctx, userID)
	return ws, apperr.Wrap(err, "failed to load wishlist")
}

func (s *Service) AddWish(ctx context.Context, userID, bookID string) error {
	b, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return apperr.Wrap(err, "failed to add to wishlist")
	}
	err = s.Store.AddWish(ctx, userID, WishItem{
		BookID:    b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ItemImage: b.ItemImage,
		Price:     b.Price,
	})
	return apperr.Wrap(err, "failed to add to wishlist")
}

func (s *Service) RemoveWish(ctx context.Context, userID, bookID string) error {
	return apperr.Wrap(s.Store.RemoveWish(ctx, userID, bookID), "failed to remove from wishlist")
}
