package reviews

import (
	"context"
	"math"
	"strings"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/catalog"
	"github.com/google/uuid"
)

type Store interface {
	Insert(ctx context.Context, rv *Review) error
	ListByBook(ctx context.Context, bookID string) ([]Review, error)
	Aggregate(ctx context.Context, bookID string) (float64, int64, error)
}

type Books interface {
	Get(ctx context.Context, id string) (catalog.Book, error)
}

type Service struct {
	Store Store
	Books Books
}

func (s *Service) Add(ctx context.Context, bookID, userID, userName string, in Input) (Review, error) {
	if in.Rating != math.Trunc(in.Rating) || in.Rating < 1 || in.Rating > 5 {
		return Review{}, apperr.Validation("rating must be a whole number from 1 to 5")
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Review{}, apperr.Validation("review text is required")
	}
	if _, err := s.Books.Get(ctx, bookID); err != nil {
		return Review{}, apperr.Wrap(err, "failed to add review")
	}

	rv := Review{
		ID:       uuid.NewString(),
		BookID:   bookID,
		UserID:   userID,
		UserName: userName,
		Rating:   int(in.Rating),
		Title:    strings.TrimSpace(in.Title),
		Text:     text,
	}
	if err := s.Store.Insert(ctx, &rv); err != nil {
		return Review{}, apperr.Internal("failed to add review", err)
	}
	return rv, nil
}

func (s *Service) List(ctx context.Context, bookID string) (Summary, error) {
	list, err := s.Store.ListByBook(ctx, bookID)
	if err != nil {
		return Summary{}, apperr.Internal("failed to load reviews", err)
	}
	avg, n, err := s.Store.Aggregate(ctx, bookID)
	if err != nil {
		return Summary{}, apperr.Internal("failed to load reviews", err)
	}
	return Summary{Reviews: list, AvgRating: avg, ReviewCount: n}, nil
}
