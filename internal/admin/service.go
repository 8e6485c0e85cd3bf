// Package admin aggregates counts across the marketplace for the admin console.
package admin

import (
	"context"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"golang.org/x/sync/errgroup"
)

type Accounts interface {
	Count(ctx context.Context, role auth.Role) (int64, error)
	List(ctx context.Context, role auth.Role) ([]accounts.Account, error)
}

type Books interface {
	Count(ctx context.Context) (int64, error)
	CountBySeller(ctx context.Context) (map[string]int64, error)
}

type Orders interface {
	Count(ctx context.Context) (int64, error)
}

type Service struct {
	Accounts Accounts
	Books    Books
	Orders   Orders
}

type Stats struct {
	Users   int64 `json:"users"`
	Sellers int64 `json:"sellers"`
	Books   int64 `json:"books"`
	Orders  int64 `json:"orders"`
}

type Seller struct {
	accounts.Account
	TotalBooks int64 `json:"totalBooks"`
}

// Stats runs the four counts concurrently; nothing is cached.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.Users, err = s.Accounts.Count(ctx, auth.RoleUser); return })
	g.Go(func() (err error) { st.Sellers, err = s.Accounts.Count(ctx, auth.RoleSeller); return })
	g.Go(func() (err error) { st.Books, err = s.Books.Count(ctx); return })
	g.Go(func() (err error) { st.Orders, err = s.Orders.Count(ctx); return })
	if err := g.Wait(); err != nil {
		return Stats{}, apperr.Internal("failed to load stats", err)
	}
	return st, nil
}

// Sellers lists sellers with their book count joined in memory.
func (s *Service) Sellers(ctx context.Context) ([]Seller, error) {
	var (
		list   []accounts.Account
		counts map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { list, err = s.Accounts.List(gctx, auth.RoleSeller); return })
	g.Go(func() (err error) { counts, err = s.Books.CountBySeller(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal("failed to load sellers", err)
	}

	out := make([]Seller, 0, len(list))
	for _, a := range list {
		out = append(out, Seller{Account: a, TotalBooks: counts[a.ID]})
	}
	return out, nil
}
