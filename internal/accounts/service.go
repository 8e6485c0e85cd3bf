package accounts

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/google/uuid"
)

type Store interface {
	FindByEmail(ctx context.Context, role auth.Role, email string) (Account, error)
	Get(ctx context.Context, role auth.Role, id string) (Account, error)
	Create(ctx context.Context, role auth.Role, a *Account) error
	GetUser(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	List(ctx context.Context, role auth.Role) ([]Account, error)
	Update(ctx context.Context, role auth.Role, id string, u AccountUpdate) (Account, error)
	Delete(ctx context.Context, role auth.Role, id string) error
	Count(ctx context.Context, role auth.Role) (int64, error)
}

type Service struct {
	Store  Store
	Tokens *auth.Tokens
}

type Credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

func (s *Service) Signup(ctx context.Context, c Credentials) (AuthResult, error) {
	if strings.TrimSpace(c.Name) == "" || c.Email == "" || c.Password == "" || c.Role == "" {
		return AuthResult{}, apperr.Validation("all fields are required")
	}
	role, ok := auth.ParseRole(c.Role)
	if !ok {
		return AuthResult{}, apperr.Validation("invalid role")
	}
	a, err := s.CreateAccount(ctx, role, c.Name, c.Email, c.Password)
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(role, a)
}

func (s *Service) Login(ctx context.Context, c Credentials) (AuthResult, error) {
	if c.Email == "" || c.Password == "" || c.Role == "" {
		return AuthResult{}, apperr.Validation("all fields are required")
	}
	role, ok := auth.ParseRole(c.Role)
	if !ok {
		return AuthResult{}, apperr.Validation("invalid role")
	}
	a, err := s.Store.FindByEmail(ctx, role, normalizeEmail(c.Email))
	if apperr.Is(err, apperr.KindNotFound) {
		return AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return AuthResult{}, apperr.Internal("login failed", err)
	}
	if !auth.CheckPassword(a.Password, c.Password) {
		return AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	return s.issue(role, a)
}

// CreateAccount is shared by signup and the admin console; the password is always stored hashed.
func (s *Service) CreateAccount(ctx context.Context, role auth.Role, name, email, password string) (Account, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return Account{}, apperr.Validation("all fields are required")
	}
	_, err := s.Store.FindByEmail(ctx, role, email)
	switch {
	case err == nil:
		return Account{}, apperr.Conflict("email already registered")
	case !apperr.Is(err, apperr.KindNotFound):
		return Account{}, apperr.Internal("failed to create account", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, apperr.Internal("failed to create account", err)
	}
	a := Account{ID: uuid.NewString(), Name: name, Email: email, Password: hash}
	if err := s.Store.Create(ctx, role, &a); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return Account{}, err
		}
		return Account{}, apperr.Internal("failed to create account", err)
	}
	return a, nil
}

func (s *Service) issue(role auth.Role, a Account) (AuthResult, error) {
	tok, err := s.Tokens.Issue(auth.Identity{ID: a.ID, Name: a.Name, Role: role})
	if err != nil {
		return AuthResult{}, apperr.Internal("failed to issue token", err)
	}
	return AuthResult{
		Token: tok,
		Role:  role.Key(),
		User:  Summary{ID: a.ID, Name: a.Name, Email: a.Email},
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	u, err := s.Store.GetUser(ctx, userID)
	return u, apperr.Wrap(err, "failed to load profile")
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (User, error) {
	p.Email = normalizeEmail(p.Email)
	u, err := s.Store.UpdateProfile(ctx, userID, p)
	return u, apperr.Wrap(err, "failed to update profile")
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	us, err := s.Store.ListUsers(ctx)
	return us, apperr.Wrap(err, "failed to load users")
}

func (s *Service) List(ctx context.Context, role auth.Role) ([]Account, error) {
	as, err := s.Store.List(ctx, role)
	return as, apperr.Wrap(err, "failed to load accounts")
}

func (s *Service) Get(ctx context.Context, role auth.Role, id string) (Account, error) {
	a, err := s.Store.Get(ctx, role, id)
	return a, apperr.Wrap(err, "failed to load account")
}

func (s *Service) Update(ctx context.Context, role auth.Role, id string, u AccountUpdate) (Account, error) {
	u.Name, u.Email = strings.TrimSpace(u.Name), normalizeEmail(u.Email)
	a, err := s.Store.Update(ctx, role, id, u)
	return a, apperr.Wrap(err, "failed to update account")
}

func (s *Service) Delete(ctx context.Context, role auth.Role, id string) error {
	return apperr.Wrap(s.Store.Delete(ctx, role, id), "failed to delete account")
}

func (s *Service) Count(ctx context.Context, role auth.Role) (int64, error) {
	return s.Store.Count(ctx, role)
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }
