package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/ariefcatur/go-bookstore.git/internal/postgres"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const (
	accountCols = "id, name, email, password, created_at, updated_at"
	userCols    = accountCols + ", phone, address_flatno, address_pincode, address_city, address_state"
)

func table(role auth.Role) string {
	switch role {
	case auth.RoleSeller:
		return "sellers"
	case auth.RoleAdmin:
		return "admins"
	default:
		return "users"
	}
}

func notFound(role auth.Role) error {
	switch role {
	case auth.RoleSeller:
		return apperr.NotFound("seller not found")
	case auth.RoleAdmin:
		return apperr.NotFound("admin not found")
	default:
		return apperr.NotFound("user not found")
	}
}

type scanner interface{ Scan(dest ...any) error }

func scanAccount(row scanner, a *Account) error {
	return row.Scan(&a.ID, &a.Name, &a.Email, &a.Password, &a.CreatedAt, &a.UpdatedAt)
}

func scanUser(row scanner, u *User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt,
		&u.Phone, &u.AddressFlatno, &u.AddressPincode, &u.AddressCity, &u.AddressState)
}

func (r *Repo) FindByEmail(ctx context.Context, role auth.Role, email string) (Account, error) {
	var a Account
	err := scanAccount(r.DB.QueryRow(ctx,
		`SELECT `+accountCols+` FROM `+table(role)+` WHERE email=$1`, email), &a)
	if postgres.IsMissing(err) {
		return Account{}, notFound(role)
	}
	return a, err
}

func (r *Repo) Get(ctx context.Context, role auth.Role, id string) (Account, error) {
	var a Account
	err := scanAccount(r.DB.QueryRow(ctx,
		`SELECT `+accountCols+` FROM `+table(role)+` WHERE id=$1`, id), &a)
	if postgres.IsMissing(err) {
		return Account{}, notFound(role)
	}
	return a, err
}

func (r *Repo) Create(ctx context.Context, role auth.Role, a *Account) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.DB.Exec(ctx,
		`INSERT INTO `+table(role)+` (id, name, email, password, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Name, a.Email, a.Password, a.CreatedAt, a.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return apperr.Conflict("email already registered")
	}
	return err
}

func (r *Repo) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id), &u)
	if postgres.IsMissing(err) {
		return User{}, notFound(auth.RoleUser)
	}
	return u, err
}

func (r *Repo) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (User, error) {
	set := p.fields()
	if len(set) == 0 {
		return r.GetUser(ctx, id)
	}
	set["updated_at"] = time.Now().UTC()
	query, args, err := postgres.QB.Update("users").SetMap(set).
		Where(sq.Eq{"id": id}).Suffix("RETURNING " + userCols).ToSql()
	if err != nil {
		return User{}, err
	}
	var u User
	err = scanUser(r.DB.QueryRow(ctx, query, args...), &u)
	switch {
	case postgres.IsMissing(err):
		return User{}, notFound(auth.RoleUser)
	case postgres.IsUniqueViolation(err):
		return User{}, apperr.Conflict("email already used")
	}
	return u, err
}

func (r *Repo) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, role auth.Role) ([]Account, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+accountCols+` FROM `+table(role)+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		var a Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) Update(ctx context.Context, role auth.Role, id string, u AccountUpdate) (Account, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if u.Name != "" {
		set["name"] = u.Name
	}
	if u.Email != "" {
		set["email"] = u.Email
	}
	query, args, err := postgres.QB.Update(table(role)).SetMap(set).
		Where(sq.Eq{"id": id}).Suffix("RETURNING " + accountCols).ToSql()
	if err != nil {
		return Account{}, err
	}
	var a Account
	err = scanAccount(r.DB.QueryRow(ctx, query, args...), &a)
	switch {
	case postgres.IsMissing(err):
		return Account{}, notFound(role)
	case postgres.IsUniqueViolation(err):
		return Account{}, apperr.Conflict("email already used")
	}
	return a, err
}

func (r *Repo) Delete(ctx context.Context, role auth.Role, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM `+table(role)+` WHERE id=$1`, id)
	if postgres.IsMissing(err) {
		return notFound(role)
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound(role)
	}
	return nil
}

func (r *Repo) Count(ctx context.Context, role auth.Role) (int64, error) {
	var n int64
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM `+table(role)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table(role), err)
	}
	return n, nil
}
