package accounts

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	byRole map[auth.Role]map[string]*User
}

func newMemStore() *memStore {
	return &memStore{byRole: map[auth.Role]map[string]*User{
		auth.RoleUser: {}, auth.RoleSeller: {}, auth.RoleAdmin: {},
	}}
}

func (m *memStore) FindByEmail(_ context.Context, role auth.Role, email string) (Account, error) {
	for _, u := range m.byRole[role] {
		if u.Email == email {
			return u.Account, nil
		}
	}
	return Account{}, notFound(role)
}

func (m *memStore) Get(_ context.Context, role auth.Role, id string) (Account, error) {
	u, ok := m.byRole[role][id]
	if !ok {
		return Account{}, notFound(role)
	}
	return u.Account, nil
}

func (m *memStore) Create(_ context.Context, role auth.Role, a *Account) error {
	a.CreatedAt = time.Now()
	m.byRole[role][a.ID] = &User{Account: *a}
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (User, error) {
	u, ok := m.byRole[auth.RoleUser][id]
	if !ok {
		return User{}, notFound(auth.RoleUser)
	}
	return *u, nil
}

func (m *memStore) UpdateProfile(_ context.Context, id string, p ProfileUpdate) (User, error) {
	u, ok := m.byRole[auth.RoleUser][id]
	if !ok {
		return User{}, notFound(auth.RoleUser)
	}
	for col, v := range p.fields() {
		s := v.(string)
		switch col {
		case "email":
			u.Email = s
		case "phone":
			u.Phone = s
		case "address_flatno":
			u.AddressFlatno = s
		case "address_pincode":
			u.AddressPincode = s
		case "address_city":
			u.AddressCity = s
		case "address_state":
			u.AddressState = s
		}
	}
	return *u, nil
}

func (m *memStore) ListUsers(_ context.Context) ([]User, error) {
	out := []User{}
	for _, u := range m.byRole[auth.RoleUser] {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, role auth.Role) ([]Account, error) {
	out := []Account{}
	for _, u := range m.byRole[role] {
		out = append(out, u.Account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Update(_ context.Context, role auth.Role, id string, up AccountUpdate) (Account, error) {
	u, ok := m.byRole[role][id]
	if !ok {
		return Account{}, notFound(role)
	}
	if up.Name != "" {
		u.Name = up.Name
	}
	if up.Email != "" {
		u.Email = up.Email
	}
	return u.Account, nil
}

func (m *memStore) Delete(_ context.Context, role auth.Role, id string) error {
	if _, ok := m.byRole[role][id]; !ok {
		return notFound(role)
	}
	delete(m.byRole[role], id)
	return nil
}

func (m *memStore) Count(_ context.Context, role auth.Role) (int64, error) {
	return int64(len(m.byRole[role])), nil
}

func newService() (*Service, *memStore) {
	st := newMemStore()
	return &Service{Store: st, Tokens: auth.NewTokens("test-secret", time.Hour)}, st
}

func TestSignupThenLoginCarriesSameID(t *testing.T) {
	ctx := context.Background()
	for _, role := range []string{"user", "seller", "admin"} {
		t.Run(role, func(t *testing.T) {
			svc, _ := newService()
			res, err := svc.Signup(ctx, Credentials{Name: "Ravi", Email: "Ravi@Example.com", Password: "pw-123456", Role: role})
			require.NoError(t, err)
			assert.Equal(t, role, res.Role)
			assert.Equal(t, "ravi@example.com", res.User.Email)

			login, err := svc.Login(ctx, Credentials{Email: "ravi@example.com", Password: "pw-123456", Role: role})
			require.NoError(t, err)

			id, err := svc.Tokens.Verify(login.Token)
			require.NoError(t, err)
			assert.Equal(t, res.User.ID, id.ID)
			assert.Equal(t, "Ravi", id.Name)
			assert.Equal(t, role, id.Role.Key())
		})
	}
}

func TestSignupStoresHashedPassword(t *testing.T) {
	svc, st := newService()
	res, err := svc.Signup(context.Background(), Credentials{Name: "A", Email: "a@x.io", Password: "plain-pw", Role: "user"})
	require.NoError(t, err)

	stored := st.byRole[auth.RoleUser][res.User.ID]
	assert.NotEqual(t, "plain-pw", stored.Password)
	assert.True(t, auth.CheckPassword(stored.Password, "plain-pw"))
}

func TestSignupDuplicateEmailPerRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.Signup(ctx, Credentials{Name: "A", Email: "a@x.io", Password: "pw", Role: "seller"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, Credentials{Name: "B", Email: "a@x.io", Password: "pw", Role: "seller"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// uniqueness is scoped to the role's table
	_, err = svc.Signup(ctx, Credentials{Name: "B", Email: "a@x.io", Password: "pw", Role: "user"})
	assert.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Signup(context.Background(), Credentials{Email: "a@x.io", Password: "pw", Role: "user"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Signup(context.Background(), Credentials{Name: "A", Email: "a@x.io", Password: "pw", Role: "guest"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "invalid role", apperr.Message(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.Signup(ctx, Credentials{Name: "A", Email: "a@x.io", Password: "right", Role: "user"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, Credentials{Email: "a@x.io", Password: "wrong", Role: "user"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = svc.Login(ctx, Credentials{Email: "nobody@x.io", Password: "right", Role: "user"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// right credentials, wrong role table
	_, err = svc.Login(ctx, Credentials{Email: "a@x.io", Password: "right", Role: "seller"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestUpdateProfileOnlySetsGivenFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	res, err := svc.Signup(ctx, Credentials{Name: "A", Email: "a@x.io", Password: "pw", Role: "user"})
	require.NoError(t, err)

	u, err := svc.UpdateProfile(ctx, res.User.ID, ProfileUpdate{Pincode: "560001", City: "Bengaluru"})
	require.NoError(t, err)
	assert.Equal(t, "560001", u.AddressPincode)
	assert.Equal(t, "Bengaluru", u.AddressCity)
	assert.Equal(t, "a@x.io", u.Email)

	_, err = svc.Profile(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdminAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	s, err := svc.CreateAccount(ctx, auth.RoleSeller, "Shop", "shop@x.io", "pw")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, auth.RoleSeller, "Shop2", "SHOP@x.io", "pw")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	up, err := svc.Update(ctx, auth.RoleSeller, s.ID, AccountUpdate{Name: "Shop Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Shop Renamed", up.Name)
	assert.Equal(t, "shop@x.io", up.Email)

	require.NoError(t, svc.Delete(ctx, auth.RoleSeller, s.ID))
	err = svc.Delete(ctx, auth.RoleSeller, s.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "seller not found", apperr.Message(err))
}
