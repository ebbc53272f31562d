package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/repository/tokens"
)

type memStore map[primitive.ObjectID]models.User

func (m memStore) Insert(_ context.Context, u *models.User) error {
	for _, existing := range m {
		if existing.Email == u.Email {
			return models.Conflictf("email déjà utilisé")
		}
	}
	u.ID = primitive.NewObjectID()
	m[u.ID] = *u
	return nil
}

func (m memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, models.NotFoundf("user")
	}
	return &u, nil
}

func (m memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, models.NotFoundf("user")
}

func (m memStore) List(_ context.Context, _ models.ListParams) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range m {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (m memStore) Replace(_ context.Context, u *models.User) error {
	m[u.ID] = *u
	return nil
}

func (m memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(m, id)
	return nil
}

func (m memStore) Count(_ context.Context) (int64, error) { return int64(len(m)), nil }

func (m memStore) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	u := m[id]
	u.DernierLogin = &at
	m[id] = u
	return nil
}

const secret = "0123456789abcdef0123"

func newService(store memStore) *Service {
	return NewService(store, tokens.NewMemoryBlacklist(), secret, time.Hour, nil)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	store := memStore{}
	svc := newService(store)
	ctx := context.Background()

	u, err := svc.Create(ctx, Input{Email: "Tech@Atelier.fr", MotDePasse: "motdepasse", Nom: "Bernard"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTechnicien, u.Role)
	assert.NotEqual(t, "motdepasse", u.MotDePasse)

	_, err = svc.Login(ctx, "tech@atelier.fr", "mauvais")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "inconnu@atelier.fr", "motdepasse")
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := svc.Login(ctx, "TECH@atelier.fr", "motdepasse")
	require.NoError(t, err)
	assert.NotNil(t, store[u.ID].DernierLogin)

	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.False(t, claims.IsAdmin())

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_RejectsForeignAndExpiredTokens(t *testing.T) {
	store := memStore{}
	svc := newService(store)
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{Email: "a@b.fr", MotDePasse: "motdepasse"})
	require.NoError(t, err)
	session, err := svc.Login(ctx, "a@b.fr", "motdepasse")
	require.NoError(t, err)

	other := NewService(store, tokens.NewMemoryBlacklist(), "another-secret-of-length", time.Hour, nil)
	_, err = other.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_InactiveAccount(t *testing.T) {
	svc := newService(memStore{})
	ctx := context.Background()
	inactive := false
	_, err := svc.Create(ctx, Input{Email: "old@b.fr", MotDePasse: "motdepasse", Actif: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "old@b.fr", "motdepasse")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSeedAdmin_OnlyOnEmptyStore(t *testing.T) {
	store := memStore{}
	svc := newService(store)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "admin@atelier.fr", "changeme123"))
	require.Len(t, store, 1)
	for _, u := range store {
		assert.True(t, u.IsAdmin())
	}

	require.NoError(t, svc.SeedAdmin(ctx, "other@atelier.fr", "changeme123"))
	assert.Len(t, store, 1)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(memStore{})
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Email: "pas-un-email", MotDePasse: "motdepasse"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Create(ctx, Input{Email: "a@b.fr", MotDePasse: "court"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Create(ctx, Input{Email: "a@b.fr", MotDePasse: "motdepasse", Role: "chef"})
	assert.ErrorIs(t, err, models.ErrValidation)

	self := primitive.NewObjectID()
	assert.ErrorIs(t, svc.Delete(ctx, self, self), models.ErrConflict)
}
