package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/server/handlers"
	"github.com/mamadbah2/repairdesk/internal/service/users"
)

type fakeAuth map[string]*users.Claims

func (f fakeAuth) Authenticate(_ context.Context, raw string) (*users.Claims, error) {
	if c, ok := f[raw]; ok {
		return c, nil
	}
	return nil, users.ErrUnauthorized
}

type fakeMaintenance struct {
	m models.Maintenance
}

func (f *fakeMaintenance) Get(context.Context) (*models.Maintenance, error) {
	m := f.m
	return &m, nil
}

func (f *fakeMaintenance) Set(_ context.Context, actif bool, message, by string) (*models.Maintenance, error) {
	f.m = models.Maintenance{Actif: actif, Message: message, UpdatedBy: by}
	m := f.m
	return &m, nil
}

type fakeUsers struct {
	handlers.UserService
}

func (fakeUsers) List(context.Context, models.ListParams) (models.Page[models.User], error) {
	return models.Page[models.User]{Data: []models.User{}}, nil
}

func newTestEngine(t *testing.T, maint *fakeMaintenance) *gin.Engine {
	t.Helper()
	auth := fakeAuth{
		"admin": {UserID: primitive.NewObjectID().Hex(), Email: "admin@atelier.fr", Role: models.RoleAdmin},
		"tech":  {UserID: primitive.NewObjectID().Hex(), Email: "tech@atelier.fr", Role: models.RoleTechnicien},
	}
	h := Handlers{
		Users:       handlers.NewUserHandler(fakeUsers{}, nil),
		Maintenance: handlers.NewMaintenanceHandler(maint, nil),
	}
	return New(h, Options{AllowedOrigins: []string{"http://localhost:3000"}, Auth: auth, Maintenance: maint}, nil)
}

func request(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthzIsPublic(t *testing.T) {
	r := newTestEngine(t, &fakeMaintenance{})
	rec := request(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMaintenanceReadIsPublic(t *testing.T) {
	r := newTestEngine(t, &fakeMaintenance{m: models.Maintenance{Actif: true, Message: "Mise à jour"}})
	rec := request(r, http.MethodGet, "/api/maintenance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mise à jour")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestEngine(t, &fakeMaintenance{})
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodGet, "/api/users", "bogus").Code)
}

func TestUsersAreAdminOnly(t *testing.T) {
	r := newTestEngine(t, &fakeMaintenance{})
	assert.Equal(t, http.StatusForbidden, request(r, http.MethodGet, "/api/users", "tech").Code)
	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/users", "admin").Code)
}

func TestMaintenanceBlocksNonAdmins(t *testing.T) {
	maint := &fakeMaintenance{m: models.Maintenance{Actif: true, Message: "Retour à 14h"}}
	r := newTestEngine(t, maint)

	rec := request(r, http.MethodGet, "/api/auth/me", "tech")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Retour à 14h")

	assert.Equal(t, http.StatusOK, request(r, http.MethodGet, "/api/users", "admin").Code)
}

func TestMaintenanceToggleIsAdminOnly(t *testing.T) {
	maint := &fakeMaintenance{}
	r := newTestEngine(t, maint)

	req := func(token string) *httptest.ResponseRecorder {
		rq := httptest.NewRequest(http.MethodPut, "/api/maintenance", strings.NewReader(`{"actif":true,"message":"Inventaire"}`))
		rq.Header.Set("Content-Type", "application/json")
		rq.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, rq)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, req("tech").Code)
	require.Equal(t, http.StatusOK, req("admin").Code)
	assert.True(t, maint.m.Actif)
	assert.Equal(t, "admin@atelier.fr", maint.m.UpdatedBy)
}

func TestCorsConfig(t *testing.T) {
	open := corsConfig(nil)
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)

	star := corsConfig([]string{"*"})
	assert.True(t, star.AllowAllOrigins)
	assert.Empty(t, star.AllowOrigins)

	listed := corsConfig([]string{"https://atelier.fr"})
	assert.False(t, listed.AllowAllOrigins)
	assert.True(t, listed.AllowCredentials)
	assert.Equal(t, []string{"https://atelier.fr"}, listed.AllowOrigins)
}
