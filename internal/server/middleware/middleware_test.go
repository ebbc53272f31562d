package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/repairdesk/internal/domain/models"
	"github.com/mamadbah2/repairdesk/internal/service/users"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]*users.Claims

func (f fakeAuth) Authenticate(_ context.Context, raw string) (*users.Claims, error) {
	if c, ok := f[raw]; ok {
		return c, nil
	}
	return nil, users.ErrUnauthorized
}

type fakeMaintenance struct {
	m   models.Maintenance
	err error
}

func (f *fakeMaintenance) Get(context.Context) (*models.Maintenance, error) {
	if f.err != nil {
		return nil, f.err
	}
	m := f.m
	return &m, nil
}

var tokens = fakeAuth{
	"admin-token": {UserID: "a1", Role: models.RoleAdmin},
	"tech-token":  {UserID: "t1", Role: models.RoleTechnicien},
}

func newEngine(maint *fakeMaintenance) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	api := r.Group("/api", Auth(tokens), Maintenance(maint, nil))
	api.GET("/me", func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID})
	})
	api.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(&fakeMaintenance{})

	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/api/me", "forged").Code)

	w := do(r, "/api/me", "tech-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"t1"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequireAdmin(t *testing.T) {
	r := newEngine(&fakeMaintenance{})

	assert.Equal(t, http.StatusForbidden, do(r, "/api/admin", "tech-token").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/api/admin", "admin-token").Code)
}

func TestMaintenance(t *testing.T) {
	maint := &fakeMaintenance{m: models.Maintenance{Actif: true, Message: "Mise à jour en cours"}}
	r := newEngine(maint)

	w := do(r, "/api/me", "tech-token")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Mise à jour en cours")

	assert.Equal(t, http.StatusOK, do(r, "/api/me", "admin-token").Code)

	maint.err = errors.New("mongo down")
	assert.Equal(t, http.StatusOK, do(r, "/api/me", "tech-token").Code)
}

func TestRequestID_Propagates(t *testing.T) {
	r := newEngine(&fakeMaintenance{})
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer tech-token")
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
