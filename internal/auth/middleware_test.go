package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(v *TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Middleware(v), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c.Request.Context()))
	})
	r.GET("/admin", Middleware(v), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
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

func TestMiddlewarePopulatesUser(t *testing.T) {
	v := NewTokenVerifier("secret")
	token, err := v.Sign("user-1", "a@b.c", "staff", time.Hour)
	require.NoError(t, err)

	w := do(newRouter(v), "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestMiddlewareRejects(t *testing.T) {
	v := NewTokenVerifier("secret")
	other, _ := NewTokenVerifier("other").Sign("user-1", "", "admin", time.Hour)
	expired, _ := v.Sign("user-1", "", "admin", -time.Minute)

	r := newRouter(v)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", other).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/me", expired).Code)
}

func TestRequireAdmin(t *testing.T) {
	v := NewTokenVerifier("secret")
	staff, _ := v.Sign("u1", "", "staff", time.Hour)
	admin, _ := v.Sign("u2", "", "admin", time.Hour)

	r := newRouter(v)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", staff).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)
}
