package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decorhaus/storefront_api/internal/utils"
)

const testSecret = "session-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type staticAdmins struct {
	admins map[string]bool
	err    error
}

func (s staticAdmins) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s.admins[userID], s.err
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		if auth := GetAuth(c); auth != nil {
			c.String(http.StatusOK, auth.UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	req.RemoteAddr = "203.0.113.7:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.IssueSessionToken(userID, userID+"@example.com", testSecret, ttl)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestSessionRequired(t *testing.T) {
	r := newRouter(NewSessionMiddleware(testSecret).Required())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, token(t, "user-1", -time.Minute)).Code)

	forged, err := utils.IssueSessionToken("user-1", "", "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+forged).Code)

	w := do(r, token(t, "user-1", time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestSessionOptional(t *testing.T) {
	r := newRouter(NewSessionMiddleware(testSecret).Optional())

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, token(t, "user-2", time.Hour))
	assert.Equal(t, "user-2", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer not-a-jwt").Code)
}

func TestAdminMiddleware(t *testing.T) {
	admins := staticAdmins{admins: map[string]bool{"boss": true}}
	r := newRouter(NewSessionMiddleware(testSecret).Required(), NewAdminMiddleware(admins).Handle())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, token(t, "customer", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, do(r, token(t, "boss", time.Hour)).Code)

	broken := newRouter(NewSessionMiddleware(testSecret).Required(),
		NewAdminMiddleware(staticAdmins{err: errors.New("db down")}).Handle())
	assert.Equal(t, http.StatusInternalServerError, do(broken, token(t, "boss", time.Hour)).Code)
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := newRouter(limiter.Handle())

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.True(t, limiter.Allow("198.51.100.1"))
}

func TestIPRateLimiterSweep(t *testing.T) {
	limiter := NewIPRateLimiter(10, 1)
	limiter.Allow("198.51.100.1")
	limiter.limiters["198.51.100.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.Allow("198.51.100.2")

	limiter.Sweep()
	assert.NotContains(t, limiter.limiters, "198.51.100.1")
	assert.Contains(t, limiter.limiters, "198.51.100.2")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"shop.example.com"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example.com:443")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.example.com:443", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
