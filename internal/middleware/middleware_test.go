package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, token string) (bool, error) {
	return r[token], nil
}

type failingChecker struct{ err error }

func (f failingChecker) IsRevoked(context.Context, string) (bool, error) {
	return false, f.err
}

func whoami(c *gin.Context) {
	if id := OptionalUserID(c); id != nil {
		c.String(http.StatusOK, id.String())
		return
	}
	c.String(http.StatusOK, "anonymous")
}

func do(r http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	userID := uuid.New()
	token, _, err := jwt.Generate(userID, "")
	require.NoError(t, err)
	revokedToken, _, err := jwt.Generate(userID, "")
	require.NoError(t, err)
	revoked := revokedSet{revokedToken: true}

	r := gin.New()
	r.GET("/private", AuthMiddleware(jwt, revoked), whoami)
	r.GET("/public", OptionalAuth(jwt, revoked), whoami)
	r.GET("/ws", WSAuthMiddleware(jwt, revoked), whoami)

	w := do(r, "/private", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/private", "bogus").Code)
	w = do(r, "/private", revokedToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"token is blacklisted"}`, w.Body.String())

	w = do(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
	w = do(r, "/public", token)
	assert.Equal(t, userID.String(), w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, "/public", "bogus").Code)

	w = do(r, "/ws?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestAuthMiddleware_BlacklistUnavailable(t *testing.T) {
	jwt := auth.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.Generate(uuid.New(), "")
	require.NoError(t, err)
	checker := failingChecker{err: errors.New("connection refused")}

	r := gin.New()
	r.GET("/private", AuthMiddleware(jwt, checker), whoami)
	r.GET("/public", OptionalAuth(jwt, checker), whoami)
	r.GET("/ws", WSAuthMiddleware(jwt, checker), whoami)

	want := `{"error":"` + apperr.ErrBackendUnavailable.Message + `","retryable":true}`
	for _, w := range []*httptest.ResponseRecorder{
		do(r, "/private", token),
		do(r, "/public", token),
		do(r, "/ws?token="+token, ""),
	} {
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, want, w.Body.String())
	}

	// анонимный запрос в черный список не ходит
	assert.Equal(t, http.StatusOK, do(r, "/public", "").Code)
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (m *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func TestRateLimiter(t *testing.T) {
	counter := &memCounter{counts: map[string]int64{}}
	r := gin.New()
	r.Use(RateLimiter(counter, 3, discard))
	r.GET("/api", whoami)

	for i := 0; i < 3; i++ {
		w := do(r, "/api", "")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, "/api", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	counter := &memCounter{err: errors.New("redis down")}
	r := gin.New()
	r.Use(RateLimiter(counter, 1, discard))
	r.GET("/api", whoami)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, "/api", "").Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/groups/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	do(r, "/groups/abc", "")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "path=/groups/abc")
	assert.Contains(t, buf.String(), "status=404")
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, do(r, "/slow", "").Code)
}
