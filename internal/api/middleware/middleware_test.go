package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/cmd", handlers...)
	return r
}

func do(r http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/cmd", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAPIKeyAuth(t *testing.T) {
	r := newEngine(APIKeyAuth(AuthConfig{Enabled: true, APIKeys: []string{"sk_test_12345678"}}, nil))

	assert.Equal(t, http.StatusUnauthorized, do(r, "", ""))
	assert.Equal(t, http.StatusForbidden, do(r, "X-API-Key", "wrong"))
	assert.Equal(t, http.StatusOK, do(r, "X-API-Key", "sk_test_12345678"))
	assert.Equal(t, http.StatusOK, do(r, "Authorization", "Bearer sk_test_12345678"))

	open := newEngine(APIKeyAuth(AuthConfig{Enabled: false}, nil))
	assert.Equal(t, http.StatusOK, do(open, "", ""))
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstSize: 2}))
	assert.Equal(t, http.StatusOK, do(r, "", ""))
	assert.Equal(t, http.StatusOK, do(r, "", ""))
	assert.Equal(t, http.StatusTooManyRequests, do(r, "", ""))

	off := newEngine(RateLimit(RateLimitConfig{Enabled: false, RequestsPerMin: 1, BurstSize: 1}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(off, "", ""))
	}
}

func TestRateLimiter_Stats(t *testing.T) {
	l := NewRateLimiter(RateLimitConfig{RequestsPerMin: 1, BurstSize: 1})
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	allowed, rejected := l.Stats()
	assert.Equal(t, int64(1), allowed)
	assert.Equal(t, int64(1), rejected)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_t****5678", maskAPIKey("sk_test_12345678"))
}
