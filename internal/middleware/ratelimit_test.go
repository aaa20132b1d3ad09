package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowPerKey(t *testing.T) {
	l := NewInMemoryRateLimiter(2, time.Minute)
	assert.True(t, l.Allow("u:1"))
	assert.True(t, l.Allow("u:1"))
	assert.False(t, l.Allow("u:1"), "third request inside the window is refused")
	assert.True(t, l.Allow("u:2"), "keys are counted independently")
}

func TestRateKeyPrefersUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Equal(t, "ip:"+c.ClientIP(), rateKey(c), "anonymous requests bucket by address")
	c.Set("user_id", uint(42))
	assert.Equal(t, "u:42", rateKey(c), "authenticated requests bucket by account")
}

func TestRateLimitAbortsWithTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewInMemoryRateLimiter(1, time.Minute)
	mw := RateLimit(limiter)

	r := gin.New()
	r.GET("/", func(c *gin.Context) { c.Set("user_id", uint(7)) }, mw, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
