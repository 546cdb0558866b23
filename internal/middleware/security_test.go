package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(rate.Every(time.Hour), 2), zaptest.NewLogger(t)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 1)
	assert.Same(t, rl.GetLimiter("10.0.0.1"), rl.GetLimiter("10.0.0.1"))
	assert.True(t, rl.GetLimiter("10.0.0.1").Allow())
	assert.False(t, rl.GetLimiter("10.0.0.1").Allow())
	assert.True(t, rl.GetLimiter("10.0.0.2").Allow())
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestBearerAuthMiddleware(t *testing.T) {
	auth, err := services.NewAuthService("0123456789abcdef0123456789abcdef", time.Hour, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	token, _, err := auth.GenerateToken("ops")
	require.NoError(t, err)

	r := gin.New()
	r.Use(BearerAuthMiddleware(auth, zaptest.NewLogger(t)))
	r.GET("/", func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(*services.CustomClaims)
		c.String(http.StatusOK, claims.ClientName)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "ops", w.Body.String())
			}
		})
	}
}

func TestValidateClientName(t *testing.T) {
	assert.True(t, ValidateClientName("ops-laptop_1.local"))
	assert.False(t, ValidateClientName(""))
	assert.False(t, ValidateClientName("rm -rf"))
	assert.False(t, ValidateClientName("name/with/slash"))
}
