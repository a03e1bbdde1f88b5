package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errNoUser = errors.New("document not found")

type usersByEmail map[string]*models.User

func (u usersByEmail) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := u[email]; ok {
		return user, nil
	}
	return nil, errNoUser
}

func requireStatus(t *testing.T, err error, code int) string {
	t.Helper()
	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr), "expected *models.APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
	return apiErr.Message
}

func newContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuth(t *testing.T) {
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	admin := &models.User{ID: primitive.NewObjectID(), Email: "root@example.com", Role: models.RoleAdmin}
	ghost := &models.User{ID: primitive.NewObjectID(), Email: "ghost@example.com"}
	users := usersByEmail{admin.Email: admin}

	adminToken, err := tokens.GenerateJWT(admin)
	require.NoError(t, err)
	ghostToken, err := tokens.GenerateJWT(ghost)
	require.NoError(t, err)
	otherToken, err := utils.NewTokenManager("other-secret", time.Hour).GenerateJWT(admin)
	require.NoError(t, err)
	expiredToken, err := utils.NewTokenManager("test-secret", -time.Hour).GenerateJWT(admin)
	require.NoError(t, err)

	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := Auth(tokens, users)(ok)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "No token, authorization denied"},
		{"wrong scheme", "Basic " + adminToken, "No token, authorization denied"},
		{"other secret", "Bearer " + otherToken, "Invalid token"},
		{"expired", "Bearer " + expiredToken, "Token has expired"},
		{"garbage", "Bearer not.a.jwt", "Invalid token"},
		{"unknown user", "Bearer " + ghostToken, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newContext(tt.header)
			msg := requireStatus(t, handler(c), http.StatusUnauthorized)
			assert.Equal(t, tt.message, msg)
		})
	}

	c, rec := newContext("Bearer " + adminToken)
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, admin.ID, CurrentUserID(c))
	assert.Same(t, admin, CurrentUser(c))
	assert.True(t, IsAdmin(c))
}

func TestAdminOnly(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	c, _ := newContext("")
	c.Set(ContextIsAdmin, false)
	msg := requireStatus(t, AdminOnly(ok)(c), http.StatusForbidden)
	assert.Equal(t, "Access denied. Admin privileges required.", msg)

	c, rec := newContext("")
	c.Set(ContextIsAdmin, true)
	require.NoError(t, AdminOnly(ok)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, limiter.allow("10.0.0.1"))

	now = now.Add(time.Hour)
	limiter.sweep()
	assert.Empty(t, limiter.visitors)
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	handler := limiter.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	c, _ := newContext("")
	require.NoError(t, handler(c))

	c, _ = newContext("")
	requireStatus(t, handler(c), http.StatusTooManyRequests)
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	send := func(trusted []*net.IPNet, remoteAddr string) (allowed int, limiter *RateLimiter) {
		limiter = NewRateLimiter(1, 2)
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }

		e := echo.New()
		e.IPExtractor = ClientIP(trusted)
		e.POST("/api/auth/login", func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}, limiter.Middleware())

		for i := 0; i < 50; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = remoteAddr
			req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("198.51.100.%d", i+1))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code == http.StatusOK {
				allowed++
			}
		}
		return allowed, limiter
	}

	allowed, limiter := send(nil, "203.0.113.7:41000")
	assert.Equal(t, 2, allowed)
	assert.Len(t, limiter.visitors, 1)

	_, proxies, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)
	allowed, limiter = send([]*net.IPNet{proxies}, "10.1.2.3:41000")
	assert.Equal(t, 50, allowed)
	assert.Len(t, limiter.visitors, 50)
}

func TestMetricsCountsByRouteAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	e := echo.New()
	e.Use(metrics.Middleware())
	e.GET("/api/products/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "missing"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/api/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/api/products/:id", "404")))
}
