package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/handlers"
	customMiddleware "github.com/nexamart/nexamart-backend-go/middleware"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type oneUser struct {
	user *models.User
}

func (o oneUser) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if email == o.user.Email {
		return o.user, nil
	}
	return nil, errors.New("not found")
}

func newServer(t *testing.T) (*echo.Echo, *utils.TokenManager, *models.User) {
	t.Helper()
	tokens := utils.NewTokenManager("routes-secret", time.Hour)
	customer := &models.User{ID: primitive.NewObjectID(), Email: "shopper@example.com", Role: models.RoleCustomer}

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler
	SetupRoutes(e, Handlers{
		Auth:     handlers.NewAuthHandler(nil),
		Users:    handlers.NewUserHandler(nil, nil),
		Products: handlers.NewProductHandler(nil, nil),
		Cart:     handlers.NewCartHandler(nil),
		Orders:   handlers.NewOrderHandler(nil),
		Contact:  handlers.NewContactHandler(nil),
	}, customMiddleware.Auth(tokens, oneUser{customer}), customMiddleware.NewRateLimiter(100, 100))
	return e, tokens, customer
}

func do(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	e, _, _ := newServer(t)

	registered := map[string]bool{}
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/user",
		"PUT /api/auth/change-password",
		"GET /api/products/:id",
		"DELETE /api/categories/:id",
		"PUT /api/cart/:productId",
		"DELETE /api/cart",
		"POST /api/orders",
		"POST /api/orders/place-order",
		"GET /api/orders/my-orders",
		"PUT /api/orders/:id/status",
		"POST /api/payment/create-checkout-session",
		"POST /api/payment/webhook",
		"DELETE /api/address/:id",
		"POST /api/form/contact",
		"GET /metrics",
	} {
		assert.True(t, registered[want], "route %s not registered", want)
	}
}

func TestHealth(t *testing.T) {
	e, _, _ := newServer(t)

	rec := do(e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGuards(t *testing.T) {
	e, tokens, customer := newServer(t)
	token, err := tokens.GenerateJWT(customer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		target string
		token  string
		code   int
	}{
		{"cart needs a token", http.MethodGet, "/api/cart", "", http.StatusUnauthorized},
		{"admin product create needs a token", http.MethodPost, "/api/products", "", http.StatusUnauthorized},
		{"customer cannot create products", http.MethodPost, "/api/products", token, http.StatusForbidden},
		{"customer cannot list all orders", http.MethodGet, "/api/orders/all", token, http.StatusForbidden},
		{"customer cannot change order status", http.MethodPut, "/api/orders/" + primitive.NewObjectID().Hex() + "/status", token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.method, tt.target, tt.token)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
