package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Keys under which the authenticated user is stored on the echo context.
const (
	ContextUser    = "user"
	ContextUserID  = "userID"
	ContextIsAdmin = "isAdmin"
)

// UserFinder loads the account a token was issued for.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Auth requires a valid "Authorization: Bearer <token>" header and loads
// the token's user onto the context.
func Auth(tokens *utils.TokenManager, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			tokenString = strings.TrimSpace(tokenString)
			if !ok || tokenString == "" {
				return models.Unauthorized("No token, authorization denied")
			}

			claims, err := tokens.ValidateJWT(tokenString)
			if errors.Is(err, utils.ErrTokenExpired) {
				return models.Unauthorized("Token has expired")
			}
			if err != nil {
				return models.Unauthorized("Invalid token")
			}

			user, err := users.FindByEmail(c.Request().Context(), claims.Email)
			if err != nil {
				c.Logger().Debugf("token user lookup failed: %v", err)
				return models.Unauthorized("User not found")
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextIsAdmin, user.IsAdmin())
			return next(c)
		}
	}
}

// AdminOnly must run after Auth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if isAdmin, _ := c.Get(ContextIsAdmin).(bool); !isAdmin {
			return models.Forbidden("Access denied. Admin privileges required.")
		}
		return next(c)
	}
}

func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(ContextUser).(*models.User)
	return user
}

func CurrentUserID(c echo.Context) primitive.ObjectID {
	id, _ := c.Get(ContextUserID).(primitive.ObjectID)
	return id
}

func IsAdmin(c echo.Context) bool {
	isAdmin, _ := c.Get(ContextIsAdmin).(bool)
	return isAdmin
}
