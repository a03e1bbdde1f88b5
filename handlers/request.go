package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &models.APIError{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	return c.Validate(req)
}

func idParam(c echo.Context, name, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, models.BadRequest("Invalid %s ID format.", label)
	}
	return id, nil
}

func optionalID(hex *string, label string) (*primitive.ObjectID, error) {
	if hex == nil || strings.TrimSpace(*hex) == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(*hex))
	if err != nil {
		return nil, models.BadRequest("Invalid %s ID format.", label)
	}
	return &id, nil
}

// queryFloat reads the first non-empty of the given query keys.
func queryFloat(c echo.Context, keys ...string) (*float64, error) {
	for _, key := range keys {
		raw := strings.TrimSpace(c.QueryParam(key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, models.BadRequest("Invalid value for %s", key)
		}
		return &v, nil
	}
	return nil, nil
}

func queryInt(c echo.Context, key string) int {
	n, err := strconv.Atoi(c.QueryParam(key))
	if err != nil {
		return 0
	}
	return n
}
