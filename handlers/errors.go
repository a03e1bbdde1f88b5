package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nexamart/nexamart-backend-go/models"
)

type errorBody struct {
	Message      string `json:"message"`
	ExtraDetails string `json:"extraDetails,omitempty"`
}

// ErrorHandler renders every error as {message, extraDetails}. Errors that
// are not APIErrors or echo HTTPErrors are logged and reported as a bare 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := errorBody{Message: "Internal Server Error"}

	var apiErr *models.APIError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
		body.Message = apiErr.Message
		body.ExtraDetails = apiErr.Details
		if code >= http.StatusInternalServerError && apiErr.Err != nil {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), apiErr.Err)
		}
	case errors.As(err, &httpErr):
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			body.Message = msg
		} else {
			body.Message = fmt.Sprint(httpErr.Message)
		}
		if httpErr.Internal != nil {
			c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Path(), httpErr.Internal)
		}
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
