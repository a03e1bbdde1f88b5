package models

import (
	"fmt"
	"net/http"
)

// APIError is an expected failure that maps directly onto an HTTP response.
type APIError struct {
	Code    int
	Message string
	Details string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewAPIError(code int, format string, args ...interface{}) *APIError {
	return &APIError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *APIError {
	return NewAPIError(http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...interface{}) *APIError {
	return NewAPIError(http.StatusNotFound, format, args...)
}

func Unauthorized(format string, args ...interface{}) *APIError {
	return NewAPIError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *APIError {
	return NewAPIError(http.StatusForbidden, format, args...)
}

func Conflict(format string, args ...interface{}) *APIError {
	return NewAPIError(http.StatusConflict, format, args...)
}
