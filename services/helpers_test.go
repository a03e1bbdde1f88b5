package services

import (
	"errors"
	"testing"

	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/stretchr/testify/require"
)

func requireAPIError(t *testing.T, err error, code int) *models.APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr), "expected *models.APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code, apiErr.Message)
	return apiErr
}
