package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService() (*AuthService, *fakeUsers) {
	users := newFakeUsers()
	return NewAuthService(users, utils.NewTokenManager("test-secret", 720*time.Hour)), users
}

func TestRegisterIssuesCustomerToken(t *testing.T) {
	svc, users := newAuthService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Name: " Asha ", Email: "Asha@Example.com", Password: "supersecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Asha", result.User.Name)
	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.Equal(t, models.RoleCustomer, result.User.Role)
	assert.NotEqual(t, "supersecret", result.User.Password)
	assert.Len(t, users.users, 1)

	claims, err := utils.NewTokenManager("test-secret", time.Hour).ValidateJWT(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ASHA@example.com", Password: "anothersecret"})
	apiErr := requireAPIError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Email already registered", apiErr.Message)
	assert.Len(t, users.users, 1)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "supersecret"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "asha@example.com", "supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(ctx, "asha@example.com", "wrongpassword")
	apiErr := requireAPIError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	requireAPIError(t, err, http.StatusBadRequest)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "supersecret"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, reg.User.ID, "notmypassword", "brandnewsecret")
	apiErr := requireAPIError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Old password incorrect", apiErr.Message)

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, "supersecret", "brandnewsecret"))
	_, err = svc.Login(ctx, "asha@example.com", "brandnewsecret")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "supersecret"})
	require.NoError(t, err)

	phone := "9876543210"
	user, err := svc.UpdateProfile(ctx, reg.User.ID, models.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Asha", user.Name)
	assert.Equal(t, phone, user.Phone)
}
