package utils

import (
	"testing"
	"time"

	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser(role models.Role) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: "asha@example.com", Role: role}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", 30*24*time.Hour)
	user := testUser(models.RoleAdmin)

	token, err := m.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, int64(30*24*time.Hour/time.Second), claims.ExpiresAt-claims.IssuedAt)
}

func TestTokenOlderThanThirtyDaysIsRejected(t *testing.T) {
	m := NewTokenManager("secret", 30*24*time.Hour)
	m.now = func() time.Time { return time.Now().Add(-31 * 24 * time.Hour) }

	token, err := m.GenerateJWT(testUser(models.RoleCustomer))
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateJWT(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	other := NewTokenManager("other-secret", time.Hour)
	token, err := other.GenerateJWT(testUser(models.RoleCustomer))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour).ValidateJWT(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMalformedToken(t *testing.T) {
	_, err := NewTokenManager("secret", time.Hour).ValidateJWT("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(12999), ToCents(129.99))
	assert.Equal(t, int64(1250), ToCents(12.5))
	assert.Equal(t, int64(1), ToCents(0.005))
	assert.Equal(t, 129.99, FromCents(12999))
}
