package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tokenString, err := GenerateToken(42, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userID, role, err := ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, "admin", role)
}

func TestValidateToken_Expired(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  int64(7),
		"role": "customer",
		"iat":  time.Now().Add(-48 * time.Hour).Unix(),
		"exp":  time.Now().Add(-24 * time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecretKey)
	require.NoError(t, err)

	_, _, err = ValidateToken(tokenString)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  int64(7),
		"role": "customer",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, _, err = ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, _, err := ValidateToken("not.a.token")
	assert.Error(t, err)

	_, _, err = ValidateToken("")
	assert.Error(t, err)
}

func TestValidateToken_MissingRoleClaim(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": int64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecretKey)
	require.NoError(t, err)

	_, _, err = ValidateToken(tokenString)
	assert.Error(t, err)
}
