package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGateRouter wires the gate in front of a trivial handler. Requests
// in these tests are rejected before the database is touched, so a nil
// *sql.DB is fine.
func newGateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Authenticate(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	w := doRequest(newGateRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	router := newGateRouter()

	for _, header := range []string{
		"sometoken",
		"Basic c29tZXRva2Vu",
		"Bearer",
		"Bearer one two",
	} {
		w := doRequest(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Contains(t, w.Body.String(), "Invalid token format", header)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	w := doRequest(newGateRouter(), "Bearer not.a.real.token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  int64(1),
		"role": "customer",
		"iat":  time.Now().Add(-48 * time.Hour).Unix(),
		"exp":  time.Now().Add(-24 * time.Hour).Unix(),
	}
	// Signed with the package's development fallback secret.
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("MobileECommerce2025"))
	require.NoError(t, err)

	w := doRequest(newGateRouter(), "Bearer "+tokenString)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}
