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

	"github.com/prosiga/enrollment-gateway/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	claims := models.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runAuth(secret, header string) (*httptest.ResponseRecorder, *models.SessionClaims) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/staging", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}

	var captured *models.SessionClaims
	Auth(secret)(c)
	if !c.IsAborted() {
		captured = Session(c)
	}
	return w, captured
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	w, session := runAuth("", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, session)
	assert.Contains(t, w.Body.String(), "AUTHENTICATION_MISSING")
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"token-without-scheme", "Basic abc", "Bearer ", "Bearer"} {
		w, session := runAuth("", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Nil(t, session, header)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	w, session := runAuth("", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, session)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestAuthInstallsSessionClaims(t *testing.T) {
	token := signedToken(t, "shared-secret", "aluno-1")

	w, session := runAuth("shared-secret", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, session)
	assert.Equal(t, "aluno-1", session.Subject)
	assert.Equal(t, token, session.Token)
}

func TestAuthWithoutSecretParsesUnverified(t *testing.T) {
	// Signed with a key the gateway does not hold; without a configured
	// secret the claims are read without signature verification.
	token := signedToken(t, "some-other-key", "aluno-2")

	w, session := runAuth("", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, session)
	assert.Equal(t, "aluno-2", session.Subject)
}

func TestAuthWithSecretRejectsBadSignature(t *testing.T) {
	token := signedToken(t, "wrong-secret", "aluno-1")

	w, session := runAuth("shared-secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, session)
}

func TestAuthRejectsTokenWithoutSubject(t *testing.T) {
	token := signedToken(t, "shared-secret", "")

	w, session := runAuth("shared-secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, session)
}
