package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": c.GetString("user_id"), "role": c.GetString("role")})
}

func sign(t *testing.T, secret string, cl claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthWithoutSecretIsLocalAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(AuthConfig{}), RequireAdmin(), whoami)

	w := serve(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"local","role":"admin"}`, w.Body.String())
}

func TestJWTAuthValidatesToken(t *testing.T) {
	cfg := AuthConfig{Secret: "s3cret", Issuer: "applytrack"}
	r := gin.New()
	r.GET("/me", JWTAuth(cfg), whoami)

	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	good := sign(t, "s3cret", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "applytrack", ExpiresAt: exp}})
	w := serve(r, good)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u1","role":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, sign(t, "other", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "applytrack"}})).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, sign(t, "s3cret", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", Issuer: "elsewhere"}})).Code)
}

func TestRequireAdminRejectsUsers(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(AuthConfig{Secret: "k"}), RequireAdmin(), whoami)

	user := sign(t, "k", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	assert.Equal(t, http.StatusForbidden, serve(r, user).Code)

	admin := sign(t, "k", claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u2"}, AppMetadata: map[string]any{"role": "admin"}})
	assert.Equal(t, http.StatusOK, serve(r, admin).Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	r := gin.New()
	r.Use(RequestLogger(l))
	r.GET("/me", whoami)

	w := serve(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"path":"/me"`)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}
