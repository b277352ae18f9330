package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chaptered/core/internal/pkg/allowlist"
	"github.com/chaptered/core/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestAuthRouter(t *testing.T, secret string, allowed *allowlist.Allowlist) *gin.Engine {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	am := NewAuthMiddleware(log, secret, allowed)

	r := gin.New()
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func signToken(t *testing.T, secret, email string) string {
	t.Helper()
	claims := jwtClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r := newTestAuthRouter(t, "secret", allowlist.New(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d", w.Code)
	}
}

func TestRequireAuthRejectsUnverifiedEmail(t *testing.T) {
	r := newTestAuthRouter(t, "secret", allowlist.New(""))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "nobody@example.com"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRequireAuthAllowsVerifiedEmail(t *testing.T) {
	allowed := allowlist.New(allowlist.HashEmail("student@example.com"))
	r := newTestAuthRouter(t, "secret", allowed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "student@example.com"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRequireAuthRejectsWrongSigningSecret(t *testing.T) {
	allowed := allowlist.New(allowlist.HashEmail("student@example.com"))
	r := newTestAuthRouter(t, "secret", allowed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", "student@example.com"))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=401 got=%d body=%s", w.Code, w.Body.String())
	}
}
