package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"sub":  "42",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c, called := runAuth(t, "Bearer "+token)
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextUserID) != 42 {
		t.Fatalf("user_id not set: %v", c.Get(ContextUserID))
	}
	if c.Get(ContextRole) != "admin" {
		t.Fatalf("role not set: %v", c.Get(ContextRole))
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired := signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"sub": "1", "role": "customer", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "1"})
	noSubject := signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"role": "admin"})
	numericSubject := signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "abc"})
	unsigned := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "1"})

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc",
		"garbage token":   "Bearer not-a-token",
		"expired":         "Bearer " + expired,
		"wrong key":       "Bearer " + wrongKey,
		"no subject":      "Bearer " + noSubject,
		"non-numeric sub": "Bearer " + numericSubject,
		"alg none":        "Bearer " + unsigned,
	}
	for name, header := range cases {
		rec, _, called := runAuth(t, header)
		if called {
			t.Fatalf("%s: should not reach next", name)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}
