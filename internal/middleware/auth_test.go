package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func signToken(t *testing.T, secret string, userID uuid.UUID, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_MissingHeaderIsRejected(t *testing.T) {
	handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_ExpiredTokenIsRejected(t *testing.T) {
	secret := "test-secret"
	handler := AuthMiddleware(secret, zap.NewNop())(okHandler())

	tokenString := signToken(t, secret, uuid.New(), "customer", -time.Hour)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_ValidTokenPopulatesContext(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	handlerCalled := false
	handler := AuthMiddleware(secret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		ctxUserID, ok := GetUserID(r.Context())
		if !ok || ctxUserID != userID {
			t.Errorf("expected user id %s in context, got %s (ok=%v)", userID, ctxUserID, ok)
		}
		role, ok := GetUserRole(r.Context())
		if !ok || role != "admin" {
			t.Errorf("expected role admin in context, got %q (ok=%v)", role, ok)
		}

		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, userID, "admin", time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled || w.Code != http.StatusOK {
		t.Errorf("expected the handler to run and return 200, got %d", w.Code)
	}
}

func TestProperty_MalformedBearerTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("garbage bearer tokens never pass", prop.ForAll(
		func(invalidToken string) bool {
			handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+invalidToken)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.Property("headers without a Bearer prefix never pass", prop.ForAll(
		func(header string) bool {
			handler := AuthMiddleware("test-secret", zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", header)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_WrongSecretIsRejected(t *testing.T) {
	handler := AuthMiddleware("right-secret", zap.NewNop())(okHandler())

	tokenString := signToken(t, "wrong-secret", uuid.New(), "customer", time.Hour)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestOptionalAuthMiddleware_AnonymousRequestsPassThrough(t *testing.T) {
	handlerCalled := false
	handler := OptionalAuthMiddleware("test-secret", zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if _, ok := GetUserID(r.Context()); ok {
			t.Error("anonymous request should carry no user id")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/cart", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled || w.Code != http.StatusOK {
		t.Errorf("expected the anonymous request to pass, got %d", w.Code)
	}
}

func TestOptionalAuthMiddleware_BadTokenIsStillRejected(t *testing.T) {
	handler := OptionalAuthMiddleware("test-secret", zap.NewNop())(okHandler())

	req := httptest.NewRequest("GET", "/cart", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected a present-but-invalid token to be rejected, got %d", w.Code)
	}
}

func TestGetCartToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/cart", nil)
	if token := GetCartToken(req); token != "" {
		t.Errorf("expected no cart token, got %q", token)
	}

	req.Header.Set(CartTokenHeader, "guest-abc")
	if token := GetCartToken(req); token != "guest-abc" {
		t.Errorf("expected guest-abc, got %q", token)
	}
}
