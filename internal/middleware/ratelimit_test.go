package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func setupRateLimit(t *testing.T, limit int, window time.Duration) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            window,
		KeyPrefix:         "ratelimit_test",
	}
	return RateLimitMiddleware(client, config, zap.NewNop())(okHandler()), mr
}

func TestRateLimit_AllowsRequestsUnderTheLimit(t *testing.T) {
	handler, _ := setupRateLimit(t, 5, time.Minute)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRateLimit_RejectsRequestsOverTheLimit(t *testing.T) {
	handler, _ := setupRateLimit(t, 3, time.Minute)

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the fourth request, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", last.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_ClientsAreCountedSeparately(t *testing.T) {
	handler, _ := setupRateLimit(t, 1, time.Minute)

	first := httptest.NewRequest("GET", "/test", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for the first client, got %d", w.Code)
	}

	second := httptest.NewRequest("GET", "/test", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	if w.Code != http.StatusOK {
		t.Errorf("expected a different client to have its own budget, got %d", w.Code)
	}
}

func TestRateLimit_WindowExpiryResetsTheCounter(t *testing.T) {
	handler, mr := setupRateLimit(t, 1, time.Minute)

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", w.Code)
	}

	mr.FastForward(2 * time.Minute)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected the counter to reset after the window, got %d", w.Code)
	}
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	handler, mr := setupRateLimit(t, 1, time.Minute)
	mr.Close()

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected the request to pass when Redis is unreachable, got %d", w.Code)
	}
}
