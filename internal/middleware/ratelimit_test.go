package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/posts/recent", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

func TestGeneralMiddleware_Returns429AfterBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAs("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("user-1"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want a positive integer", w.Header().Get("Retry-After"))
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want RATE_LIMIT_EXCEEDED", body.Code)
	}
}

func TestGeneralMiddleware_IsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestAs("noisy"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAs("quiet"))
	if w.Code != http.StatusOK {
		t.Errorf("other user status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestGeneralMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_KeysByClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()
	handler := rl.AuthMiddleware()(okHandler())

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if got := send("10.0.0.1:1111"); got != http.StatusOK {
		t.Fatalf("first status = %d, want 200", got)
	}
	if got := send("10.0.0.1:2222"); got != http.StatusTooManyRequests {
		t.Errorf("same IP other port status = %d, want 429", got)
	}
	if got := send("10.0.0.2:1111"); got != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", got)
	}
	if rl.AuthLimiterCount() != 2 {
		t.Errorf("AuthLimiterCount = %d, want 2", rl.AuthLimiterCount())
	}
}

func TestAuthMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	rl.AuthMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAs("user-1"))

	w := httptest.NewRecorder()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(w, requestAs("user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("general status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAs("user-1"))
	rl.AuthMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAs("user-1"))

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 || rl.AuthLimiterCount() != 1 {
		t.Fatal("fresh entries must survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 || rl.AuthLimiterCount() != 0 {
		t.Errorf("expired entries remain: general=%d auth=%d", rl.GeneralLimiterCount(), rl.AuthLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestPerMinuteRateLimiterConfig(t *testing.T) {
	cfg := PerMinuteRateLimiterConfig(120, 20)

	if cfg.GeneralRate != 2 {
		t.Errorf("GeneralRate = %v, want 2", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 || cfg.AuthBurst != 20 {
		t.Errorf("bursts = %d/%d, want 120/20", cfg.GeneralBurst, cfg.AuthBurst)
	}
	if DefaultRateLimiterConfig() != cfg {
		t.Error("DefaultRateLimiterConfig should equal PerMinuteRateLimiterConfig(120, 20)")
	}
}
