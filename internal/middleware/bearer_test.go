package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SocialCodeTFC/Backend/internal/auth"
)

type stubVerifier struct {
	parseFn func(token string) (*auth.Claims, error)
}

func (s *stubVerifier) ParseSessionToken(token string) (*auth.Claims, error) {
	return s.parseFn(token)
}

func acceptToken(valid, subject string) *stubVerifier {
	return &stubVerifier{parseFn: func(token string) (*auth.Claims, error) {
		if token != valid {
			return nil, auth.ErrInvalidSessionToken
		}
		return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}, nil
	}}
}

func TestBearerAuthMiddleware_InjectsSubject(t *testing.T) {
	var gotUserID string
	handler := NewBearerAuthMiddleware(acceptToken("good-token", "acc-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/me/saved", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != "acc-1" {
		t.Errorf("user id = %q, want acc-1", gotUserID)
	}
}

func TestBearerAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"ヘッダーなし", ""},
		{"Bearer以外のスキーム", "Basic dXNlcjpwYXNz"},
		{"トークンが空", "Bearer "},
		{"検証に失敗するトークン", "Bearer bad-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewBearerAuthMiddleware(acceptToken("good-token", "acc-1"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/users/me/saved", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if called {
				t.Error("next handler must not be called")
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestBearerAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	handler := NewBearerAuthMiddleware(acceptToken("t", "acc-2"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("expected error for context without user id")
	}
}
