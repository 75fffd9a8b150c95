package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

func TestRouter_Health(t *testing.T) {
	t.Run("DB疎通ありは200", func(t *testing.T) {
		h := newTestRouter(t, testDeps{health: pingFunc(func(ctx context.Context) error { return nil })})
		if w := do(t, h, http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("DB疎通なしは503", func(t *testing.T) {
		h := newTestRouter(t, testDeps{health: pingFunc(func(ctx context.Context) error { return errors.New("refused") })})
		if w := do(t, h, http.MethodGet, "/health", "", ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
	})
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	h := newTestRouter(t, testDeps{})

	w := do(t, h, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_InvalidBearerReturns401(t *testing.T) {
	h := newTestRouter(t, testDeps{})

	req := "/posts/recent"
	w := do(t, h, http.MethodGet, req, "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRouter_AppliesSecurityAndCORSHeaders(t *testing.T) {
	h := newTestRouter(t, testDeps{})

	w := do(t, h, http.MethodOptions, "/posts", "", "")

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	svc := &mockPostService{
		getFn: func(ctx context.Context, id string) (*model.PostView, error) {
			panic("unexpected")
		},
	}
	h := newTestRouter(t, testDeps{posts: svc})

	w := do(t, h, http.MethodGet, "/posts/p1", "", "acc-1")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind model.ErrorKind
		want int
	}{
		{model.KindBadRequest, http.StatusBadRequest},
		{model.KindNotFound, http.StatusNotFound},
		{model.KindForbidden, http.StatusForbidden},
		{model.KindConflict, http.StatusConflict},
		{model.KindGeneric, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
