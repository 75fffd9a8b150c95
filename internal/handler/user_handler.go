package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, principalID, id string, req auth.ProfileRequest) (*model.Profile, error)
	// Withdraw はアカウントを削除する。投稿とコメントも連鎖して削除される。
	Withdraw(ctx context.Context, principalID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// GetProfile は公開プロフィールを返す。
// GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile は本人のプロフィールを更新する。
// PUT /users/{id}
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req auth.ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Withdraw は退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
