// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, req auth.LoginRequest) (*model.AuthResult, error)
	Register(ctx context.Context, req auth.RegisterRequest) (*model.AuthResult, error)
	RefreshToken(ctx context.Context, req auth.RefreshRequest) (*model.AuthResult, error)
}

// AuthHandler はログイン・登録・トークン更新のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register はアカウントを登録し、トークンペアを返す。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w)
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Login は資格情報を検証し、新しいトークンペアを返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w)
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Refresh はリフレッシュトークンを新しいトークンペアと交換する。
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w)
		return
	}

	result, err := h.service.RefreshToken(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
