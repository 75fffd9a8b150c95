package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	AddComment(ctx context.Context, principalID, postID, content string) (*model.CommentView, error)
	ListComments(ctx context.Context, postID string) ([]model.CommentView, error)
	DeleteComment(ctx context.Context, principalID, commentID string) error
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// AddComment は投稿にコメントを追加する。
// POST /posts/{id}/comments
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req addCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w)
		return
	}

	view, err := h.service.AddComment(r.Context(), userID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// ListComments は投稿のコメントを古い順に返す。
// GET /posts/{id}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// DeleteComment はコメントを削除する。投稿者本人のみ実行できる。
// DELETE /comments/{id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteComment(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
