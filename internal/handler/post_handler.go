package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	CreatePost(ctx context.Context, principalID string, in model.PostInput) (*model.PostView, error)
	GetPost(ctx context.Context, id string) (*model.PostView, error)
	ModifyPost(ctx context.Context, principalID, id string, in model.PostInput) (*model.PostView, error)
	DeletePost(ctx context.Context, principalID, id string) error
	ListUserPosts(ctx context.Context, userID string) ([]model.PostView, error)
	ListRecentPosts(ctx context.Context, limit, offset int) (*model.PostPage, error)
	ListPostsByTags(ctx context.Context, tags []string, limit, offset int) (*model.PostPage, error)

	// 保存済み投稿
	SavePost(ctx context.Context, principalID, postID string) error
	UnsavePost(ctx context.Context, principalID, postID string) error
	ListSavedPosts(ctx context.Context, principalID string) ([]model.PostView, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// deletePostResponse は投稿削除のレスポンス。
type deletePostResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// CreatePost は投稿を作成する。
// POST /posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var in model.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w)
		return
	}

	view, err := h.service.CreatePost(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// GetPost は投稿詳細を返す。
// GET /posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ModifyPost は投稿を更新する。作成者本人のみ実行できる。
// PUT /posts/{id}
func (h *PostHandler) ModifyPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var in model.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeDecodeError(w)
		return
	}

	view, err := h.service.ModifyPost(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// DeletePost は投稿を論理削除する。作成者本人のみ実行できる。
// DELETE /posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeletePost(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deletePostResponse{ID: id, Deleted: true})
}

// ListUserPosts は指定ユーザーの未削除投稿を返す。
// GET /posts/user/{userId}
func (h *PostHandler) ListUserPosts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListUserPosts(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// ListRecentPosts は新着投稿を返す。
// GET /posts/recent?limit=20&offset=0
func (h *PostHandler) ListRecentPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListRecentPosts(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ListPostsByTags はタグで投稿を検索する。
// GET /posts?tags=go,sql&limit=20&offset=0
func (h *PostHandler) ListPostsByTags(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}

	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	page, err := h.service.ListPostsByTags(r.Context(), tags, limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// SavePost は投稿を保存済みリストに追加する。
// POST /posts/{id}/save
func (h *PostHandler) SavePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	if err := h.service.SavePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnsavePost は投稿を保存済みリストから外す。
// DELETE /posts/{id}/save
func (h *PostHandler) UnsavePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	if err := h.service.UnsavePost(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSavedPosts は保存済みの未削除投稿を保存順に返す。
// GET /users/me/saved
func (h *PostHandler) ListSavedPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListSavedPosts(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// pageParams はlimit/offsetを読む。整数でない場合は400を書き込む。
func pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit, errLimit := queryInt(r, "limit")
	offset, errOffset := queryInt(r, "offset")
	if errLimit != nil || errOffset != nil {
		handleServiceError(w, model.NewInvalidPaginationError())
		return 0, 0, false
	}
	return limit, offset, true
}
