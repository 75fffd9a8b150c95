package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/middleware"
	"github.com/SocialCodeTFC/Backend/internal/model"
)

// --- モック ---

type mockAuthService struct {
	loginFn    func(ctx context.Context, req auth.LoginRequest) (*model.AuthResult, error)
	registerFn func(ctx context.Context, req auth.RegisterRequest) (*model.AuthResult, error)
	refreshFn  func(ctx context.Context, req auth.RefreshRequest) (*model.AuthResult, error)
}

func (m *mockAuthService) Login(ctx context.Context, req auth.LoginRequest) (*model.AuthResult, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*model.AuthResult, error) {
	return m.registerFn(ctx, req)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, req auth.RefreshRequest) (*model.AuthResult, error) {
	return m.refreshFn(ctx, req)
}

type mockPostService struct {
	createFn     func(ctx context.Context, principalID string, in model.PostInput) (*model.PostView, error)
	getFn        func(ctx context.Context, id string) (*model.PostView, error)
	modifyFn     func(ctx context.Context, principalID, id string, in model.PostInput) (*model.PostView, error)
	deleteFn     func(ctx context.Context, principalID, id string) error
	listUserFn   func(ctx context.Context, userID string) ([]model.PostView, error)
	listRecentFn func(ctx context.Context, limit, offset int) (*model.PostPage, error)
	listTagsFn   func(ctx context.Context, tags []string, limit, offset int) (*model.PostPage, error)
	saveFn       func(ctx context.Context, principalID, postID string) error
	unsaveFn     func(ctx context.Context, principalID, postID string) error
	listSavedFn  func(ctx context.Context, principalID string) ([]model.PostView, error)
}

func (m *mockPostService) CreatePost(ctx context.Context, principalID string, in model.PostInput) (*model.PostView, error) {
	return m.createFn(ctx, principalID, in)
}

func (m *mockPostService) GetPost(ctx context.Context, id string) (*model.PostView, error) {
	return m.getFn(ctx, id)
}

func (m *mockPostService) ModifyPost(ctx context.Context, principalID, id string, in model.PostInput) (*model.PostView, error) {
	return m.modifyFn(ctx, principalID, id, in)
}

func (m *mockPostService) DeletePost(ctx context.Context, principalID, id string) error {
	return m.deleteFn(ctx, principalID, id)
}

func (m *mockPostService) ListUserPosts(ctx context.Context, userID string) ([]model.PostView, error) {
	return m.listUserFn(ctx, userID)
}

func (m *mockPostService) ListRecentPosts(ctx context.Context, limit, offset int) (*model.PostPage, error) {
	return m.listRecentFn(ctx, limit, offset)
}

func (m *mockPostService) ListPostsByTags(ctx context.Context, tags []string, limit, offset int) (*model.PostPage, error) {
	return m.listTagsFn(ctx, tags, limit, offset)
}

func (m *mockPostService) SavePost(ctx context.Context, principalID, postID string) error {
	return m.saveFn(ctx, principalID, postID)
}

func (m *mockPostService) UnsavePost(ctx context.Context, principalID, postID string) error {
	return m.unsaveFn(ctx, principalID, postID)
}

func (m *mockPostService) ListSavedPosts(ctx context.Context, principalID string) ([]model.PostView, error) {
	return m.listSavedFn(ctx, principalID)
}

type mockCommentService struct {
	addFn    func(ctx context.Context, principalID, postID, content string) (*model.CommentView, error)
	listFn   func(ctx context.Context, postID string) ([]model.CommentView, error)
	deleteFn func(ctx context.Context, principalID, commentID string) error
}

func (m *mockCommentService) AddComment(ctx context.Context, principalID, postID, content string) (*model.CommentView, error) {
	return m.addFn(ctx, principalID, postID, content)
}

func (m *mockCommentService) ListComments(ctx context.Context, postID string) ([]model.CommentView, error) {
	return m.listFn(ctx, postID)
}

func (m *mockCommentService) DeleteComment(ctx context.Context, principalID, commentID string) error {
	return m.deleteFn(ctx, principalID, commentID)
}

type mockUserService struct {
	getFn      func(ctx context.Context, id string) (*model.Profile, error)
	updateFn   func(ctx context.Context, principalID, id string, req auth.ProfileRequest) (*model.Profile, error)
	withdrawFn func(ctx context.Context, principalID string) error
}

func (m *mockUserService) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	return m.getFn(ctx, id)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, principalID, id string, req auth.ProfileRequest) (*model.Profile, error) {
	return m.updateFn(ctx, principalID, id, req)
}

func (m *mockUserService) Withdraw(ctx context.Context, principalID string) error {
	return m.withdrawFn(ctx, principalID)
}

// tokenVerifier は "token-<id>" 形式のトークンを受け付ける。
type tokenVerifier struct{}

func (tokenVerifier) ParseSessionToken(token string) (*auth.Claims, error) {
	id, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, auth.ErrInvalidSessionToken
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: id}}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// コンパイル時のインターフェース実装チェック
var (
	_ AuthServiceInterface    = (*mockAuthService)(nil)
	_ PostServiceInterface    = (*mockPostService)(nil)
	_ CommentServiceInterface = (*mockCommentService)(nil)
	_ UserServiceInterface    = (*mockUserService)(nil)
)

// --- ヘルパー ---

type testDeps struct {
	auth    *mockAuthService
	posts   *mockPostService
	comment *mockCommentService
	users   *mockUserService
	health  HealthChecker
}

func newTestRouter(t *testing.T, d testDeps) http.Handler {
	t.Helper()
	if d.auth == nil {
		d.auth = &mockAuthService{}
	}
	if d.posts == nil {
		d.posts = &mockPostService{}
	}
	if d.comment == nil {
		d.comment = &mockCommentService{}
	}
	if d.users == nil {
		d.users = &mockUserService{}
	}

	rl := middleware.NewRateLimiter(middleware.PerMinuteRateLimiterConfig(1000, 1000))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		TokenVerifier:     tokenVerifier{},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		HealthChecker:     d.health,
		HealthTimeout:     time.Second,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics"))
		}),
		AuthService:    d.auth,
		PostService:    d.posts,
		CommentService: d.comment,
		UserService:    d.users,
	})
}

// do はリクエストを送る。asが空でなければ "token-<as>" をBearerとして付与する。
func do(t *testing.T, h http.Handler, method, path, body, as string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer token-"+as)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
