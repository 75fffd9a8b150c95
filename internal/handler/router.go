package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SocialCodeTFC/Backend/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.SessionTokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPObserver      middleware.HTTPObserver // nilの場合は計測しない

	// 運用
	Logger         *slog.Logger // nilの場合はslog.Default()
	HealthChecker  HealthChecker
	HealthTimeout  time.Duration
	MetricsHandler http.Handler // nilの場合は /metrics を公開しない

	// サービス
	AuthService    AuthServiceInterface
	PostService    PostServiceInterface
	CommentService CommentServiceInterface
	UserService    UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS
//	  /auth/*: RateLimit(Auth)
//	  その他:  BearerAuth → RateLimit(General)
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPObserver != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPObserver))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	postHandler := NewPostHandler(deps.PostService)
	commentHandler := NewCommentHandler(deps.CommentService)
	userHandler := NewUserHandler(deps.UserService)

	healthTimeout := deps.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 2 * time.Second
	}

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker, healthTimeout))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", postHandler.CreatePost)
			r.Get("/", postHandler.ListPostsByTags)
			r.Get("/recent", postHandler.ListRecentPosts)
			r.Get("/user/{userId}", postHandler.ListUserPosts)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.Put("/", postHandler.ModifyPost)
				r.Delete("/", postHandler.DeletePost)

				r.Post("/save", postHandler.SavePost)
				r.Delete("/save", postHandler.UnsavePost)

				r.Get("/comments", commentHandler.ListComments)
				r.Post("/comments", commentHandler.AddComment)
			})
		})

		r.Delete("/comments/{id}", commentHandler.DeleteComment)

		r.Route("/users", func(r chi.Router) {
			r.Get("/me/saved", postHandler.ListSavedPosts)
			r.Delete("/me", userHandler.Withdraw)
			r.Get("/{id}", userHandler.GetProfile)
			r.Put("/{id}", userHandler.UpdateProfile)
		})
	})

	return r
}
