// Package app はプロセスの起動、依存関係のワイヤリング、サブコマンドの実行を担う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/comment"
	"github.com/SocialCodeTFC/Backend/internal/config"
	"github.com/SocialCodeTFC/Backend/internal/database"
	"github.com/SocialCodeTFC/Backend/internal/handler"
	"github.com/SocialCodeTFC/Backend/internal/logger"
	"github.com/SocialCodeTFC/Backend/internal/metrics"
	"github.com/SocialCodeTFC/Backend/internal/middleware"
	"github.com/SocialCodeTFC/Backend/internal/post"
	"github.com/SocialCodeTFC/Backend/internal/repository"
	"github.com/SocialCodeTFC/Backend/internal/security"
	"github.com/SocialCodeTFC/Backend/internal/user"
	"github.com/SocialCodeTFC/Backend/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数を読み込み、ログレベルを反映する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		action, ok := ParseMigrateAction(args[1:])
		if !ok {
			return fmt.Errorf("usage: migrate [up | down [steps] | version]")
		}
		return runMigrate(cfg, action)
	default:
		return runServe(ctx, cfg)
	}
}

// services はHTTPサーバーが利用するドメインサービス一式。
type services struct {
	auth     *auth.Service
	posts    *post.Service
	comments *comment.Service
	users    *user.Service
	tokens   *auth.TokenIssuer
}

// buildServices はリポジトリとドメインサービスを組み立てる。
func buildServices(cfg *config.Config, accounts repository.AccountRepository, posts repository.PostRepository, comments repository.CommentRepository, recorder auth.OutcomeRecorder) *services {
	hasher := security.NewPBKDF2Hasher()
	sanitizer := security.NewContentSanitizer()
	tokens := auth.NewTokenIssuer(cfg.JWTKey, cfg.SessionTokenTTL)
	validator := auth.NewCredentialValidator(cfg.UsernameMarker)

	return &services{
		auth: auth.NewService(accounts, hasher, tokens, validator, recorder,
			auth.ServiceConfig{StoreTimeout: cfg.StoreTimeout}),
		posts: post.NewService(posts, accounts, sanitizer,
			post.ServiceConfig{StoreTimeout: cfg.StoreTimeout}),
		comments: comment.NewService(comments, posts, accounts, sanitizer,
			comment.ServiceConfig{StoreTimeout: cfg.StoreTimeout}),
		users:  user.NewService(accounts, validator, cfg.StoreTimeout),
		tokens: tokens,
	}
}

// newRegistry はプロセス・ランタイムのコレクタを含むPrometheusレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(ctx, db, cfg.StoreTimeout); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	svc := buildServices(cfg,
		repository.NewPostgresAccountRepo(db),
		repository.NewPostgresPostRepo(db),
		repository.NewPostgresCommentRepo(db),
		collector,
	)

	rateLimiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     svc.tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		HTTPObserver:      collector,

		Logger:         slog.Default(),
		HealthChecker:  db,
		HealthTimeout:  cfg.StoreTimeout,
		MetricsHandler: metrics.Handler(reg),

		AuthService:    svc.auth,
		PostService:    svc.posts,
		CommentService: svc.comments,
		UserService:    svc.users,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 保存済み投稿の整理ジョブをCLEANUP_INTERVALごとに実行する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(ctx, db, cfg.StoreTimeout); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established (worker)")

	reg := newRegistry()
	job := cleanup.NewCleanupJob(db, slog.Default(), metrics.NewCollector(reg))

	// ワーカーは /metrics のみを公開する
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	slog.Info("worker starting", slog.Duration("cleanup_interval", cfg.CleanupInterval))
	job.RunEvery(ctx, cfg.CleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config, action MigrateAction) error {
	slog.Info("running database migrations",
		slog.String("action", action.Name),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action.Name {
	case "down":
		if err := database.RollbackMigrations(cfg.DatabaseURL, action.Steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case "version":
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		slog.Info("current migration version",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードを伏せる。
// URLとして解釈できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
