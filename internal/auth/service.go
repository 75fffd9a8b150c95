// Package auth はパスワード認証、トークン発行、トークン更新を提供する。
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SocialCodeTFC/Backend/internal/model"
	"github.com/SocialCodeTFC/Backend/internal/repository"
	"github.com/SocialCodeTFC/Backend/internal/security"
)

// DefaultStoreTimeout はストア呼び出し1回あたりの既定のタイムアウト。
const DefaultStoreTimeout = 5 * time.Second

// TokenService はAuth Coreが利用するトークン操作のインターフェース。
// *TokenIssuer が実装する。
type TokenService interface {
	IssueTokens(account *model.Account) (TokenPair, error)
	CheckStructure(token string) error
	SubjectOf(token string) (string, error)
}

// OutcomeRecorder は認証操作の結果を記録する。
type OutcomeRecorder interface {
	RecordAuthOutcome(operation string, kind model.ErrorKind, success bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthOutcome(string, model.ErrorKind, bool) {}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	StoreTimeout time.Duration // ストア呼び出し1回あたりのタイムアウト
}

// Service はログイン・登録・トークン更新を行う。
// 各操作は最初の失敗で打ち切り、*model.APIError を返す。
type Service struct {
	accounts  repository.AccountRepository
	hasher    security.PasswordHasher
	tokens    TokenService
	validator *CredentialValidator
	recorder  OutcomeRecorder
	config    ServiceConfig
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	accounts repository.AccountRepository,
	hasher security.PasswordHasher,
	tokens TokenService,
	validator *CredentialValidator,
	recorder OutcomeRecorder,
	config ServiceConfig,
) *Service {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = DefaultStoreTimeout
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		recorder:  recorder,
		config:    config,
	}
}

// Login はユーザー名とパスワードで認証し、新しいトークン対を発行して保存する。
func (s *Service) Login(ctx context.Context, req LoginRequest) (result *model.AuthResult, err error) {
	defer func() { s.record("login", err) }()

	if !s.validator.ValidateLogin(req) {
		return nil, model.NewInvalidLoginError()
	}

	account, err := s.findByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !s.hasher.Verify(account.PasswordHash, req.Password) {
		return nil, model.NewCredentialMismatchError()
	}

	result, err = s.rotateTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in",
		slog.String("user_id", account.ID),
		slog.String("username", account.Username),
	)
	return result, nil
}

// Register は新しいアカウントを作成し、トークン対を発行する。
// ユーザー名・メールアドレスの重複はストアの一意制約で検出する。
func (s *Service) Register(ctx context.Context, req RegisterRequest) (result *model.AuthResult, err error) {
	defer func() { s.record("register", err) }()

	if !s.validator.ValidateRegistration(req) {
		return nil, model.NewInvalidRegisterError()
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		SavedPostIDs: []string{},
	}

	pair, err := s.tokens.IssueTokens(account)
	if err != nil {
		slog.Error("failed to issue tokens", slog.String("error", err.Error()))
		return nil, model.NewInternalError("Failed creating user tokens")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		slog.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, model.NewInternalError("Failed creating user")
	}

	account.PasswordHash = hash
	account.SessionToken = &pair.SessionToken
	account.RefreshToken = &pair.RefreshToken

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.accounts.Insert(storeCtx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewDuplicateAccountError()
		}
		slog.Error("failed to insert account", slog.String("error", err.Error()))
		return nil, model.NewInternalError("Failed creating user")
	}

	slog.Info("user registered",
		slog.String("user_id", account.ID),
		slog.String("username", account.Username),
	)
	return authResultOf(account, pair), nil
}

// RefreshToken はセッショントークンとリフレッシュトークンを検証し、新しいトークン対に置き換える。
// セッショントークンの有効期限は検証しない。
func (s *Service) RefreshToken(ctx context.Context, req RefreshRequest) (result *model.AuthResult, err error) {
	defer func() { s.record("refresh", err) }()

	if verr := s.tokens.CheckStructure(req.SessionToken); verr != nil {
		if errors.Is(verr, ErrSigningKeyMissing) {
			slog.Error("failed to validate session token", slog.String("error", verr.Error()))
			return nil, model.NewInternalError("Failed validating user tokens")
		}
		return nil, model.NewInvalidTokenError()
	}

	if _, perr := uuid.Parse(req.UserID); perr != nil {
		return nil, model.NewInvalidRequestError("User id is not valid")
	}

	subject, err := s.tokens.SubjectOf(req.SessionToken)
	if err != nil || subject != req.UserID {
		return nil, model.NewInvalidTokenError()
	}

	account, err := s.findByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}

	if !refreshTokenMatches(account.RefreshToken, req.RefreshToken) {
		return nil, model.NewRefreshMismatchError()
	}

	result, err = s.rotateTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	slog.Info("tokens refreshed", slog.String("user_id", account.ID))
	return result, nil
}

// rotateTokens は新しいトークン対を発行し、トークン列だけを1回の置換で保存する。
// 保存に失敗した場合、保存済みのトークン対は変更されない。
func (s *Service) rotateTokens(ctx context.Context, account *model.Account) (*model.AuthResult, error) {
	pair, err := s.tokens.IssueTokens(account)
	if err != nil {
		slog.Error("failed to issue tokens",
			slog.String("user_id", account.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInternalError("Failed creating user tokens")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.accounts.ReplaceTokens(storeCtx, account.ID, pair.SessionToken, pair.RefreshToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		slog.Error("failed to persist tokens",
			slog.String("user_id", account.ID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInternalError("Failed saving user tokens")
	}

	return authResultOf(account, pair), nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (*model.Account, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	account, err := s.accounts.FindByUsername(storeCtx, username)
	if err != nil {
		slog.Error("failed to find account", slog.String("error", err.Error()))
		return nil, model.NewInternalError("Failed loading user")
	}
	return account, nil
}

func (s *Service) findByID(ctx context.Context, id string) (*model.Account, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	account, err := s.accounts.FindByID(storeCtx, id)
	if err != nil {
		slog.Error("failed to find account",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInternalError("Failed loading user")
	}
	return account, nil
}

func (s *Service) record(operation string, err error) {
	if err == nil {
		s.recorder.RecordAuthOutcome(operation, "", true)
		return
	}
	s.recorder.RecordAuthOutcome(operation, model.KindOf(err), false)
}

func refreshTokenMatches(stored *string, candidate string) bool {
	if stored == nil || *stored == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(candidate)) == 1
}

func authResultOf(account *model.Account, pair TokenPair) *model.AuthResult {
	return &model.AuthResult{
		ID:           account.ID,
		Username:     account.Username,
		SessionToken: pair.SessionToken,
		RefreshToken: pair.RefreshToken,
	}
}
