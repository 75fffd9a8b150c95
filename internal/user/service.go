// Package user はユーザープロフィールと退会のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/model"
	"github.com/SocialCodeTFC/Backend/internal/ownership"
	"github.com/SocialCodeTFC/Backend/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	accounts     repository.AccountRepository
	validator    *auth.CredentialValidator
	storeTimeout time.Duration
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(accounts repository.AccountRepository, validator *auth.CredentialValidator, storeTimeout time.Duration) *Service {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &Service{accounts: accounts, validator: validator, storeTimeout: storeTimeout}
}

// GetProfile は公開プロフィールを返す。資格情報とトークンは含めない。
func (s *Service) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := model.ProfileOf(account)
	return &profile, nil
}

// UpdateProfile は本人のプロフィールを更新する。本人以外はForbidden。
// ユーザー名・メールアドレスの重複はConflict。
func (s *Service) UpdateProfile(ctx context.Context, principalID, id string, req auth.ProfileRequest) (*model.Profile, error) {
	account, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownership.IsOwner(account, principalID) {
		return nil, model.NewNotOwnerError()
	}
	if !s.validator.ValidateProfile(req) {
		return nil, model.NewInvalidRequestError("Profile request is not valid")
	}

	updated := *account
	updated.FirstName = strings.TrimSpace(req.FirstName)
	updated.LastName = strings.TrimSpace(req.LastName)
	updated.Email = strings.TrimSpace(req.Email)
	updated.Username = strings.TrimSpace(req.Username)

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.accounts.UpdateProfile(storeCtx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, model.NewDuplicateAccountError()
		case errors.Is(err, repository.ErrNotFound):
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	profile := model.ProfileOf(&updated)
	return &profile, nil
}

// Withdraw は本人のアカウントを削除する。投稿とコメントはCASCADE削除される。
func (s *Service) Withdraw(ctx context.Context, principalID string) error {
	if _, err := s.find(ctx, principalID); err != nil {
		return err
	}

	slog.Info("退会処理を開始します", slog.String("user_id", principalID))

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.accounts.Delete(storeCtx, principalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", principalID))
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewInvalidRequestError("User id is not valid")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	account, err := s.accounts.FindByID(storeCtx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}
	return account, nil
}
