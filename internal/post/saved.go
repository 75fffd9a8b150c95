package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SocialCodeTFC/Backend/internal/model"
	"github.com/SocialCodeTFC/Backend/internal/repository"
)

// SavePost は投稿を保存済みに追加する。既に保存済みの場合は何もしない。
func (s *Service) SavePost(ctx context.Context, principalID, postID string) error {
	if _, err := s.findLive(ctx, postID); err != nil {
		return err
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.accounts.AddSavedPost(storeCtx, principalID, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("保存済み投稿の追加に失敗しました: %w", err)
	}

	slog.Info("post saved",
		slog.String("post_id", postID),
		slog.String("user_id", principalID),
	)
	return nil
}

// UnsavePost は投稿を保存済みから外す。削除済みの投稿も外せる。
func (s *Service) UnsavePost(ctx context.Context, principalID, postID string) error {
	if !validID(postID) {
		return model.NewInvalidRequestError("Post id is not valid")
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.accounts.RemoveSavedPost(storeCtx, principalID, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError()
		}
		return fmt.Errorf("保存済み投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// ListSavedPosts は保存済みの投稿を保存順に返す。論理削除済みの投稿は除外する。
func (s *Service) ListSavedPosts(ctx context.Context, principalID string) ([]model.PostView, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	account, err := s.accounts.FindByID(storeCtx, principalID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}

	posts, err := s.posts.ListByIDs(storeCtx, account.SavedPostIDs)
	if err != nil {
		return nil, fmt.Errorf("保存済み投稿の取得に失敗しました: %w", err)
	}
	return viewsOf(liveOnly(posts)), nil
}
