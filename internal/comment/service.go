// Package comment は投稿へのコメントのドメインロジックを提供する。
package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SocialCodeTFC/Backend/internal/model"
	"github.com/SocialCodeTFC/Backend/internal/ownership"
	"github.com/SocialCodeTFC/Backend/internal/repository"
	"github.com/SocialCodeTFC/Backend/internal/security"
)

const maxContentLength = 2000

// ServiceConfig はコメントサービスの設定。
type ServiceConfig struct {
	StoreTimeout time.Duration
}

// Service はコメントのサービス層。
type Service struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	accounts  repository.AccountRepository
	sanitizer security.ContentSanitizerService
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	sanitizer security.ContentSanitizerService,
	config ServiceConfig,
) *Service {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	return &Service{
		comments:  comments,
		posts:     posts,
		accounts:  accounts,
		sanitizer: sanitizer,
		config:    config,
	}
}

// AddComment は投稿にコメントを追加する。
// 投稿が存在しないか論理削除済みの場合、投稿者が存在しない場合はNotFound。
func (s *Service) AddComment(ctx context.Context, principalID, postID, content string) (*model.CommentView, error) {
	content = strings.TrimSpace(s.sanitizer.SanitizeComment(content))
	if content == "" {
		return nil, model.NewInvalidCommentError()
	}
	if len([]rune(content)) > maxContentLength {
		return nil, model.NewInvalidRequestError("Comment is too long")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.ensureLivePost(storeCtx, postID); err != nil {
		return nil, err
	}

	author, err := s.accounts.FindByID(storeCtx, principalID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewUserNotFoundError()
	}

	c := &model.Comment{
		ID:             uuid.NewString(),
		PostID:         postID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.comments.Insert(storeCtx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	slog.Info("comment added",
		slog.String("comment_id", c.ID),
		slog.String("post_id", postID),
		slog.String("user_id", principalID),
	)

	view := model.CommentViewOf(c)
	return &view, nil
}

// ListComments は投稿のコメントを古い順に返す。論理削除済みの投稿はNotFound。
func (s *Service) ListComments(ctx context.Context, postID string) ([]model.CommentView, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	if err := s.ensureLivePost(storeCtx, postID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(storeCtx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}

	views := make([]model.CommentView, len(comments))
	for i, c := range comments {
		views[i] = model.CommentViewOf(c)
	}
	return views, nil
}

// DeleteComment はコメントを削除する。コメント投稿者以外はForbidden。
func (s *Service) DeleteComment(ctx context.Context, principalID, commentID string) error {
	if _, err := uuid.Parse(commentID); err != nil {
		return model.NewInvalidRequestError("Comment id is not valid")
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.config.StoreTimeout)
	defer cancel()

	c, err := s.comments.FindByID(storeCtx, commentID)
	if err != nil {
		return fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return model.NewCommentNotFoundError(commentID)
	}
	if !ownership.IsOwner(c, principalID) {
		return model.NewNotOwnerError()
	}

	if err := s.comments.Delete(storeCtx, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewCommentNotFoundError(commentID)
		}
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Service) ensureLivePost(ctx context.Context, postID string) error {
	if _, err := uuid.Parse(postID); err != nil {
		return model.NewInvalidRequestError("Post id is not valid")
	}

	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil || p.IsDeleted {
		return model.NewPostNotFoundError(postID)
	}
	return nil
}
