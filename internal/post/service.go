// Package post は投稿・保存済み投稿のドメインロジックを提供する。
package post

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

// ページングの既定値と上限。
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ServiceConfig は投稿サービスの設定。
type ServiceConfig struct {
	StoreTimeout time.Duration
}

// Service は投稿のサービス層。
// 論理削除済みの投稿は全ての読み取り経路で除外する。
type Service struct {
	posts     repository.PostRepository
	accounts  repository.AccountRepository
	sanitizer security.ContentSanitizerService
	config    ServiceConfig
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	posts repository.PostRepository,
	accounts repository.AccountRepository,
	sanitizer security.ContentSanitizerService,
	config ServiceConfig,
) *Service {
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = 5 * time.Second
	}
	return &Service{
		posts:     posts,
		accounts:  accounts,
		sanitizer: sanitizer,
		config:    config,
		now:       time.Now,
	}
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.config.StoreTimeout)
}

// CreatePost は投稿を作成する。作成者はprincipalIDで固定される。
func (s *Service) CreatePost(ctx context.Context, principalID string, in model.PostInput) (*model.PostView, error) {
	if apiErr := validateInput(in); apiErr != nil {
		return nil, apiErr
	}

	p := &model.Post{
		ID:          uuid.NewString(),
		AuthorID:    principalID,
		Title:       strings.TrimSpace(in.Title),
		Description: s.sanitizer.SanitizeDescription(in.Description),
		Code:        in.Code,
		IsFree:      in.IsFree,
		Price:       in.Price,
		Tags:        normalizeTags(in.Tags),
		CreatedAt:   s.now(),
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.posts.Insert(storeCtx, p); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	slog.Info("post created",
		slog.String("post_id", p.ID),
		slog.String("user_id", principalID),
	)

	view := viewOf(p)
	return &view, nil
}

// GetPost は投稿を取得する。論理削除済みの投稿はNotFoundとして扱う。
func (s *Service) GetPost(ctx context.Context, id string) (*model.PostView, error) {
	p, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	view := viewOf(p)
	return &view, nil
}

// ModifyPost は投稿を更新する。投稿者以外はForbidden。
func (s *Service) ModifyPost(ctx context.Context, principalID, id string, in model.PostInput) (*model.PostView, error) {
	p, err := s.findLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownership.IsOwner(p, principalID) {
		return nil, model.NewNotOwnerError()
	}
	if apiErr := validateInput(in); apiErr != nil {
		return nil, apiErr
	}

	updated := *p
	updated.Title = strings.TrimSpace(in.Title)
	updated.Description = s.sanitizer.SanitizeDescription(in.Description)
	updated.Code = in.Code
	updated.IsFree = in.IsFree
	updated.Price = in.Price
	updated.Tags = normalizeTags(in.Tags)

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.posts.Replace(storeCtx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewPostNotFoundError(id)
		}
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	view := viewOf(&updated)
	return &view, nil
}

// DeletePost は投稿を論理削除する。投稿者以外はForbiddenで、投稿は変更しない。
func (s *Service) DeletePost(ctx context.Context, principalID, id string) error {
	p, err := s.findLive(ctx, id)
	if err != nil {
		return err
	}
	if !ownership.IsOwner(p, principalID) {
		return model.NewNotOwnerError()
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	if err := s.posts.SoftDelete(storeCtx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewPostNotFoundError(id)
		}
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	slog.Info("post deleted",
		slog.String("post_id", id),
		slog.String("user_id", principalID),
	)
	return nil
}

// ListUserPosts は指定ユーザーの未削除の投稿を返す。
func (s *Service) ListUserPosts(ctx context.Context, userID string) ([]model.PostView, error) {
	if !validID(userID) {
		return nil, model.NewInvalidRequestError("User id is not valid")
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	account, err := s.accounts.FindByID(storeCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewUserNotFoundError()
	}

	posts, err := s.posts.ListByAuthor(storeCtx, userID)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return viewsOf(liveOnly(posts)), nil
}

// ListRecentPosts は新しい順に未削除の投稿を返す。
func (s *Service) ListRecentPosts(ctx context.Context, limit, offset int) (*model.PostPage, error) {
	limit, apiErr := normalizePage(limit, offset)
	if apiErr != nil {
		return nil, apiErr
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	posts, err := s.posts.ListRecent(storeCtx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return &model.PostPage{Offset: offset, Limit: limit, Items: viewsOf(liveOnly(posts))}, nil
}

// ListPostsByTags はいずれかのタグを含む未削除の投稿を返す。
func (s *Service) ListPostsByTags(ctx context.Context, tags []string, limit, offset int) (*model.PostPage, error) {
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return nil, model.NewInvalidRequestError("At least one tag is required")
	}
	limit, apiErr := normalizePage(limit, offset)
	if apiErr != nil {
		return nil, apiErr
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	posts, err := s.posts.ListByTags(storeCtx, tags, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return &model.PostPage{Offset: offset, Limit: limit, Items: viewsOf(liveOnly(posts))}, nil
}

// findLive はIDを検証して未削除の投稿を取得する。
func (s *Service) findLive(ctx context.Context, id string) (*model.Post, error) {
	if !validID(id) {
		return nil, model.NewInvalidRequestError("Post id is not valid")
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	p, err := s.posts.FindByID(storeCtx, id)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if p == nil || p.IsDeleted {
		return nil, model.NewPostNotFoundError(id)
	}
	return p, nil
}

// normalizePage はlimitの既定値を補い、範囲を検証する。
func normalizePage(limit, offset int) (int, *model.APIError) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if offset < 0 || limit < 1 || limit > MaxLimit {
		return 0, model.NewInvalidPaginationError()
	}
	return limit, nil
}

// liveOnly は論理削除済みの投稿を除いた新しいスライスを返す。元のスライスは変更しない。
func liveOnly(posts []*model.Post) []*model.Post {
	out := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		if p != nil && !p.IsDeleted {
			out = append(out, p)
		}
	}
	return out
}

func viewsOf(posts []*model.Post) []model.PostView {
	views := make([]model.PostView, len(posts))
	for i, p := range posts {
		views[i] = viewOf(p)
	}
	return views
}

func viewOf(p *model.Post) model.PostView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return model.PostView{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Title:       p.Title,
		Description: p.Description,
		Excerpt:     security.PlainTextExcerpt(p.Description, security.DefaultExcerptLength),
		Code:        p.Code,
		IsFree:      p.IsFree,
		Price:       p.Price,
		Tags:        tags,
		Timestamp:   p.CreatedAt,
	}
}
