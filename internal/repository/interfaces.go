// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

var (
	// ErrNotFound は更新・削除対象のレコードが存在しない場合のエラー。
	ErrNotFound = errors.New("record not found")
	// ErrConflict はユニーク制約違反のエラー。
	ErrConflict = errors.New("unique constraint violated")
)

// AccountRepository はアカウントの永続化インターフェース。
// ユーザー名とメールアドレスの一意性はストア側で原子的に保証する。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// Insert はアカウントを作成する。ユーザー名またはメールアドレスが重複する場合はErrConflictを返す。
	Insert(ctx context.Context, account *model.Account) error

	// ReplaceTokens はセッショントークンとリフレッシュトークンの組だけを1つのUPDATE文で置き換える。
	// 対象がない場合はErrNotFoundを返す。
	ReplaceTokens(ctx context.Context, id, sessionToken, refreshToken string) error

	// UpdateProfile はユーザー名・メールアドレス・氏名だけを更新する。トークン対は変更しない。
	// 対象がない場合はErrNotFound、一意性違反の場合はErrConflictを返す。
	UpdateProfile(ctx context.Context, account *model.Account) error

	// AddSavedPost は保存済み投稿IDを末尾に追加する。既に含まれている場合は何もしない。
	AddSavedPost(ctx context.Context, accountID, postID string) error

	// RemoveSavedPost は保存済み投稿IDを取り除く。含まれていない場合は何もしない。
	RemoveSavedPost(ctx context.Context, accountID, postID string) error

	// Delete はアカウントを削除する。投稿とコメントはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// PostRepository は投稿の永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を論理削除済みも含めて取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// Insert は投稿を作成する。
	Insert(ctx context.Context, post *model.Post) error

	// Replace は投稿の本文・価格・タグを更新する。作成者と作成日時は変更しない。
	Replace(ctx context.Context, post *model.Post) error

	// SoftDelete は投稿を論理削除する。対象がないか削除済みの場合はErrNotFoundを返す。
	SoftDelete(ctx context.Context, id string) error

	// ListByAuthor は指定ユーザーの投稿を論理削除済みも含めて新しい順に返す。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Post, error)

	// ListRecent は未削除の投稿を新しい順にoffset/limitで返す。
	ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error)

	// ListByTags はいずれかのタグを含む未削除の投稿を新しい順にoffset/limitで返す。
	ListByTags(ctx context.Context, tags []string, limit, offset int) ([]*model.Post, error)

	// ListByIDs は指定IDの投稿を論理削除済みも含めて入力順で返す。存在しないIDは無視する。
	ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// Insert はコメントを作成する。
	Insert(ctx context.Context, comment *model.Comment) error

	// ListByPost は投稿のコメントを作成者のユーザー名付きで古い順に返す。
	ListByPost(ctx context.Context, postID string) ([]*model.Comment, error)

	// Delete はコメントを物理削除する。対象がない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}
