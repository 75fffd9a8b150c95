package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SocialCodeTFC/Backend/internal/model"
	"github.com/lib/pq"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

const postColumns = `id, author_id, title, description, code, is_free, price, tags, is_deleted, created_at`

func scanPost(row interface{ Scan(...any) error }) (*model.Post, error) {
	p := &model.Post{}
	var tags pq.StringArray
	if err := row.Scan(
		&p.ID, &p.AuthorID, &p.Title, &p.Description, &p.Code,
		&p.IsFree, &p.Price, &tags, &p.IsDeleted, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.Tags = []string(tags)
	return p, nil
}

func (r *PostgresPostRepo) queryPosts(ctx context.Context, query string, args ...any) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// FindByID は指定IDの投稿を論理削除済みも含めて取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}
	return p, nil
}

// Insert は投稿を作成する。
func (r *PostgresPostRepo) Insert(ctx context.Context, p *model.Post) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, description, code, is_free, price, tags, is_deleted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.AuthorID, p.Title, p.Description, p.Code,
		p.IsFree, p.Price, pq.Array(nonNil(p.Tags)), p.IsDeleted, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// Replace は投稿の本文・価格・タグを更新する。論理削除済みの投稿は対象外。
func (r *PostgresPostRepo) Replace(ctx context.Context, p *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		    SET title = $2, description = $3, code = $4, is_free = $5, price = $6, tags = $7
		  WHERE id = $1 AND is_deleted = false`,
		p.ID, p.Title, p.Description, p.Code, p.IsFree, p.Price, pq.Array(nonNil(p.Tags)),
	)
	if err != nil {
		return fmt.Errorf("failed to replace post: %w", err)
	}
	return expectOneRow(result)
}

// SoftDelete は投稿を論理削除する。
func (r *PostgresPostRepo) SoftDelete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET is_deleted = true WHERE id = $1 AND is_deleted = false`, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete post: %w", err)
	}
	return expectOneRow(result)
}

// ListByAuthor は指定ユーザーの投稿を論理削除済みも含めて新しい順に返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	posts, err := r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE author_id = $1 ORDER BY created_at DESC, id`, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// ListRecent は未削除の投稿を新しい順に返す。
func (r *PostgresPostRepo) ListRecent(ctx context.Context, limit, offset int) ([]*model.Post, error) {
	posts, err := r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		  WHERE is_deleted = false
		  ORDER BY created_at DESC, id
		  LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}
	return posts, nil
}

// ListByTags はいずれかのタグを含む未削除の投稿を新しい順に返す。
func (r *PostgresPostRepo) ListByTags(ctx context.Context, tags []string, limit, offset int) ([]*model.Post, error) {
	posts, err := r.queryPosts(ctx,
		`SELECT `+postColumns+` FROM posts
		  WHERE is_deleted = false AND tags && $1
		  ORDER BY created_at DESC, id
		  LIMIT $2 OFFSET $3`, pq.Array(tags), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by tags: %w", err)
	}
	return posts, nil
}

// ListByIDs は指定IDの投稿を入力順で返す。
func (r *PostgresPostRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}

	posts, err := r.queryPosts(ctx,
		`SELECT p.id, p.author_id, p.title, p.description, p.code, p.is_free, p.price, p.tags, p.is_deleted, p.created_at
		   FROM unnest($1::uuid[]) WITH ORDINALITY AS ids(id, ord)
		   JOIN posts p ON p.id = ids.id
		  ORDER BY ids.ord`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by IDs: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
