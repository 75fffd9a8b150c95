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

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name,
	session_token, refresh_token, saved_post_ids, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	a := &model.Account{}
	var sessionToken, refreshToken sql.NullString
	var saved pq.StringArray

	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&sessionToken, &refreshToken, &saved, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sessionToken.Valid {
		a.SessionToken = &sessionToken.String
	}
	if refreshToken.Valid {
		a.RefreshToken = &refreshToken.String
	}
	a.SavedPostIDs = []string(saved)
	return a, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return a, nil
}

// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return a, nil
}

// Insert はアカウントを作成する。一意性はユニーク制約で判定する。
func (r *PostgresAccountRepo) Insert(ctx context.Context, a *model.Account) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, first_name, last_name,
			session_token, refresh_token, saved_post_ids, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.SessionToken, a.RefreshToken, pq.Array(nonNil(a.SavedPostIDs)), a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// ReplaceTokens はトークン対のみを1つのUPDATE文で置き換える。
// プロフィール列は変更しないため、並行するプロフィール更新を巻き戻さない。
func (r *PostgresAccountRepo) ReplaceTokens(ctx context.Context, id, sessionToken, refreshToken string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		    SET session_token = $2, refresh_token = $3, updated_at = now()
		  WHERE id = $1`,
		id, sessionToken, refreshToken,
	)
	if err != nil {
		return fmt.Errorf("failed to replace tokens: %w", err)
	}
	return expectOneRow(result)
}

// UpdateProfile はユーザー名・メールアドレス・氏名のみを更新する。
// 資格情報、トークン対、saved_post_idsは変更しない。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, a *model.Account) error {
	a.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		    SET username = $2, email = $3, first_name = $4, last_name = $5, updated_at = $6
		  WHERE id = $1`,
		a.ID, a.Username, a.Email, a.FirstName, a.LastName, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectOneRow(result)
}

// AddSavedPost は保存済み投稿IDを末尾に追加する。既に含まれている場合は何もしない。
func (r *PostgresAccountRepo) AddSavedPost(ctx context.Context, accountID, postID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		    SET saved_post_ids = CASE
		            WHEN $2::uuid = ANY(saved_post_ids) THEN saved_post_ids
		            ELSE array_append(saved_post_ids, $2::uuid)
		        END,
		        updated_at = now()
		  WHERE id = $1`,
		accountID, postID,
	)
	if err != nil {
		return fmt.Errorf("failed to add saved post: %w", err)
	}
	return expectOneRow(result)
}

// RemoveSavedPost は保存済み投稿IDを取り除く。
func (r *PostgresAccountRepo) RemoveSavedPost(ctx context.Context, accountID, postID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		    SET saved_post_ids = array_remove(saved_post_ids, $2::uuid), updated_at = now()
		  WHERE id = $1`,
		accountID, postID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove saved post: %w", err)
	}
	return expectOneRow(result)
}

// Delete はアカウントを削除する。
func (r *PostgresAccountRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
