// Package cleanup は保存済み投稿リストの整理ジョブを提供する。
// 論理削除済み、またはアカウント削除に伴い物理削除された投稿への参照を
// 各アカウントのsaved_post_idsから取り除く。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Recorder はジョブの結果を記録するインターフェース。*metrics.Collector が実装する。
type Recorder interface {
	RecordCleanup(pruned int64, err error)
}

// pruneSavedPostsQuery は未削除の投稿だけを元の順序で残す。
// 整理対象の参照を持たないアカウントは更新しない。
const pruneSavedPostsQuery = `
UPDATE accounts a
SET saved_post_ids = ARRAY(
        SELECT s.id
        FROM unnest(a.saved_post_ids) WITH ORDINALITY AS s(id, ord)
        WHERE EXISTS (SELECT 1 FROM posts p WHERE p.id = s.id AND NOT p.is_deleted)
        ORDER BY s.ord
    )::uuid[],
    updated_at = now()
WHERE EXISTS (
    SELECT 1
    FROM unnest(a.saved_post_ids) AS s(id)
    WHERE NOT EXISTS (SELECT 1 FROM posts p WHERE p.id = s.id AND NOT p.is_deleted)
)`

// CleanupJob は保存済み投稿リストの整理ジョブ。
// 冪等であり、何度実行しても結果は変わらない。
type CleanupJob struct {
	db       Executor
	logger   *slog.Logger
	recorder Recorder
}

// NewCleanupJob は新しいCleanupJobを生成する。recorderはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, recorder Recorder) *CleanupJob {
	return &CleanupJob{
		db:       db,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は整理を1回実行し、更新したアカウント数を返す。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()

	pruned, err := j.run(ctx)
	if j.recorder != nil {
		j.recorder.RecordCleanup(pruned, err)
	}
	if err != nil {
		j.logger.Error("保存済み投稿の整理に失敗しました", slog.String("error", err.Error()))
		return 0, err
	}

	j.logger.Info("保存済み投稿の整理が完了しました",
		slog.Int64("accounts_updated", pruned),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return pruned, nil
}

func (j *CleanupJob) run(ctx context.Context) (int64, error) {
	result, err := j.db.ExecContext(ctx, pruneSavedPostsQuery)
	if err != nil {
		return 0, fmt.Errorf("保存済み投稿の整理に失敗: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	return n, nil
}

// RunEvery は起動直後に1回、その後intervalごとにRunを実行する。
// ctxがキャンセルされると戻る。個々の失敗はログに記録して継続する。
func (j *CleanupJob) RunEvery(ctx context.Context, interval time.Duration) {
	j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}
