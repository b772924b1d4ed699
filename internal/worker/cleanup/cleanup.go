// Package cleanup はプロバイダキャッシュの自動削除ジョブを提供する。
// 保持期間を超過した生成画像・生成ページのキャッシュを定期バッチで削除する。
// ユーザーが保存したカスタム挿絵は保持期間に関わらず削除しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/ntalo/internal/content"
)

// CachePruner はキャッシュの期限切れ削除を抽象化するインターフェース。
type CachePruner interface {
	// PruneStaleCache はbeforeより古いエントリーを削除し、削除件数を返す。
	// protectPrefixで始まるキーは削除しない。
	PruneStaleCache(ctx context.Context, before time.Time, protectPrefix string) (int64, error)
}

// CleanupJob は保持期間を超過したキャッシュの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	pruner CachePruner
	logger *slog.Logger
	TTL    time.Duration // キャッシュの保持期間

	now func() time.Time // テスト用に差し替え可能
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(pruner CachePruner, logger *slog.Logger, ttl time.Duration) *CleanupJob {
	return &CleanupJob{
		pruner: pruner,
		logger: logger,
		TTL:    ttl,
		now:    time.Now,
	}
}

// Run は保持期間を超過したキャッシュエントリーを削除する。
// カスタム挿絵キーは常に保護される。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	before := start.Add(-j.TTL)

	deleted, err := j.pruner.PruneStaleCache(ctx, before, content.CustomImageKeyPrefix)
	if err != nil {
		j.logger.Error("キャッシュクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("ttl", j.TTL),
		)
		return fmt.Errorf("キャッシュクリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("キャッシュクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Duration("ttl", j.TTL),
	)
	return nil
}

// RunPeriodic は指定間隔でRunを繰り返す。ctxのキャンセルで停止する。
// 起動直後に1回実行し、以降はinterval間隔で実行する。
func (j *CleanupJob) RunPeriodic(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("初回クリーンアップに失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("定期クリーンアップに失敗しました", slog.String("error", err.Error()))
			}
		}
	}
}
