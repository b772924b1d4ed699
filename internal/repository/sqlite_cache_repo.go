package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/ntalo/internal/database"
)

// SQLiteCacheRepo はSQLiteを使用した不透明キャッシュリポジトリ。
type SQLiteCacheRepo struct {
	connector *database.Connector
	now       func() time.Time // テスト用に差し替え可能
}

// NewSQLiteCacheRepo はSQLiteCacheRepoを生成する。
func NewSQLiteCacheRepo(connector *database.Connector) *SQLiteCacheRepo {
	return &SQLiteCacheRepo{
		connector: connector,
		now:       time.Now,
	}
}

// PutCache は値をキーでUPSERTする。
func (r *SQLiteCacheRepo) PutCache(ctx context.Context, key, value string) error {
	return withRetry(r.connector, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO content_cache (cache_key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, r.now().UnixMilli(),
		)
		return err
	})
}

// GetCache は指定キーの値を取得する。見つからない場合は空文字列とfalseを返す。
func (r *SQLiteCacheRepo) GetCache(ctx context.Context, key string) (string, bool, error) {
	var value string
	found := false
	err := withRetry(r.connector, func(db *sql.DB) error {
		err := db.QueryRowContext(ctx,
			`SELECT value FROM content_cache WHERE cache_key = ?`,
			key,
		).Scan(&value)
		if err == sql.ErrNoRows {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// DeleteCache は指定キーの値を削除する。存在しない場合もエラーにしない。
func (r *SQLiteCacheRepo) DeleteCache(ctx context.Context, key string) error {
	return withRetry(r.connector, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`DELETE FROM content_cache WHERE cache_key = ?`,
			key,
		)
		return err
	})
}

// PruneStaleCache はbeforeより古いキャッシュエントリーを削除し、削除件数を返す。
// protectPrefixで始まるキー（ユーザーのカスタム挿絵）は保持期間に関わらず削除しない。
func (r *SQLiteCacheRepo) PruneStaleCache(ctx context.Context, before time.Time, protectPrefix string) (int64, error) {
	var deleted int64
	err := withRetry(r.connector, func(db *sql.DB) error {
		result, err := db.ExecContext(ctx,
			`DELETE FROM content_cache WHERE updated_at < ? AND substr(cache_key, 1, ?) != ?`,
			before.UnixMilli(), len(protectPrefix), protectPrefix,
		)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// compile-time interface check
var _ CacheRepository = (*SQLiteCacheRepo)(nil)
