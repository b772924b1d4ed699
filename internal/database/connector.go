// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Connector は共有データベースハンドルを所有する接続マネージャ。
// Acquireは冪等で、並行呼び出しが複数の接続を開くことはない。
// ハンドルが無効化された場合（バージョン更新や予期しないクローズ）、
// Invalidateで古いハンドルを破棄し、次回のAcquireで透過的に再接続する。
type Connector struct {
	mu       sync.Mutex
	filePath string
	db       *sql.DB
	open     func(string) (*sql.DB, error) // テスト用に差し替え可能
}

// NewConnector はConnectorの新しいインスタンスを生成する。
// この時点では接続を開かない。
func NewConnector(filePath string) *Connector {
	return &Connector{
		filePath: filePath,
		open:     Open,
	}
}

// Acquire は共有接続ハンドルを返す。
// 未接続の場合のみ新規に開き、以降はメモ化されたハンドルを返す。
func (c *Connector) Acquire() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := c.open(c.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database handle: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	c.db = db
	return c.db, nil
}

// Invalidate は保持中のハンドルを破棄する。
// 失効したハンドルでの操作失敗後に呼び出し、次のAcquireで再接続させる。
// 未接続の場合は何もしない。
func (c *Connector) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return
	}
	if err := c.db.Close(); err != nil {
		slog.Warn("stale database handle close failed", slog.String("error", err.Error()))
	}
	c.db = nil
}

// Close は保持中のハンドルを閉じる。アプリケーション終了時に呼ぶ。
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
