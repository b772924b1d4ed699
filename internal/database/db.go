package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open はSQLiteデータベース接続を開く。
// ファイルの親ディレクトリが存在しない場合は作成する。
// 単一プロセス・単一ユーザー前提のため、書き込み競合回避としてbusy_timeoutを設定する。
func Open(filePath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqliteはコネクションごとに独立したファイルハンドルを持つ。
	// 単一ファイルストアのため接続数を絞る。
	db.SetMaxOpenConns(1)

	return db, nil
}
