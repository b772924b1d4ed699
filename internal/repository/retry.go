package repository

import (
	"database/sql"
	"fmt"

	"github.com/hitoshi/ntalo/internal/database"
	"github.com/hitoshi/ntalo/internal/model"
)

// withRetry は共有ハンドル上で操作を実行し、失敗時は失効ハンドルとみなして
// 接続を破棄・再取得した上で正確に1回だけ再試行する。
// 再試行対象の操作はすべて冪等（UPSERT/READ/DELETE）であることが前提。
// ハンドルの取得自体に失敗した場合はSTORAGE_UNAVAILABLEとして表面化する。
func withRetry(c *database.Connector, op func(db *sql.DB) error) error {
	db, err := c.Acquire()
	if err != nil {
		return model.NewStorageUnavailableError(err.Error())
	}

	if err := op(db); err == nil {
		return nil
	}

	// 失効ハンドルの可能性があるため、破棄して1回だけ再試行する。
	c.Invalidate()
	db, err = c.Acquire()
	if err != nil {
		return model.NewStorageUnavailableError(err.Error())
	}

	if err := op(db); err != nil {
		return fmt.Errorf("store operation failed after reconnect: %w", err)
	}
	return nil
}
