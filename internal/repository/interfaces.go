// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/ntalo/internal/model"
)

// OfflineStoryRepository はオフライン物語スナップショットの永続化インターフェース。
// 物語はtitleを自然キーとして保存される（idではない）。
type OfflineStoryRepository interface {
	// PutStory はスナップショットをtitleキーでUPSERTする。
	PutStory(ctx context.Context, story *model.OfflineStory) error

	// GetStory は指定タイトルのスナップショットを取得する。見つからない場合はnilを返す。
	GetStory(ctx context.Context, title string) (*model.OfflineStory, error)

	// ListStories は保存済みスナップショットの一覧を返す。順序は保証しない。
	ListStories(ctx context.Context) ([]*model.OfflineStory, error)

	// DeleteStory は指定タイトルのスナップショットを削除する。存在しない場合もエラーにしない。
	DeleteStory(ctx context.Context, title string) error
}

// CacheRepository は不透明キャッシュの永続化インターフェース。
// プロバイダ画像キャッシュとユーザーのカスタムページ画像が、
// キー接頭辞による別名前空間として同じストアに同居する。
type CacheRepository interface {
	// PutCache は値をキーでUPSERTする。
	PutCache(ctx context.Context, key, value string) error

	// GetCache は指定キーの値を取得する。見つからない場合は空文字列とfalseを返す。
	GetCache(ctx context.Context, key string) (string, bool, error)

	// DeleteCache は指定キーの値を削除する。存在しない場合もエラーにしない。
	DeleteCache(ctx context.Context, key string) error
}
