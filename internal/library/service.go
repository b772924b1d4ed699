// Package library は物語カタログとダウンロード状態を突き合わせた一覧を提供する。
package library

import (
	"context"

	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/repository"
)

// Entry はライブラリー画面の1項目を表す。
// カタログ上の物語に、オフライン保存の有無と保存時刻を重ねたもの。
type Entry struct {
	model.Story
	Downloaded bool  `json:"downloaded"`
	SavedAt    int64 `json:"savedAt,omitempty"` // epoch-ms、未保存なら0
}

// Service はカタログの閲覧機能を提供する。
type Service struct {
	stories repository.OfflineStoryRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(stories repository.OfflineStoryRepository) *Service {
	return &Service{stories: stories}
}

// List はカタログ全件をダウンロード状態つきで返す。順序はカタログ順。
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	downloaded, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, model.NewStorageUnavailableError(err.Error())
	}

	savedAt := make(map[string]int64, len(downloaded))
	for _, story := range downloaded {
		savedAt[story.Title] = story.SavedAt
	}

	catalog := gen.Catalog()
	entries := make([]Entry, len(catalog))
	for i, story := range catalog {
		at, ok := savedAt[story.Title]
		entries[i] = Entry{
			Story:      story,
			Downloaded: ok,
			SavedAt:    at,
		}
	}
	return entries, nil
}

// Get は指定タイトルの項目を返す。カタログに存在しない場合はSTORY_NOT_FOUND。
func (s *Service) Get(ctx context.Context, title string) (*Entry, error) {
	story, found := gen.FindStoryByTitle(title)
	if !found {
		return nil, model.NewStoryNotFoundError(title)
	}

	snapshot, err := s.stories.GetStory(ctx, title)
	if err != nil {
		return nil, model.NewStorageUnavailableError(err.Error())
	}

	entry := &Entry{Story: story}
	if snapshot != nil {
		entry.Downloaded = true
		entry.SavedAt = snapshot.SavedAt
	}
	return entry, nil
}
