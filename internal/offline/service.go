// Package offline は物語のオフラインスナップショットの作成と管理を提供する。
package offline

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/content"
	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/repository"
)

// Service はオフラインスナップショットのダウンロード・一覧・削除を提供する。
//
// スナップショットは自己完結でなければならない: 全ページの挿絵URLを
// 焼き込んだ完全な実体として1回の書き込みで保存される。
// 部分的に実体化されたスナップショットは決して保存しない。
type Service struct {
	stories  repository.OfflineStoryRepository
	resolver *content.Resolver
	conn     *connectivity.Monitor
	logger   *slog.Logger

	now func() time.Time // テスト用に差し替え可能
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	stories repository.OfflineStoryRepository,
	resolver *content.Resolver,
	conn *connectivity.Monitor,
	logger *slog.Logger,
) *Service {
	return &Service{
		stories:  stories,
		resolver: resolver,
		conn:     conn,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildSnapshot は指定タイトルの物語をオフライン用に完全実体化して保存する。
//
// ページ列を解決したのち、各ページの挿絵をリゾルバーの優先順位で解決して
// ImageURLに焼き込む。1ページでも挿絵が解決できない場合は保存せずに失敗する
// （不完全なスナップショットはオフライン時に壊れた読書体験になるため）。
func (s *Service) BuildSnapshot(ctx context.Context, title string) (*model.OfflineStory, error) {
	story, found := gen.FindStoryByTitle(title)
	if !found {
		return nil, model.NewStoryNotFoundError(title)
	}

	pages, fromOffline, err := s.resolver.ResolveStoryPages(ctx, title)
	if err != nil {
		return nil, err
	}
	if fromOffline {
		// すでに保存済み。既存のスナップショットをそのまま返す。
		return s.stories.GetStory(ctx, title)
	}

	materialized := make([]model.StoryPage, len(pages))
	for i, page := range pages {
		imageURL, err := s.resolver.ResolvePageImage(ctx, story, i, page)
		if err != nil {
			s.logger.Warn("スナップショットの挿絵実体化に失敗しました",
				slog.String("title", title),
				slog.Int("page_index", i),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		page.ImageURL = imageURL
		materialized[i] = page
	}

	snapshot := &model.OfflineStory{
		Story:   story,
		Pages:   materialized,
		SavedAt: s.now().UnixMilli(),
	}
	if err := s.stories.PutStory(ctx, snapshot); err != nil {
		return nil, model.NewStorageUnavailableError(err.Error())
	}

	s.logger.Info("物語をオフライン保存しました",
		slog.String("title", title),
		slog.Int("pages", len(materialized)),
	)
	return snapshot, nil
}

// ListStories は保存済みスナップショットの一覧を返す。
func (s *Service) ListStories(ctx context.Context) ([]*model.OfflineStory, error) {
	stories, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, model.NewStorageUnavailableError(err.Error())
	}
	return stories, nil
}

// IsDownloaded は指定タイトルがオフライン保存済みかを返す。
func (s *Service) IsDownloaded(ctx context.Context, title string) (bool, error) {
	story, err := s.stories.GetStory(ctx, title)
	if err != nil {
		return false, model.NewStorageUnavailableError(err.Error())
	}
	return story != nil, nil
}

// DeleteStory は指定タイトルのスナップショットを削除する。
// 存在しない場合もエラーにしない。
func (s *Service) DeleteStory(ctx context.Context, title string) error {
	if err := s.stories.DeleteStory(ctx, title); err != nil {
		return model.NewStorageUnavailableError(err.Error())
	}
	s.logger.Info("オフライン保存を削除しました", slog.String("title", title))
	return nil
}
