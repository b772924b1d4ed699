package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/metrics"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/repository"
	"github.com/hitoshi/ntalo/internal/security"
)

// Resolver は挿絵と物語ページの解決を行う。
//
// ページ挿絵は次の固定優先順位で解決される:
//  1. ユーザーのカスタム挿絵
//  2. スナップショットに焼き込まれたimageUrl
//  3. 静的アセット（Picture {assetId}_{page}.png）
//  4. 旧形式アセット（stories/{id}/page_{page}.png）
//  5. 生成キャッシュ
//  6. オフラインガード（オフライン時はここで打ち切り）
//  7. リモート生成＋ベストエフォートのキャッシュ書き込み
type Resolver struct {
	cache     repository.CacheRepository
	stories   repository.OfflineStoryRepository
	textGen   gen.TextGenerator
	imageGen  gen.ImageGenerator
	conn      *connectivity.Monitor
	prober    AssetProber
	sanitizer security.ContentSanitizerService
	guard     security.SSRFGuardService
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(
	cache repository.CacheRepository,
	stories repository.OfflineStoryRepository,
	textGen gen.TextGenerator,
	imageGen gen.ImageGenerator,
	conn *connectivity.Monitor,
	prober AssetProber,
	sanitizer security.ContentSanitizerService,
	guard security.SSRFGuardService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		cache:     cache,
		stories:   stories,
		textGen:   textGen,
		imageGen:  imageGen,
		conn:      conn,
		prober:    prober,
		sanitizer: sanitizer,
		guard:     guard,
		metrics:   collector,
		logger:    logger,
	}
}

// ResolvePageImage はページ挿絵を優先順位チェーンで解決する。
// 返り値はURLパスまたはdata URL。どの段階でも解決できない場合は
// IMAGE_UNAVAILABLEエラーを返す（ページ送り自体は妨げない）。
func (r *Resolver) ResolvePageImage(ctx context.Context, story model.Story, pageIndex int, page model.StoryPage) (string, error) {
	// 1. カスタム挿絵
	if custom, ok, err := r.cache.GetCache(ctx, CustomImageKey(story.Title, pageIndex)); err != nil {
		r.logger.Warn("カスタム挿絵の参照に失敗しました",
			slog.String("title", story.Title),
			slog.Int("page_index", pageIndex),
			slog.String("error", err.Error()),
		)
	} else if ok {
		r.metrics.RecordImageResolved("custom")
		return custom, nil
	}

	// 2. 焼き込み済みimageUrl（オフラインスナップショット由来）
	// リモートURLはデータ由来のためSSRF検証を通し、拒否されたら後続の手段に委ねる
	if page.ImageURL != "" {
		if err := r.validateEmbeddedURL(page.ImageURL); err != nil {
			r.logger.Warn("埋め込み挿絵URLを拒否しました",
				slog.String("title", story.Title),
				slog.Int("page_index", pageIndex),
				slog.String("error", err.Error()),
			)
		} else {
			r.metrics.RecordImageResolved("embedded")
			return page.ImageURL, nil
		}
	}

	// 3. 静的アセット
	if story.AssetID > 0 && r.prober.Exists(assetRelPath(story.AssetID, pageIndex)) {
		r.metrics.RecordImageResolved("asset")
		return assetURL(story.AssetID, pageIndex), nil
	}

	// 4. 旧形式アセット
	if story.ID != "" && r.prober.Exists(legacyRelPath(story.ID, pageIndex)) {
		r.metrics.RecordImageResolved("legacy")
		return legacyURL(story.ID, pageIndex), nil
	}

	// 5. 生成キャッシュ（オフラインでも参照可能）
	cacheKey := ImageCacheKey(page.VisualDescription)
	if cached, ok, err := r.cache.GetCache(ctx, cacheKey); err != nil {
		r.logger.Warn("生成キャッシュの参照に失敗しました",
			slog.String("cache_key", cacheKey),
			slog.String("error", err.Error()),
		)
	} else if ok {
		r.metrics.RecordCacheHit()
		r.metrics.RecordImageResolved("cache")
		return cached, nil
	}
	r.metrics.RecordCacheMiss()

	// 6. オフラインガード
	if !r.conn.Online() {
		r.metrics.RecordImageResolved("unavailable")
		return "", model.NewImageUnavailableError()
	}

	// 7. リモート生成
	image, err := r.imageGen.GeneratePageImage(ctx, page.VisualDescription)
	if err != nil {
		r.logger.Error("挿絵の生成に失敗しました",
			slog.String("title", story.Title),
			slog.Int("page_index", pageIndex),
			slog.String("error", err.Error()),
		)
		r.metrics.RecordImageResolved("unavailable")
		return "", model.NewImageUnavailableError()
	}

	// キャッシュ書き込みはベストエフォート。失敗しても画像は返す。
	if err := r.cache.PutCache(ctx, cacheKey, image); err != nil {
		r.logger.Warn("生成キャッシュの書き込みに失敗しました",
			slog.String("cache_key", cacheKey),
			slog.String("error", err.Error()),
		)
	}

	r.metrics.RecordImageResolved("generated")
	return image, nil
}

// validateEmbeddedURL は焼き込み済みimageUrlのうちリモート参照のみを検証する。
// data URLや/assets配下の相対パスは検証の対象外。
func (r *Resolver) validateEmbeddedURL(raw string) error {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return nil
	}
	return r.guard.ValidateURL(raw)
}

// ResolveHistoryImage は豆知識の説明イラストをベストエフォートで解決する。
// キャッシュを参照し、なければ生成する。失敗時は空文字列を返す（エラーにしない）。
func (r *Resolver) ResolveHistoryImage(ctx context.Context, fact string) string {
	cacheKey := HistoryCacheKey(fact)
	if cached, ok, err := r.cache.GetCache(ctx, cacheKey); err == nil && ok {
		r.metrics.RecordCacheHit()
		return cached
	}
	r.metrics.RecordCacheMiss()

	if !r.conn.Online() {
		return ""
	}

	image, err := r.imageGen.GenerateHistoryImage(ctx, fact)
	if err != nil {
		r.logger.Warn("豆知識イラストの生成に失敗しました", slog.String("error", err.Error()))
		return ""
	}

	if err := r.cache.PutCache(ctx, cacheKey, image); err != nil {
		r.logger.Warn("豆知識イラストのキャッシュ書き込みに失敗しました", slog.String("error", err.Error()))
	}
	return image
}

// ResolveStoryPages は物語のページ列を解決する。
// オフラインスナップショットが存在すればそれを優先し、fromOffline=trueで返す。
// なければ生成済みページのキャッシュを参照し、それもなければ生成する。
// オフラインかつ未保存の場合はOFFLINE_NOT_DOWNLOADEDエラーを返す。
// 生成テキストはサニタイズしてから返す。
func (r *Resolver) ResolveStoryPages(ctx context.Context, title string) ([]model.StoryPage, bool, error) {
	snapshot, err := r.stories.GetStory(ctx, title)
	if err != nil {
		return nil, false, err
	}
	if snapshot != nil {
		return snapshot.Pages, true, nil
	}

	// 生成済みページのキャッシュ
	pagesKey := PagesCacheKey(title)
	if cached, ok, err := r.cache.GetCache(ctx, pagesKey); err == nil && ok {
		var pages []model.StoryPage
		if err := json.Unmarshal([]byte(cached), &pages); err == nil {
			return pages, false, nil
		}
		// 壊れたキャッシュは無視して生成し直す
		r.logger.Warn("ページキャッシュのパースに失敗しました", slog.String("title", title))
	}

	if !r.conn.Online() {
		return nil, false, model.NewOfflineNotDownloadedError(title)
	}

	story, found := gen.FindStoryByTitle(title)
	if !found {
		return nil, false, model.NewStoryNotFoundError(title)
	}

	pages, err := r.textGen.GenerateStoryPages(ctx, story.Title, story.Region, story.Summary)
	if err != nil {
		return nil, false, model.NewContentLoadError(fmt.Sprintf("物語の生成に失敗しました: %v", err))
	}

	for i := range pages {
		pages[i].Text = r.sanitizer.Sanitize(pages[i].Text)
		pages[i].HistoryFact = r.sanitizer.Sanitize(pages[i].HistoryFact)
	}

	if data, err := json.Marshal(pages); err == nil {
		if err := r.cache.PutCache(ctx, pagesKey, string(data)); err != nil {
			r.logger.Warn("ページキャッシュの書き込みに失敗しました",
				slog.String("title", title),
				slog.String("error", err.Error()),
			)
		}
	}

	return pages, false, nil
}

// SaveCustomImage はカスタム挿絵を保存する。同一キーへの保存は上書き。
func (r *Resolver) SaveCustomImage(ctx context.Context, title string, pageIndex int, dataURL string) error {
	return r.cache.PutCache(ctx, CustomImageKey(title, pageIndex), dataURL)
}

// GetCustomImage はカスタム挿絵を取得する。未保存の場合は空文字列とfalseを返す。
func (r *Resolver) GetCustomImage(ctx context.Context, title string, pageIndex int) (string, bool, error) {
	return r.cache.GetCache(ctx, CustomImageKey(title, pageIndex))
}

// DeleteCustomImage はカスタム挿絵を削除する。存在しない場合も成功を返す（冪等）。
func (r *Resolver) DeleteCustomImage(ctx context.Context, title string, pageIndex int) error {
	return r.cache.DeleteCache(ctx, CustomImageKey(title, pageIndex))
}
