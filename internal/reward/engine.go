package reward

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/metrics"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/progress"
)

// Engine は読了時の報酬付与エンジン。
// 1回のCompleteStory呼び出しが進捗レコードへの1回のアトミックな更新になる。
type Engine struct {
	store    *progress.Store
	imageGen gen.ImageGenerator
	conn     *connectivity.Monitor
	metrics  metrics.MetricsCollector
	logger   *slog.Logger

	dropRate float64        // レアキャラクター当選確率（0.0〜1.0）
	randFn   func() float64 // [0,1)の一様乱数。テスト用に差し替え可能
	now      func() time.Time
	newID    func() string
}

// NewEngine はEngineの新しいインスタンスを生成する。
func NewEngine(
	store *progress.Store,
	imageGen gen.ImageGenerator,
	conn *connectivity.Monitor,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	dropRate float64,
	randFn func() float64,
) *Engine {
	return &Engine{
		store:    store,
		imageGen: imageGen,
		conn:     conn,
		metrics:  collector,
		logger:   logger,
		dropRate: dropRate,
		randFn:   randFn,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CompleteStory は物語の読了を処理し、更新後の進捗とこの呼び出しで
// 新規に得られた報酬のみを返す。
//
// 再読でも全工程が実行される: 統計は再度インクリメントされ、
// お宝は毎回新規に生成され、獲得済みバッジはスキップされ、
// キャラクター抽選も毎回行われる。
// プロフィール未作成の場合はNO_PROFILEエラーを返す。
func (e *Engine) CompleteStory(ctx context.Context, story model.Story) (*model.UserProgress, *model.RewardBundle, error) {
	bundle := &model.RewardBundle{}

	// プロフィール未作成なら、抽選やプロバイダ呼び出しを行う前に失敗させる
	current, err := e.store.Load()
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, model.NewNoProfileError()
	}

	// キャラクター画像の取得はストアのロック外で行うため、
	// 抽選だけを先に引いてロック内で結果を反映する。
	var character *model.CollectedCharacter
	if e.randFn() < e.dropRate {
		character = e.mintCharacter(ctx, story.Title)
	}

	updated, err := e.store.Mutate(func(p *model.UserProgress) error {
		// 1. 読了数は無条件にインクリメント
		p.StoriesRead++

		// 2. 既読リストへの集合的追加
		if !p.HasReadStory(story.Title) {
			p.ReadStoryIDs = append(p.ReadStoryIDs, story.Title)
		}

		// 3. 実績バッジをインクリメント後のスナップショットで全件評価
		for _, badge := range achievementBadges {
			if p.HasBadge(badge.ID) {
				continue
			}
			if badge.Predicate(p) {
				p.BadgesEarned = append(p.BadgesEarned, badge.ID)
				bundle.Badges = append(bundle.Badges, badge)
			}
		}

		// 4. 地域スタンプ
		if stamp, ok := ResolveStampBadge(story.Region); ok && !p.HasBadge(stamp.ID) {
			p.BadgesEarned = append(p.BadgesEarned, stamp.ID)
			bundle.Badges = append(bundle.Badges, stamp)
		}

		// 5. お宝は毎回必ず1つ生成
		treasure := model.Treasure{
			ID:         e.newID(),
			Message:    treasureMessages[int(e.randFn()*float64(len(treasureMessages)))%len(treasureMessages)],
			UnlockedAt: e.now().UnixMilli(),
			StoryTitle: story.Title,
		}
		p.Treasures = append(p.Treasures, treasure)
		bundle.Treasure = treasure

		// 6. レアキャラクター（抽選済み）
		if character != nil {
			p.CollectedCharacters = append(p.CollectedCharacters, *character)
			bundle.Character = character
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	e.metrics.RecordStoryCompleted()
	for _, b := range bundle.Badges {
		e.metrics.RecordBadgeAwarded(b.ID)
	}
	if bundle.Character != nil {
		e.metrics.RecordRareDrop()
	}

	e.logger.Info("物語を読了しました",
		slog.String("title", story.Title),
		slog.Int("stories_read", updated.StoriesRead),
		slog.Int("new_badges", len(bundle.Badges)),
		slog.Bool("rare_drop", bundle.Character != nil),
	)

	return updated, bundle, nil
}

// mintCharacter はキャラクターを生成する。
// 画像の取得はオンライン時のみベストエフォートで行い、欠損はエラーにしない。
func (e *Engine) mintCharacter(ctx context.Context, title string) *model.CollectedCharacter {
	name, icon := ResolveCharacter(title)
	character := &model.CollectedCharacter{
		ID:         e.newID(),
		Name:       name,
		Icon:       icon,
		StoryTitle: title,
		UnlockedAt: e.now().UnixMilli(),
	}

	if e.conn.Online() {
		image, err := e.imageGen.GeneratePageImage(ctx, "A heroic portrait of "+name+", a beloved storybook character")
		if err != nil {
			e.logger.Warn("キャラクター画像の生成に失敗しました",
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
		} else {
			character.ImageURL = image
		}
	}

	return character
}
