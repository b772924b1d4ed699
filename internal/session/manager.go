package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ntalo/internal/audio"
	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/content"
	"github.com/hitoshi/ntalo/internal/gen"
	"github.com/hitoshi/ntalo/internal/metrics"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/progress"
	"github.com/hitoshi/ntalo/internal/reward"
)

// Manager は読書セッションの生成・遷移・破棄を管理する。
//
// 遷移ごとの不変条件:
//   - 音声停止 → 挿絵クリア → 新ページの挿絵解決、の順で実行する
//   - 解決中に次の遷移が起きた場合、古い解決結果はエポック照合で捨てる
//   - ページ添字の変化は同期的に進捗保存される（クラッシュしても進捗が残る）
//   - Finishedへの入場は1回だけで、報酬エンジンは二重起動しない
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	resolver  *content.Resolver
	progress  *progress.Store
	rewards   *reward.Engine
	speechGen gen.SpeechGenerator
	conn      *connectivity.Monitor
	metrics   metrics.MetricsCollector
	logger    *slog.Logger

	newID     func() string
	newPlayer func(pcm []byte, rate float64) audioHandle
}

// NewManager はManagerの新しいインスタンスを生成する。
func NewManager(
	resolver *content.Resolver,
	progressStore *progress.Store,
	rewards *reward.Engine,
	speechGen gen.SpeechGenerator,
	conn *connectivity.Monitor,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		sessions:  make(map[string]*session),
		resolver:  resolver,
		progress:  progressStore,
		rewards:   rewards,
		speechGen: speechGen,
		conn:      conn,
		metrics:   collector,
		logger:    logger,
		newID:     uuid.NewString,
		newPlayer: func(pcm []byte, rate float64) audioHandle { return audio.NewPlayer(pcm, rate) },
	}
}

// Start は新しい読書セッションを開始する。
// 初期ページはstoryProgress[title]から復元されるが、
// deepLinkPage（しおりからの遷移など、非負の値）が指定された場合はそちらが優先される。
// 復元された添字がページ数以上の場合は0にクランプされる。
func (m *Manager) Start(ctx context.Context, title string, deepLinkPage int) (*View, error) {
	story, found := gen.FindStoryByTitle(title)
	if !found {
		return nil, model.NewStoryNotFoundError(title)
	}

	s := &session{
		id:           m.newID(),
		story:        story,
		state:        StateLoading,
		playbackRate: 1.0,
	}

	pages, fromOffline, err := m.resolver.ResolveStoryPages(ctx, title)
	if err != nil {
		s.state = StateError
		s.lastErr = asAPIError(err)
		m.logger.Warn("物語の読み込みに失敗しました",
			slog.String("title", title),
			slog.String("code", s.lastErr.Code),
		)
		m.mu.Lock()
		m.sessions[s.id] = s
		m.mu.Unlock()
		m.metrics.SessionOpened()
		return s.view(false), nil
	}

	s.pages = pages
	s.fromOffline = fromOffline
	s.state = StateReady

	// 進捗復元。ディープリンクが優先され、範囲外の復元値は0にクランプする。
	startIndex := deepLinkPage
	if startIndex < 0 {
		saved, err := m.progress.GetReadingProgress(title)
		if err != nil {
			m.logger.Warn("読書進捗の取得に失敗しました", slog.String("error", err.Error()))
			saved = 0
		}
		startIndex = saved
	}
	if startIndex >= len(pages) || startIndex < 0 {
		startIndex = 0
	}
	s.pageIndex = startIndex

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	m.metrics.SessionOpened()

	// 初期復元もページ添字の変化として同期的に保存する
	if err := m.progress.SaveReadingProgress(title, startIndex); err != nil {
		m.logger.Warn("読書進捗の保存に失敗しました", slog.String("error", err.Error()))
	}

	m.resolveCurrentImage(ctx, s)

	m.logger.Info("読書セッションを開始しました",
		slog.String("session_id", s.id),
		slog.String("title", title),
		slog.Int("page_index", startIndex),
		slog.Bool("from_offline", fromOffline),
	)

	return m.viewOf(s), nil
}

// Get は現在のセッション状態のスナップショットを返す。
func (m *Manager) Get(id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}
	return m.viewOf(s), nil
}

// Next は次ページへ進む。
// 最終ページから先へ進むとFinishedに遷移し、報酬エンジンを1回だけ起動する。
// Finished中の再呼び出しは何もしない（報酬の二重付与を防ぐ冪等な読了）。
func (m *Manager) Next(ctx context.Context, id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.state == StateFinished {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	if s.state != StateReady {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	if s.pageIndex >= len(s.pages)-1 {
		// 最終ページからの前進は添字を増やさずFinishedへ
		m.finishLocked(ctx, s)
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	target := s.pageIndex + 1
	m.mu.Unlock()

	return m.goToPage(ctx, s, target)
}

// Prev は前ページへ戻る。ページ0からの後退は何もしない。
func (m *Manager) Prev(ctx context.Context, id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.state != StateReady || s.pageIndex == 0 {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	target := s.pageIndex - 1
	m.mu.Unlock()

	return m.goToPage(ctx, s, target)
}

// GoToPage は指定ページへ直接移動する。範囲外の添字は無視される。
func (m *Manager) GoToPage(ctx context.Context, id string, pageIndex int) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.state != StateReady || pageIndex < 0 || pageIndex >= len(s.pages) {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	m.mu.Unlock()

	return m.goToPage(ctx, s, pageIndex)
}

// HandleSwipe はジェスチャ入力を解釈してページを移動する。
// フィルタで除外された入力は現在の状態をそのまま返す（エラーにしない）。
func (m *Manager) HandleSwipe(ctx context.Context, id string, elapsedMs int64, dx, dy float64) (*View, error) {
	switch ClassifySwipe(time.Duration(elapsedMs)*time.Millisecond, dx, dy) {
	case SwipeNext:
		return m.Next(ctx, id)
	case SwipePrev:
		return m.Prev(ctx, id)
	default:
		return m.Get(id)
	}
}

// ToggleBookmark は現在ページのしおりをトグルする。
// ページ移動とは独立で、ページの再読み込みを要しない。
func (m *Manager) ToggleBookmark(id string) (*View, error) {
	s, err := m.find(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if s.state != StateReady {
		m.mu.Unlock()
		return m.viewOf(s), nil
	}
	title := s.story.Title
	pageIndex := s.pageIndex
	excerpt := excerptOf(s.pages[pageIndex].Text)
	m.mu.Unlock()

	if _, err := m.progress.ToggleBookmark(title, pageIndex, excerpt); err != nil {
		return nil, err
	}
	return m.viewOf(s), nil
}

// Close はセッションを破棄する。アクティブな音声は停止しリソースを解放する。
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return model.NewSessionNotFoundError(id)
	}
	delete(m.sessions, id)
	s.stopAudio()
	s.epoch++ // 飛行中の解決結果を無効化
	m.mu.Unlock()

	m.metrics.SessionClosed()
	m.logger.Info("読書セッションを終了しました", slog.String("session_id", id))
	return nil
}

// goToPage はページ遷移の本体。
// 音声停止 → 挿絵クリア → 進捗保存 → 挿絵解決の順で実行する。
func (m *Manager) goToPage(ctx context.Context, s *session, target int) (*View, error) {
	m.mu.Lock()
	// 1. 前ページの音声を停止（新ページの挿絵解決より前であること）
	s.stopAudio()
	// 2. 挿絵状態をクリアし、鮮度ガードを進める
	s.imageURL = ""
	s.imageUnavailable = false
	s.epoch++
	s.pageIndex = target
	title := s.story.Title
	m.mu.Unlock()

	// 3. ページ添字の変化を同期的に保存
	if err := m.progress.SaveReadingProgress(title, target); err != nil {
		m.logger.Warn("読書進捗の保存に失敗しました", slog.String("error", err.Error()))
	}

	// 4. 新ページの挿絵を解決
	m.resolveCurrentImage(ctx, s)

	return m.viewOf(s), nil
}

// resolveCurrentImage は現在ページの挿絵を解決してセッションに反映する。
// 解決中に別の遷移が起きた場合、結果はエポック照合で捨てられる。
// 挿絵の失敗はプレースホルダー表示への縮退であり、セッションは失敗しない。
func (m *Manager) resolveCurrentImage(ctx context.Context, s *session) {
	m.mu.Lock()
	if s.state != StateReady || s.pageIndex >= len(s.pages) {
		m.mu.Unlock()
		return
	}
	epoch := s.epoch
	story := s.story
	pageIndex := s.pageIndex
	page := s.pages[pageIndex]
	m.mu.Unlock()

	imageURL, err := m.resolver.ResolvePageImage(ctx, story, pageIndex, page)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s.epoch != epoch {
		// セッションが先へ進んでいる。古い結果は捨てる。
		return
	}
	if err != nil {
		s.imageUnavailable = true
		return
	}
	s.imageURL = imageURL

	// 自動読み聞かせ: 挿絵の解決完了後、何も再生していない場合のみ起動する。
	// 手動の再生・停止と競合してはならない。
	if s.autoNarrate && s.player == nil && m.conn.Online() {
		m.startPlaybackLocked(ctx, s)
	}
}

// finishLocked はFinishedへの遷移と報酬エンジンの単一起動を行う。
// ロック保持前提。
func (m *Manager) finishLocked(ctx context.Context, s *session) {
	s.stopAudio()
	s.state = StateFinished
	if s.rewarded {
		return
	}
	s.rewarded = true

	_, bundle, err := m.rewards.CompleteStory(ctx, s.story)
	if err != nil {
		// 報酬付与の失敗は読了自体を妨げない
		m.logger.Error("報酬の付与に失敗しました",
			slog.String("title", s.story.Title),
			slog.String("error", err.Error()),
		)
		return
	}
	s.bundle = bundle
}

// find はIDでセッションを検索する。
func (m *Manager) find(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, model.NewSessionNotFoundError(id)
	}
	return s, nil
}

// viewOf はしおり状態を突き合わせたスナップショットを返す。
func (m *Manager) viewOf(s *session) *View {
	m.mu.Lock()
	title := s.story.Title
	pageIndex := s.pageIndex
	m.mu.Unlock()

	bookmarked := false
	if p, err := m.progress.Load(); err == nil && p != nil {
		bookmarked = p.FindBookmark(title, pageIndex) >= 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return s.view(bookmarked)
}

// excerptOf はしおり用の抜粋を返す。
func excerptOf(text string) string {
	const maxExcerpt = 80
	runes := []rune(text)
	if len(runes) <= maxExcerpt {
		return text
	}
	return string(runes[:maxExcerpt]) + "…"
}
