// Package session は1回の読書体験を駆動する状態機械を提供する。
// ページ遷移・挿絵解決・音声ライフサイクル・進捗保存・しおり・
// 読了検出とオンライン状態との整合を、明示的な遷移関数として実装する。
package session

import (
	"errors"
	"time"

	"github.com/hitoshi/ntalo/internal/model"
)

// State は読書セッションの状態。
// Loading → {Error | Ready} と遷移し、Ready内でページを移動する。
// 最終ページから先へ進むとFinished（このセッションの終端）になる。
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
	StateFinished State = "finished"
)

// スワイプ入力のフィルタ閾値。
// 遅いドラッグ・縦スクロール・短すぎる移動を除外する。
const (
	swipeMaxDuration = 500 * time.Millisecond
	swipeMinDistance = 60.0
)

// SwipeDirection はフィルタを通過したスワイプの解釈結果。
type SwipeDirection int

const (
	// SwipeIgnored はフィルタで除外された入力（エラーではない）。
	SwipeIgnored SwipeDirection = iota
	// SwipeNext は左方向スワイプ（次ページ）。
	SwipeNext
	// SwipePrev は右方向スワイプ（前ページ）。
	SwipePrev
)

// ClassifySwipe はジェスチャ入力をフィルタして方向に解釈する。
// すべての条件を満たす場合のみ採用される:
// 経過時間が上限以下、水平変位が垂直変位より大きい、水平変位が最小距離以上。
func ClassifySwipe(elapsed time.Duration, dx, dy float64) SwipeDirection {
	if elapsed > swipeMaxDuration {
		return SwipeIgnored
	}
	absX, absY := abs(dx), abs(dy)
	if absX <= absY || absX < swipeMinDistance {
		return SwipeIgnored
	}
	if dx < 0 {
		return SwipeNext
	}
	return SwipePrev
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// session は1つの読書セッションの内部状態。
// すべてのフィールドはManagerのロック下でのみ触る。
type session struct {
	id          string
	story       model.Story
	pages       []model.StoryPage
	fromOffline bool

	state     State
	pageIndex int
	lastErr   *model.APIError

	// epoch はページ遷移ごとにインクリメントされる鮮度ガード。
	// 解決中にさらに遷移が起きた場合、古い解決結果は捨てられる。
	epoch int64

	imageURL         string
	imageUnavailable bool

	player       audioHandle
	playbackRate float64
	autoNarrate  bool

	// rewarded はFinishedへの単一入場ガード。報酬エンジンの二重起動を防ぐ。
	rewarded bool
	bundle   *model.RewardBundle
}

// audioHandle はセッションが保持する再生リソースの最小インターフェース。
type audioHandle interface {
	Playing() bool
	SetRate(rate float64)
	Stop()
}

// View はハンドラーへ返すセッションのスナップショット。
type View struct {
	ID               string              `json:"id"`
	State            State               `json:"state"`
	Story            model.Story         `json:"story"`
	PageIndex        int                 `json:"pageIndex"`
	PageCount        int                 `json:"pageCount"`
	Page             *model.StoryPage    `json:"page,omitempty"`
	ImageURL         string              `json:"imageUrl,omitempty"`
	ImageUnavailable bool                `json:"imageUnavailable"`
	Bookmarked       bool                `json:"bookmarked"`
	Playing          bool                `json:"playing"`
	PlaybackRate     float64             `json:"playbackRate"`
	AutoNarrate      bool                `json:"autoNarrate"`
	FromOffline      bool                `json:"fromOffline"`
	Reward           *model.RewardBundle `json:"reward,omitempty"`
	Error            *errorView          `json:"error,omitempty"`
}

// errorView はViewに埋め込むエラー表現。
type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

func (s *session) view(bookmarked bool) *View {
	v := &View{
		ID:           s.id,
		State:        s.state,
		Story:        s.story,
		PageIndex:    s.pageIndex,
		PageCount:    len(s.pages),
		ImageURL:     s.imageURL,
		Bookmarked:   bookmarked,
		PlaybackRate: s.playbackRate,
		AutoNarrate:  s.autoNarrate,
		FromOffline:  s.fromOffline,
		Reward:       s.bundle,
	}
	v.ImageUnavailable = s.imageUnavailable
	if s.state == StateReady && s.pageIndex < len(s.pages) {
		page := s.pages[s.pageIndex]
		v.Page = &page
	}
	if s.player != nil && s.player.Playing() {
		v.Playing = true
	}
	if s.lastErr != nil {
		v.Error = &errorView{
			Code:    s.lastErr.Code,
			Message: s.lastErr.Message,
			Action:  s.lastErr.Action,
		}
	}
	return v
}

// asAPIError はエラーをクライアント提示用のAPIErrorへ変換する。
// APIErrorでない読み込み失敗はCONTENT_LOAD_FAILEDに畳み込む。
func asAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return model.NewContentLoadError(err.Error())
}

// stopAudio は再生リソースを完全に破棄する。冪等。
// ページ遷移・新規再生・テアダウンの最初に必ず呼ばれる。
func (s *session) stopAudio() {
	if s.player != nil {
		s.player.Stop()
		s.player = nil
	}
}
