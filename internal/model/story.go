// Package model はドメインモデルを定義する。
package model

// StoryPage は物語の1ページを表す。
// 物語エディション（セッション内で確定したページ列）が生成された後はイミュータブル。
// ImageURLが非空の場合、ページはオフライン保存から供給されたことを示し、
// 画像解決はそれ以上の段階を踏まずに短絡する。
type StoryPage struct {
	Text              string `json:"text"`
	VisualDescription string `json:"visualDescription"`
	HistoryFact       string `json:"historyFact"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

// Story はカタログ上の物語を表す。
// Titleが永続化全体の自然キーであり、IDではない。
// オフラインストア・読書進捗・しおり・カスタム画像の全検索はTitleでキーする。
type Story struct {
	ID      string      `json:"id"`
	AssetID int         `json:"assetId"`
	Title   string      `json:"title"`
	Summary string      `json:"summary"`
	Region  string      `json:"region"`
	Pages   []StoryPage `json:"pages,omitempty"`
}

// OfflineStory は完全に実体化された自己完結のスナップショットを表す。
// 全ページのImageURLが焼き込まれた状態で永続ストアにアトミックに書き込まれる。
type OfflineStory struct {
	Story
	Pages   []StoryPage `json:"pages"`
	SavedAt int64       `json:"savedAt"` // epoch-ms
}
