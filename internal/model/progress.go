// Package model はドメインモデルを定義する。
package model

// UserProgress はインストールごとに1件のユーザー進捗レコードを表す。
// オンボーディングで1度だけ作成され、起動ごとにロードされ、
// 完了・しおり・プロフィール編集のたびにその場で変異して全件上書き保存される。
//
// 不変条件:
//   - ReadStoryIDs に重複なし
//   - BadgesEarned に重複なし
//   - StoriesRead は単調非減少、読了セッション1回につき正確に+1（再読も数える）
type UserProgress struct {
	Username            string               `json:"username"`
	AvatarID            string               `json:"avatarId"`
	CustomAvatar        string               `json:"customAvatar,omitempty"` // base64
	StoriesRead         int                  `json:"storiesRead"`
	ReadStoryIDs        []string             `json:"readStoryIds"`
	BadgesEarned        []string             `json:"badgesEarned"`
	Treasures           []Treasure           `json:"treasures"`
	CollectedCharacters []CollectedCharacter `json:"collectedCharacters"`
	Bookmarks           []Bookmark           `json:"bookmarks"`
	HasPremiumAccess    bool                 `json:"hasPremiumAccess"`
	HasSharedApp        bool                 `json:"hasSharedApp"`
	StoryProgress       map[string]int       `json:"storyProgress"` // title -> pageIndex
}

// HasReadStory は指定タイトルが既読リストに含まれるかを返す。
func (p *UserProgress) HasReadStory(title string) bool {
	for _, id := range p.ReadStoryIDs {
		if id == title {
			return true
		}
	}
	return false
}

// HasBadge は指定バッジIDが獲得済みかを返す。
func (p *UserProgress) HasBadge(badgeID string) bool {
	for _, id := range p.BadgesEarned {
		if id == badgeID {
			return true
		}
	}
	return false
}

// FindBookmark は(title, pageIndex)に一致するしおりの添字を返す。存在しない場合は-1。
func (p *UserProgress) FindBookmark(title string, pageIndex int) int {
	for i, b := range p.Bookmarks {
		if b.StoryTitle == title && b.PageIndex == pageIndex {
			return i
		}
	}
	return -1
}

// Treasure は物語読了ごとに必ず1つ生成される収集アイテムを表す。
type Treasure struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	UnlockedAt int64  `json:"unlockedAt"` // epoch-ms
	StoryTitle string `json:"storyTitle"`
}

// CollectedCharacter は確率的に付与されるレアキャラクターを表す。
// 画像はオンライン時のみベストエフォートで取得され、欠損はエラーではない。
type CollectedCharacter struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	StoryTitle string `json:"storyTitle"`
	UnlockedAt int64  `json:"unlockedAt"` // epoch-ms
	ImageURL   string `json:"imageUrl,omitempty"`
}

// Bookmark はページのしおりを表す。
// (StoryTitle, PageIndex)の組ごとに一意で、トグルは集合的セマンティクスを持つ。
type Bookmark struct {
	StoryTitle string `json:"storyTitle"`
	PageIndex  int    `json:"pageIndex"`
	Excerpt    string `json:"excerpt"`
	Timestamp  int64  `json:"timestamp"` // epoch-ms
}
