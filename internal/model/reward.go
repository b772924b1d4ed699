// Package model はドメインモデルを定義する。
package model

// Badge はバッジ定義（インスタンスではない）を表す。
// 獲得済みバッジはUserProgress.BadgesEarnedにIDのみで保存される。
// Predicateは進捗スナップショットの純粋関数であり、副作用を持ってはならない。
type Badge struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Icon        string                     `json:"icon"`
	Predicate   func(p *UserProgress) bool `json:"-"`
}

// RewardBundle は1回の読了イベントで新規に得られた報酬のみを表す。
// 過去の呼び出しで獲得済みのバッジは決して再掲されない。
// Badgesはそのままクライアントに提示されるため、述語を除く全定義を直列化する。
type RewardBundle struct {
	Badges    []Badge             `json:"badges"`
	Treasure  Treasure            `json:"treasure"`
	Character *CollectedCharacter `json:"character,omitempty"`
}
