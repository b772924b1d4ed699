// Package reward は読了時の報酬付与を提供する。
// 実績バッジの評価、地域スタンプの付与、お宝の生成、
// レアキャラクターの確率的付与を1回の進捗更新として実行する。
package reward

import (
	"strings"

	"github.com/hitoshi/ntalo/internal/model"
)

// achievementBadges は実績バッジのカタログ。
// 述語はインクリメント後の進捗スナップショットに対してカタログ順に評価される。
// 短絡せず全件を独立に評価すること（順序はUI表示用でしかない）。
var achievementBadges = []model.Badge{
	{
		ID:          "first_step",
		Name:        "First Step",
		Description: "Read your first story.",
		Icon:        "👣",
		Predicate:   func(p *model.UserProgress) bool { return p.StoriesRead >= 1 },
	},
	{
		ID:          "village_listener",
		Name:        "World Listener",
		Description: "Read 3 different stories.",
		Icon:        "👂",
		Predicate:   func(p *model.UserProgress) bool { return len(p.ReadStoryIDs) >= 3 },
	},
	{
		ID:          "storyteller",
		Name:        "Master Storyteller",
		Description: "Read 5 stories.",
		Icon:        "📚",
		Predicate:   func(p *model.UserProgress) bool { return p.StoriesRead >= 5 },
	},
	{
		ID:          "historian",
		Name:        "History Keeper",
		Description: "Completed 10 stories.",
		Icon:        "👑",
		Predicate:   func(p *model.UserProgress) bool { return p.StoriesRead >= 10 },
	},
	{
		ID:          "explorer",
		Name:        "Global Explorer",
		Description: "Read stories from many different regions.",
		Icon:        "🌍",
		Predicate:   func(p *model.UserProgress) bool { return p.StoriesRead >= 7 },
	},
}

// AchievementBadges は実績バッジカタログのコピーを返す。
func AchievementBadges() []model.Badge {
	out := make([]model.Badge, len(achievementBadges))
	copy(out, achievementBadges)
	return out
}

// stampRule は地域文字列のキーワードからスタンプバッジへのルール。
// 上から順に評価され、最初に一致したルールが採用される。
type stampRule struct {
	keyword string // 小文字で比較
	badge   model.Badge
}

// stampRules は地域→スタンプバッジのルールテーブル。
// 地域文字列は自由記述のため部分一致で解決する。表記が変わると
// 一致しなくなるデータ品質上のリスクがあるが、その場合は
// スタンプなしに縮退するだけで読了処理は失敗しない。
var stampRules = []stampRule{
	{"ghana", stampBadge("stamp_ghana", "Ghana Stamp", "🇬🇭")},
	{"nigeria", stampBadge("stamp_nigeria", "Nigeria Stamp", "🇳🇬")},
	{"south africa", stampBadge("stamp_south_africa", "South Africa Stamp", "🇿🇦")},
	{"ethiopia", stampBadge("stamp_ethiopia", "Ethiopia Stamp", "🇪🇹")},
	{"kenya", stampBadge("stamp_kenya", "Kenya Stamp", "🇰🇪")},
	// カタログの地域表記は「Tanzania / Uganda」のように複数国をまたぐため、
	// ヒマラヤ圏と同様にひとつの地域スタンプへまとめる。
	{"tanzania", stampBadge("stamp_east_africa", "East Africa Stamp", "🦁")},
	{"uganda", stampBadge("stamp_east_africa", "East Africa Stamp", "🦁")},
	{"greece", stampBadge("stamp_greece", "Greece Stamp", "🇬🇷")},
	{"germany", stampBadge("stamp_germany", "Germany Stamp", "🇩🇪")},
	{"france", stampBadge("stamp_france", "France Stamp", "🇫🇷")},
	{"england", stampBadge("stamp_england", "England Stamp", "🏴󠁧󠁢󠁥󠁮󠁧󠁿")},
	{"denmark", stampBadge("stamp_denmark", "Denmark Stamp", "🇩🇰")},
	{"scotland", stampBadge("stamp_scotland", "Scotland Stamp", "🏴󠁧󠁢󠁳󠁣󠁴󠁿")},
	{"china", stampBadge("stamp_china", "China Stamp", "🇨🇳")},
	{"india", stampBadge("stamp_india", "India Stamp", "🇮🇳")},
	{"japan", stampBadge("stamp_japan", "Japan Stamp", "🇯🇵")},
	{"korea", stampBadge("stamp_korea", "Korea Stamp", "🇰🇷")},
	{"philippines", stampBadge("stamp_philippines", "Philippines Stamp", "🇵🇭")},
	{"indonesia", stampBadge("stamp_indonesia", "Indonesia Stamp", "🇮🇩")},
	{"vietnam", stampBadge("stamp_vietnam", "Vietnam Stamp", "🇻🇳")},
	{"malaysia", stampBadge("stamp_malaysia", "Malaysia Stamp", "🇲🇾")},
	{"cambodia", stampBadge("stamp_cambodia", "Cambodia Stamp", "🇰🇭")},
	{"tibet", stampBadge("stamp_himalaya", "Himalaya Stamp", "🏔️")},
	{"mongolia", stampBadge("stamp_himalaya", "Himalaya Stamp", "🏔️")},
	{"nepal", stampBadge("stamp_himalaya", "Himalaya Stamp", "🏔️")},
	{"thailand", stampBadge("stamp_thailand", "Thailand Stamp", "🇹🇭")},
	{"cherokee", stampBadge("stamp_first_nations", "First Nations Stamp", "🪶")},
	{"iroquois", stampBadge("stamp_first_nations", "First Nations Stamp", "🪶")},
	{"lenape", stampBadge("stamp_first_nations", "First Nations Stamp", "🪶")},
	{"inuit", stampBadge("stamp_arctic", "Arctic Stamp", "❄️")},
	{"aztec", stampBadge("stamp_mexico", "Mexico Stamp", "🇲🇽")},
	{"mexico", stampBadge("stamp_mexico", "Mexico Stamp", "🇲🇽")},
	{"maya", stampBadge("stamp_maya", "Maya Stamp", "🗿")},
	{"guatemala", stampBadge("stamp_maya", "Maya Stamp", "🗿")},
	{"brazil", stampBadge("stamp_brazil", "Brazil Stamp", "🇧🇷")},
	{"andes", stampBadge("stamp_andes", "Andes Stamp", "⛰️")},
	{"andean", stampBadge("stamp_andes", "Andes Stamp", "⛰️")},
	{"ecuador", stampBadge("stamp_andes", "Andes Stamp", "⛰️")},
	{"peru", stampBadge("stamp_andes", "Andes Stamp", "⛰️")},
}

func stampBadge(id, name, icon string) model.Badge {
	return model.Badge{
		ID:          id,
		Name:        name,
		Description: "Collected a story from this region.",
		Icon:        icon,
	}
}

// ResolveStampBadge は地域文字列からスタンプバッジを解決する。
// どのルールにも一致しない場合はfalseを返す（スタンプなしで続行）。
func ResolveStampBadge(region string) (model.Badge, bool) {
	lower := strings.ToLower(region)
	for _, rule := range stampRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.badge, true
		}
	}
	return model.Badge{}, false
}

// characterRule はタイトルのキーワードからキャラクターへのルール。
type characterRule struct {
	keyword string
	name    string
	icon    string
}

// characterRules はタイトル→キャラクターのルールテーブル。上から順に評価される。
var characterRules = []characterRule{
	{"anansi", "Anansi the Spider", "🕷️"},
	{"monkey king", "Sun Wukong", "🐵"},
	{"monkey", "Cheeky Monkey", "🐒"},
	{"tortoise", "Wise Tortoise", "🐢"},
	{"turtle", "Wise Turtle", "🐢"},
	{"hare", "Swift Hare", "🐇"},
	{"jackal", "Clever Jackal", "🦊"},
	{"fox", "Fox Spirit", "🦊"},
	{"lion", "Golden Lion", "🦁"},
	{"tiger", "Striped Tiger", "🐅"},
	{"jaguar", "Silent Jaguar", "🐆"},
	{"wolf", "Grey Wolf", "🐺"},
	{"dragon", "River Dragon", "🐉"},
	{"snake", "Emerald Snake", "🐍"},
	{"elephant", "Gentle Elephant", "🐘"},
	{"crow", "Rainbow Crow", "🐦"},
	{"hummingbird", "Brave Hummingbird", "🐦"},
	{"condor", "Sky Condor", "🦅"},
	{"frog", "Green Frog", "🐸"},
	{"bear", "Great Bear", "🐻"},
	{"peach boy", "Momotaro", "🍑"},
	{"princess", "Clever Princess", "👸"},
	{"queen", "Snow Queen", "❄️"},
}

// defaultCharacter はどのルールにも一致しない場合のフォールバック。
const (
	defaultCharacterName = "Story Hero"
	defaultCharacterIcon = "⭐"
)

// ResolveCharacter はタイトルからキャラクターの名前とアイコンを解決する。
// どのルールにも一致しない場合は汎用のヒーローを返す。
func ResolveCharacter(title string) (name, icon string) {
	lower := strings.ToLower(title)
	for _, rule := range characterRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.name, rule.icon
		}
	}
	return defaultCharacterName, defaultCharacterIcon
}

// treasureMessages はお宝メッセージの固定プール。一様ランダムに1つ選ばれる。
var treasureMessages = []string{
	"You found a shimmering story gem!",
	"A golden page fragment joins your collection!",
	"The storyteller left you a tiny painted shell!",
	"You discovered a woven bookmark charm!",
	"A paper star falls out of the last page!",
	"You caught a firefly of inspiration in a jar!",
	"An old map corner with a secret drawing!",
	"A smooth river stone with a painted eye!",
}
