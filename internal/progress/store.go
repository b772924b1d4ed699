// Package progress はユーザー進捗ドキュメントの読み書きを提供する。
//
// 永続ストア（SQLite）とは別の、同期的な単一スロットのキー値保存であり、
// 1つのJSONドキュメントをファイルに全件上書きで保存する。
// 各ミューテーションヘルパーは load → メモリ上で変異 → save のパターンに従う。
// 並行する複数プロセス・複数タブに対するトランザクション性はない
// （単一ユーザー・単一インストール前提の既知の制約であり、不具合ではない）。
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hitoshi/ntalo/internal/model"
)

// progressFileName は進捗ドキュメントのファイル名。
const progressFileName = "user_progress.json"

// Store はユーザー進捗ドキュメントのストア。
// プロセス内の並行アクセスはミューテックスで直列化し、
// read-modify-writeを1つの同期区間内に収める。
type Store struct {
	mu       sync.Mutex
	filePath string
	now      func() time.Time // テスト用に差し替え可能
}

// NewStore は指定ディレクトリ配下に進捗ドキュメントを保存するStoreを生成する。
func NewStore(dataDir string) *Store {
	return &Store{
		filePath: filepath.Join(dataDir, progressFileName),
		now:      time.Now,
	}
}

// Load は進捗レコードをロードする。未作成の場合はnilを返す。
// 旧スキーマのレコードに対しては、後から導入されたフィールドを
// ゼロ値（空配列・false・空マップ）で埋める読み取り時マイグレーションを適用する。
func (s *Store) Load() (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save は進捗レコード全体を上書き保存する。
func (s *Store) Save(p *model.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(p)
}

// Create は新規プロフィールを初期化して保存し、そのレコードを返す。
// すべてのコレクションは空、すべてのフラグはfalseで初期化される。
func (s *Store) Create(username, avatarID, customAvatar string) (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &model.UserProgress{
		Username:            username,
		AvatarID:            avatarID,
		CustomAvatar:        customAvatar,
		StoriesRead:         0,
		ReadStoryIDs:        []string{},
		BadgesEarned:        []string{},
		Treasures:           []model.Treasure{},
		CollectedCharacters: []model.CollectedCharacter{},
		Bookmarks:           []model.Bookmark{},
		HasPremiumAccess:    false,
		HasSharedApp:        false,
		StoryProgress:       map[string]int{},
	}
	if err := s.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SaveReadingProgress は指定タイトルの現在ページ添字を保存する。
// プロフィール未作成の場合は何もしない（読書画面からの呼び出しは常に成功扱い）。
func (s *Store) SaveReadingProgress(title string, pageIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	p.StoryProgress[title] = pageIndex
	return s.saveLocked(p)
}

// GetReadingProgress は指定タイトルの保存済みページ添字を返す。
// 未保存のタイトル・プロフィール未作成の場合は0を返す。
func (s *Store) GetReadingProgress(title string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	return p.StoryProgress[title], nil
}

// ToggleBookmark は(title, pageIndex)のしおりをトグルする。
// 存在すれば削除、なければ抜粋付きで追加する集合的セマンティクス。
// 追加された場合はtrueを返す。
func (s *Store) ToggleBookmark(title string, pageIndex int, excerpt string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, model.NewNoProfileError()
	}

	if i := p.FindBookmark(title, pageIndex); i >= 0 {
		p.Bookmarks = append(p.Bookmarks[:i], p.Bookmarks[i+1:]...)
		return false, s.saveLocked(p)
	}

	p.Bookmarks = append(p.Bookmarks, model.Bookmark{
		StoryTitle: title,
		PageIndex:  pageIndex,
		Excerpt:    excerpt,
		Timestamp:  s.now().UnixMilli(),
	})
	return true, s.saveLocked(p)
}

// UpdateProfile はユーザー名・アバターを更新する。
// customAvatarに空文字列を渡した場合はカスタムアバターを解除する。
func (s *Store) UpdateProfile(username, avatarID, customAvatar string) (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNoProfileError()
	}

	p.Username = username
	p.AvatarID = avatarID
	p.CustomAvatar = customAvatar
	if err := s.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpgradeToPremium はプレミアムアクセスフラグを立てる。
func (s *Store) UpgradeToPremium() (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNoProfileError()
	}

	p.HasPremiumAccess = true
	if err := s.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// MarkAppShared はアプリ共有済みフラグを立てる。
func (s *Store) MarkAppShared() (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNoProfileError()
	}

	p.HasSharedApp = true
	if err := s.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Mutate はロック下で load → fn → save を1回のアトミックな操作として実行する。
// プロフィール未作成の場合はNO_PROFILEエラーを返す。
// 報酬エンジンのように複数フィールドを一括更新する呼び出し元が使用する。
func (s *Store) Mutate(fn func(p *model.UserProgress) error) (*model.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNoProfileError()
	}

	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.saveLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// loadLocked はロック保持前提でドキュメントを読み込み、マイグレーションを適用する。
func (s *Store) loadLocked() (*model.UserProgress, error) {
	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress document: %w", err)
	}

	p := &model.UserProgress{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse progress document: %w", err)
	}

	migrate(p)
	return p, nil
}

// saveLocked はロック保持前提でドキュメント全体を上書き保存する。
// 一時ファイルへの書き込みとリネームで途中破損を防ぐ。
func (s *Store) saveLocked(p *model.UserProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progress document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress document: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace progress document: %w", err)
	}
	return nil
}

// migrate は旧スキーマのレコードに欠落フィールドのゼロ値を補完する。
// 前方互換の読み取り時スキーママイグレーション。
func migrate(p *model.UserProgress) {
	if p.ReadStoryIDs == nil {
		p.ReadStoryIDs = []string{}
	}
	if p.BadgesEarned == nil {
		p.BadgesEarned = []string{}
	}
	if p.Treasures == nil {
		p.Treasures = []model.Treasure{}
	}
	if p.CollectedCharacters == nil {
		p.CollectedCharacters = []model.CollectedCharacter{}
	}
	if p.Bookmarks == nil {
		p.Bookmarks = []model.Bookmark{}
	}
	if p.StoryProgress == nil {
		p.StoryProgress = map[string]int{}
	}
}
