package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/ntalo/internal/database"
	"github.com/hitoshi/ntalo/internal/model"
)

// newTestConnector は一時ファイル上のSQLiteにマイグレーション適用済みの
// Connectorを生成する。
func newTestConnector(t *testing.T) *database.Connector {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ntalo_test.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	c := database.NewConnector(path)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestStoryRepo_PutGetRoundTrip はスナップショットの保存と取得を検証する。
func TestStoryRepo_PutGetRoundTrip(t *testing.T) {
	repo := NewSQLiteStoryRepo(newTestConnector(t))
	ctx := context.Background()

	story := &model.OfflineStory{
		Story: model.Story{
			ID:      "1",
			AssetID: 1,
			Title:   "Anansi and the Moss-Covered Rock",
			Region:  "Ghana – Akan",
		},
		Pages: []model.StoryPage{
			{Text: "page one", VisualDescription: "anansi", ImageURL: "data:image/png;base64,AAA"},
		},
		SavedAt: 1700000000000,
	}

	if err := repo.PutStory(ctx, story); err != nil {
		t.Fatalf("PutStory failed: %v", err)
	}

	got, err := repo.GetStory(ctx, story.Title)
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetStory returned nil for saved story")
	}
	if got.Title != story.Title {
		t.Errorf("Title = %q, want %q", got.Title, story.Title)
	}
	if len(got.Pages) != 1 || got.Pages[0].ImageURL != "data:image/png;base64,AAA" {
		t.Errorf("pages not round-tripped: %+v", got.Pages)
	}
	if got.SavedAt != story.SavedAt {
		t.Errorf("SavedAt = %d, want %d", got.SavedAt, story.SavedAt)
	}
}

// TestStoryRepo_PutOverwritesByTitle は同タイトルの再保存が上書きになることを検証する。
func TestStoryRepo_PutOverwritesByTitle(t *testing.T) {
	repo := NewSQLiteStoryRepo(newTestConnector(t))
	ctx := context.Background()

	first := &model.OfflineStory{
		Story:   model.Story{Title: "The Magic Drum"},
		Pages:   []model.StoryPage{{Text: "old"}},
		SavedAt: 1,
	}
	second := &model.OfflineStory{
		Story:   model.Story{Title: "The Magic Drum"},
		Pages:   []model.StoryPage{{Text: "new"}},
		SavedAt: 2,
	}

	if err := repo.PutStory(ctx, first); err != nil {
		t.Fatalf("PutStory(first) failed: %v", err)
	}
	if err := repo.PutStory(ctx, second); err != nil {
		t.Fatalf("PutStory(second) failed: %v", err)
	}

	got, err := repo.GetStory(ctx, "The Magic Drum")
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got.Pages[0].Text != "new" {
		t.Errorf("Text = %q, want new (upsert should overwrite)", got.Pages[0].Text)
	}

	all, err := repo.ListStories(ctx)
	if err != nil {
		t.Fatalf("ListStories failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListStories len = %d, want 1", len(all))
	}
}

// TestStoryRepo_GetMissing は未保存タイトルでnilが返ることを検証する。
func TestStoryRepo_GetMissing(t *testing.T) {
	repo := NewSQLiteStoryRepo(newTestConnector(t))

	got, err := repo.GetStory(context.Background(), "Unknown Story")
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetStory = %+v, want nil", got)
	}
}

// TestStoryRepo_Delete は削除の冪等性を検証する。
func TestStoryRepo_Delete(t *testing.T) {
	repo := NewSQLiteStoryRepo(newTestConnector(t))
	ctx := context.Background()

	story := &model.OfflineStory{Story: model.Story{Title: "Kalulu the Hare"}}
	if err := repo.PutStory(ctx, story); err != nil {
		t.Fatalf("PutStory failed: %v", err)
	}

	if err := repo.DeleteStory(ctx, "Kalulu the Hare"); err != nil {
		t.Fatalf("DeleteStory failed: %v", err)
	}
	// 2回目の削除もエラーにならない
	if err := repo.DeleteStory(ctx, "Kalulu the Hare"); err != nil {
		t.Fatalf("DeleteStory (second) failed: %v", err)
	}

	got, err := repo.GetStory(ctx, "Kalulu the Hare")
	if err != nil {
		t.Fatalf("GetStory failed: %v", err)
	}
	if got != nil {
		t.Error("story should be deleted")
	}
}

// TestCacheRepo_RoundTrip はキャッシュの保存・取得・削除を検証する。
func TestCacheRepo_RoundTrip(t *testing.T) {
	repo := NewSQLiteCacheRepo(newTestConnector(t))
	ctx := context.Background()

	if err := repo.PutCache(ctx, "img_abc", "data:image/png;base64,BBB"); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}

	value, found, err := repo.GetCache(ctx, "img_abc")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if !found {
		t.Fatal("GetCache found = false, want true")
	}
	if value != "data:image/png;base64,BBB" {
		t.Errorf("value = %q", value)
	}

	if err := repo.DeleteCache(ctx, "img_abc"); err != nil {
		t.Fatalf("DeleteCache failed: %v", err)
	}
	_, found, err = repo.GetCache(ctx, "img_abc")
	if err != nil {
		t.Fatalf("GetCache after delete failed: %v", err)
	}
	if found {
		t.Error("GetCache found = true after delete, want false")
	}
}

// TestCacheRepo_MissingKey は未保存キーでfound=falseが返ることを検証する。
func TestCacheRepo_MissingKey(t *testing.T) {
	repo := NewSQLiteCacheRepo(newTestConnector(t))

	_, found, err := repo.GetCache(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if found {
		t.Error("found = true for missing key")
	}
}

// TestWithRetry_RecoversFromStaleHandle は失効ハンドル後の透過的な再接続を検証する。
// 最初のAcquireで得たハンドルを外部から閉じ、次の操作が再接続で成功することを確認する。
func TestWithRetry_RecoversFromStaleHandle(t *testing.T) {
	c := newTestConnector(t)
	repo := NewSQLiteCacheRepo(c)
	ctx := context.Background()

	if err := repo.PutCache(ctx, "k", "v1"); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}

	// ハンドルを故意に失効させる（バージョン更新や予期しないクローズの再現）
	db, err := c.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	db.Close()

	// 失効ハンドルでの最初の試行は失敗し、再接続後の1回の再試行で成功する
	if err := repo.PutCache(ctx, "k", "v2"); err != nil {
		t.Fatalf("PutCache after stale handle failed: %v", err)
	}

	value, found, err := repo.GetCache(ctx, "k")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if !found || value != "v2" {
		t.Errorf("value = %q found = %v, want v2 true", value, found)
	}
}

// TestCacheRepo_PruneStaleCache は保持期限を超えたエントリーだけが削除され、
// カスタム挿絵キーが接頭辞保護されることを検証する。
func TestCacheRepo_PruneStaleCache(t *testing.T) {
	repo := NewSQLiteCacheRepo(newTestConnector(t))
	ctx := context.Background()

	repo.now = func() time.Time { return time.UnixMilli(1000) }
	if err := repo.PutCache(ctx, "img_old", "v"); err != nil {
		t.Fatal(err)
	}
	if err := repo.PutCache(ctx, "custom_story_img_Anansi_0", "v"); err != nil {
		t.Fatal(err)
	}

	repo.now = func() time.Time { return time.UnixMilli(5000) }
	if err := repo.PutCache(ctx, "img_fresh", "v"); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.PruneStaleCache(ctx, time.UnixMilli(3000), "custom_story_img_")
	if err != nil {
		t.Fatalf("PruneStaleCache failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	for key, want := range map[string]bool{
		"img_old":                   false,
		"custom_story_img_Anansi_0": true,
		"img_fresh":                 true,
	} {
		_, found, err := repo.GetCache(ctx, key)
		if err != nil {
			t.Fatal(err)
		}
		if found != want {
			t.Errorf("%s: found = %v, want %v", key, found, want)
		}
	}
}
