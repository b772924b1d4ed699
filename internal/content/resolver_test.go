package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/ntalo/internal/connectivity"
	"github.com/hitoshi/ntalo/internal/model"
	"github.com/hitoshi/ntalo/internal/security"
)

// mockCacheRepo はCacheRepositoryのモック実装。
type mockCacheRepo struct {
	data map[string]string
	// putErr が設定されている場合、PutCacheは常に失敗する
	putErr error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{data: map[string]string{}}
}

func (m *mockCacheRepo) PutCache(ctx context.Context, key, value string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *mockCacheRepo) GetCache(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockCacheRepo) DeleteCache(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// mockStoryRepo はOfflineStoryRepositoryのモック実装。
type mockStoryRepo struct {
	stories map[string]*model.OfflineStory
}

func newMockStoryRepo() *mockStoryRepo {
	return &mockStoryRepo{stories: map[string]*model.OfflineStory{}}
}

func (m *mockStoryRepo) PutStory(ctx context.Context, story *model.OfflineStory) error {
	m.stories[story.Title] = story
	return nil
}

func (m *mockStoryRepo) GetStory(ctx context.Context, title string) (*model.OfflineStory, error) {
	return m.stories[title], nil
}

func (m *mockStoryRepo) ListStories(ctx context.Context) ([]*model.OfflineStory, error) {
	var out []*model.OfflineStory
	for _, s := range m.stories {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStoryRepo) DeleteStory(ctx context.Context, title string) error {
	delete(m.stories, title)
	return nil
}

// mockImageGen はImageGeneratorのモック実装。
type mockImageGen struct {
	generatePageImageFn    func(ctx context.Context, desc string) (string, error)
	generateHistoryImageFn func(ctx context.Context, fact string) (string, error)
	calls                  int
}

func (m *mockImageGen) GeneratePageImage(ctx context.Context, desc string) (string, error) {
	m.calls++
	if m.generatePageImageFn != nil {
		return m.generatePageImageFn(ctx, desc)
	}
	return "data:image/png;base64,GEN", nil
}

func (m *mockImageGen) GenerateHistoryImage(ctx context.Context, fact string) (string, error) {
	m.calls++
	if m.generateHistoryImageFn != nil {
		return m.generateHistoryImageFn(ctx, fact)
	}
	return "data:image/png;base64,HIST", nil
}

// mockTextGen はTextGeneratorのモック実装。
type mockTextGen struct {
	generateFn func(ctx context.Context, title, region, summary string) ([]model.StoryPage, error)
}

func (m *mockTextGen) GenerateStoryPages(ctx context.Context, title, region, summary string) ([]model.StoryPage, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, title, region, summary)
	}
	return []model.StoryPage{{Text: "Once upon a time", VisualDescription: "A spider", HistoryFact: "A fact"}}, nil
}

// mockProber はAssetProberのモック実装。
type mockProber struct {
	existing map[string]bool
}

func (m *mockProber) Exists(relPath string) bool {
	return m.existing[relPath]
}

// mockSanitizer は恒等写像のサニタイザ。
type mockSanitizer struct{}

func (mockSanitizer) Sanitize(s string) string { return s }

// noopMetrics はMetricsCollectorの何もしない実装。
type noopMetrics struct{}

func (noopMetrics) RecordImageResolved(string)           {}
func (noopMetrics) RecordCacheHit()                      {}
func (noopMetrics) RecordCacheMiss()                     {}
func (noopMetrics) RecordGenerationRetry(string)         {}
func (noopMetrics) RecordGenerationLatency(time.Duration) {}
func (noopMetrics) RecordStoryCompleted()                {}
func (noopMetrics) RecordBadgeAwarded(string)            {}
func (noopMetrics) RecordRareDrop()                      {}
func (noopMetrics) SessionOpened()                       {}
func (noopMetrics) SessionClosed()                       {}

type resolverFixture struct {
	resolver *Resolver
	cache    *mockCacheRepo
	stories  *mockStoryRepo
	imageGen *mockImageGen
	textGen  *mockTextGen
	prober   *mockProber
	conn     *connectivity.Monitor
}

func newResolverFixture() *resolverFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &resolverFixture{
		cache:    newMockCacheRepo(),
		stories:  newMockStoryRepo(),
		imageGen: &mockImageGen{},
		textGen:  &mockTextGen{},
		prober:   &mockProber{existing: map[string]bool{}},
		conn:     connectivity.NewMonitor(logger),
	}
	f.resolver = NewResolver(f.cache, f.stories, f.textGen, f.imageGen, f.conn, f.prober, mockSanitizer{}, security.NewSSRFGuard(), noopMetrics{}, logger)
	return f
}

var testStory = model.Story{ID: "1", AssetID: 1, Title: "Anansi and the Moss-Covered Rock", Region: "Ghana – Akan"}

func TestResolvePageImage_CustomWinsOverEverything(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	f.cache.data[CustomImageKey(testStory.Title, 0)] = "data:image/png;base64,CUSTOM"
	f.prober.existing[assetRelPath(1, 0)] = true
	page := model.StoryPage{VisualDescription: "A spider", ImageURL: "data:image/png;base64,EMBEDDED"}

	got, err := f.resolver.ResolvePageImage(ctx, testStory, 0, page)
	if err != nil {
		t.Fatalf("ResolvePageImage() error = %v", err)
	}
	if got != "data:image/png;base64,CUSTOM" {
		t.Errorf("got %q, want custom image", got)
	}
	if f.imageGen.calls != 0 {
		t.Error("generator should not be called")
	}
}

func TestResolvePageImage_EmbeddedBeatsAsset(t *testing.T) {
	f := newResolverFixture()

	f.prober.existing[assetRelPath(1, 0)] = true
	page := model.StoryPage{VisualDescription: "A spider", ImageURL: "data:image/png;base64,EMBEDDED"}

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, page)
	if err != nil {
		t.Fatal(err)
	}
	if got != "data:image/png;base64,EMBEDDED" {
		t.Errorf("got %q, want embedded image", got)
	}
}

func TestResolvePageImage_AssetPath(t *testing.T) {
	f := newResolverFixture()

	// ページ添字2 → ファイル名のページ番号は3（1始まり）
	f.prober.existing["Picture 1_3.png"] = true

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 2, model.StoryPage{VisualDescription: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "/assets/Picture 1_3.png" {
		t.Errorf("got %q, want /assets/Picture 1_3.png", got)
	}
	if f.imageGen.calls != 0 {
		t.Error("generator should not be called when asset exists")
	}
}

func TestResolvePageImage_LegacyPath(t *testing.T) {
	f := newResolverFixture()

	f.prober.existing["stories/1/page_1.png"] = true

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "/assets/stories/1/page_1.png" {
		t.Errorf("got %q, want legacy path", got)
	}
}

func TestResolvePageImage_CacheHitWorksOffline(t *testing.T) {
	f := newResolverFixture()
	f.conn.Set(false)

	desc := "A spider on a rock"
	f.cache.data[ImageCacheKey(desc)] = "data:image/png;base64,CACHED"

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: desc})
	if err != nil {
		t.Fatal(err)
	}
	if got != "data:image/png;base64,CACHED" {
		t.Errorf("got %q, want cached image", got)
	}
}

func TestResolvePageImage_OfflineGuard(t *testing.T) {
	f := newResolverFixture()
	f.conn.Set(false)

	_, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: "x"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeImageUnavailable {
		t.Errorf("error = %v, want IMAGE_UNAVAILABLE", err)
	}
	if f.imageGen.calls != 0 {
		t.Error("generator must not be called while offline")
	}
}

func TestResolvePageImage_GeneratesAndCaches(t *testing.T) {
	f := newResolverFixture()

	desc := "A spider on a rock"
	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: desc})
	if err != nil {
		t.Fatal(err)
	}
	if got != "data:image/png;base64,GEN" {
		t.Errorf("got %q", got)
	}
	if cached := f.cache.data[ImageCacheKey(desc)]; cached != got {
		t.Errorf("cache write missing, got %q", cached)
	}
}

func TestResolvePageImage_CacheWriteFailureStillReturnsImage(t *testing.T) {
	f := newResolverFixture()
	f.cache.putErr = errors.New("disk full")

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: "x"})
	if err != nil {
		t.Fatalf("ResolvePageImage() error = %v, want success despite cache failure", err)
	}
	if got == "" {
		t.Error("expected generated image")
	}
}

func TestResolvePageImage_GenerationFailure(t *testing.T) {
	f := newResolverFixture()
	f.imageGen.generatePageImageFn = func(ctx context.Context, desc string) (string, error) {
		return "", errors.New("provider down")
	}

	_, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, model.StoryPage{VisualDescription: "x"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeImageUnavailable {
		t.Errorf("error = %v, want IMAGE_UNAVAILABLE", err)
	}
}

func TestResolveStoryPages_OfflineSnapshotFirst(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	f.stories.stories[testStory.Title] = &model.OfflineStory{
		Story:   testStory,
		Pages:   []model.StoryPage{{Text: "saved", ImageURL: "data:image/png;base64,BAKED"}},
		SavedAt: 1700000000000,
	}

	pages, fromOffline, err := f.resolver.ResolveStoryPages(ctx, testStory.Title)
	if err != nil {
		t.Fatal(err)
	}
	if !fromOffline {
		t.Error("fromOffline = false, want true")
	}
	if len(pages) != 1 || pages[0].Text != "saved" {
		t.Errorf("pages = %+v", pages)
	}
}

func TestResolveStoryPages_OfflineNotDownloaded(t *testing.T) {
	f := newResolverFixture()
	f.conn.Set(false)

	_, _, err := f.resolver.ResolveStoryPages(context.Background(), testStory.Title)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeOfflineNotDownloaded {
		t.Errorf("error = %v, want OFFLINE_NOT_DOWNLOADED", err)
	}
}

func TestResolveStoryPages_GeneratesAndCachesPages(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	pages, fromOffline, err := f.resolver.ResolveStoryPages(ctx, testStory.Title)
	if err != nil {
		t.Fatal(err)
	}
	if fromOffline {
		t.Error("fromOffline = true, want false")
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d", len(pages))
	}

	// 2回目はキャッシュから（生成器を差し替えて確認）
	f.textGen.generateFn = func(ctx context.Context, title, region, summary string) ([]model.StoryPage, error) {
		t.Error("generator should not be called on cache hit")
		return nil, errors.New("unexpected")
	}
	if _, _, err := f.resolver.ResolveStoryPages(ctx, testStory.Title); err != nil {
		t.Fatal(err)
	}
}

func TestResolveStoryPages_UnknownTitle(t *testing.T) {
	f := newResolverFixture()

	_, _, err := f.resolver.ResolveStoryPages(context.Background(), "No Such Story")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeStoryNotFound {
		t.Errorf("error = %v, want STORY_NOT_FOUND", err)
	}
}

func TestCustomImage_SaveGetDelete(t *testing.T) {
	f := newResolverFixture()
	ctx := context.Background()

	if err := f.resolver.SaveCustomImage(ctx, "t", 1, "data:image/png;base64,X"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := f.resolver.GetCustomImage(ctx, "t", 1)
	if err != nil || !ok || got != "data:image/png;base64,X" {
		t.Fatalf("GetCustomImage() = %q, %v, %v", got, ok, err)
	}

	if err := f.resolver.DeleteCustomImage(ctx, "t", 1); err != nil {
		t.Fatal(err)
	}
	// 冪等: 2回目の削除も成功する
	if err := f.resolver.DeleteCustomImage(ctx, "t", 1); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := f.resolver.GetCustomImage(ctx, "t", 1); ok {
		t.Error("custom image should be deleted")
	}
}

func TestIsCustomImageKey(t *testing.T) {
	if !IsCustomImageKey(CustomImageKey("t", 0)) {
		t.Error("expected true for custom key")
	}
	if IsCustomImageKey(ImageCacheKey("desc")) {
		t.Error("expected false for img_ key")
	}
}

func TestResolvePageImage_BlockedEmbeddedURLFallsThrough(t *testing.T) {
	f := newResolverFixture()
	page := model.StoryPage{
		VisualDescription: "A spider",
		ImageURL:          "http://169.254.169.254/latest/meta-data",
	}

	got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, page)
	if err != nil {
		t.Fatalf("ResolvePageImage() error = %v", err)
	}
	if got == page.ImageURL {
		t.Fatalf("blocked embedded URL was returned as-is: %q", got)
	}
	// 拒否後はチェーンの残りに委ねられ、リモート生成で解決される
	if f.imageGen.calls != 1 {
		t.Errorf("GeneratePageImage calls = %d, want 1", f.imageGen.calls)
	}
}

func TestResolvePageImage_EmbeddedURLValidation(t *testing.T) {
	tests := []struct {
		name     string
		imageURL string
		wantSame bool
	}{
		{"data URLは検証なしで通す", "data:image/png;base64,EMBEDDED", true},
		{"相対アセットパスは検証なしで通す", "/assets/Picture 1_1.png", true},
		{"公開ホストへのhttpsは通す", "https://storage.example.com/img.png", true},
		{"ループバックへのhttpは拒否する", "http://127.0.0.1/img.png", false},
		{"localhostは拒否する", "http://localhost/img.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResolverFixture()
			page := model.StoryPage{VisualDescription: "A spider", ImageURL: tt.imageURL}

			got, err := f.resolver.ResolvePageImage(context.Background(), testStory, 0, page)
			if err != nil {
				t.Fatalf("ResolvePageImage() error = %v", err)
			}
			if tt.wantSame && got != tt.imageURL {
				t.Errorf("got %q, want embedded %q", got, tt.imageURL)
			}
			if !tt.wantSame && got == tt.imageURL {
				t.Errorf("blocked URL %q was returned", tt.imageURL)
			}
		})
	}
}
