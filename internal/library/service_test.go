package library

import (
	"context"
	"testing"

	"github.com/hitoshi/ntalo/internal/model"
)

type mockStoryRepo struct {
	stories map[string]*model.OfflineStory
	listErr error
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
	if m.listErr != nil {
		return nil, m.listErr
	}
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

const anansiTitle = "Anansi and the Moss-Covered Rock"

func TestList_MergesDownloadState(t *testing.T) {
	repo := newMockStoryRepo()
	repo.stories[anansiTitle] = &model.OfflineStory{
		Story:   model.Story{Title: anansiTitle},
		SavedAt: 1700000000000,
	}
	service := NewService(repo)

	entries, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 60 {
		t.Fatalf("len(entries) = %d, want 60", len(entries))
	}

	var downloaded int
	for _, e := range entries {
		if !e.Downloaded {
			if e.SavedAt != 0 {
				t.Errorf("%q: SavedAt = %d without download", e.Title, e.SavedAt)
			}
			continue
		}
		downloaded++
		if e.Title != anansiTitle {
			t.Errorf("unexpected downloaded entry %q", e.Title)
		}
		if e.SavedAt != 1700000000000 {
			t.Errorf("SavedAt = %d", e.SavedAt)
		}
	}
	if downloaded != 1 {
		t.Errorf("downloaded = %d, want 1", downloaded)
	}
}

func TestGet(t *testing.T) {
	repo := newMockStoryRepo()
	service := NewService(repo)
	ctx := context.Background()

	entry, err := service.Get(ctx, anansiTitle)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry.Downloaded {
		t.Error("Downloaded = true before download")
	}
	if entry.Region == "" || entry.Summary == "" {
		t.Error("catalog fields must be populated")
	}

	repo.stories[anansiTitle] = &model.OfflineStory{
		Story:   model.Story{Title: anansiTitle},
		SavedAt: 1700000000000,
	}
	entry, err = service.Get(ctx, anansiTitle)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.Downloaded || entry.SavedAt != 1700000000000 {
		t.Errorf("entry = %+v, want downloaded", entry)
	}
}

func TestGet_UnknownTitle(t *testing.T) {
	service := NewService(newMockStoryRepo())

	_, err := service.Get(context.Background(), "No Such Story")
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeStoryNotFound {
		t.Errorf("error = %v, want STORY_NOT_FOUND", err)
	}
}
