package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/ntalo/internal/content"
)

type mockPruner struct {
	called        bool
	before        time.Time
	protectPrefix string
	deleted       int64
	err           error
}

func (m *mockPruner) PruneStaleCache(ctx context.Context, before time.Time, protectPrefix string) (int64, error) {
	m.called = true
	m.before = before
	m.protectPrefix = protectPrefix
	return m.deleted, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_PrunesWithTTLCutoff(t *testing.T) {
	pruner := &mockPruner{deleted: 3}
	job := NewCleanupJob(pruner, testLogger(), 30*24*time.Hour)
	now := time.UnixMilli(1700000000000)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !pruner.called {
		t.Fatal("pruner not called")
	}
	if want := now.Add(-30 * 24 * time.Hour); !pruner.before.Equal(want) {
		t.Errorf("before = %v, want %v", pruner.before, want)
	}
}

func TestRun_ProtectsCustomImageKeys(t *testing.T) {
	pruner := &mockPruner{}
	job := NewCleanupJob(pruner, testLogger(), time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pruner.protectPrefix != content.CustomImageKeyPrefix {
		t.Errorf("protectPrefix = %q, want custom image prefix", pruner.protectPrefix)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	pruner := &mockPruner{err: errors.New("disk full")}
	job := NewCleanupJob(pruner, testLogger(), time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRun_NoDeletionsIsNotAnError(t *testing.T) {
	pruner := &mockPruner{deleted: 0}
	job := NewCleanupJob(pruner, testLogger(), time.Hour)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
