package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/ntalo/internal/database"
	"github.com/hitoshi/ntalo/internal/model"
)

// SQLiteStoryRepo はSQLiteを使用したオフライン物語リポジトリ。
// スナップショット全体をJSONペイロードとして1行に保存する。
type SQLiteStoryRepo struct {
	connector *database.Connector
}

// NewSQLiteStoryRepo はSQLiteStoryRepoを生成する。
func NewSQLiteStoryRepo(connector *database.Connector) *SQLiteStoryRepo {
	return &SQLiteStoryRepo{connector: connector}
}

// PutStory はスナップショットをtitleキーでUPSERTする。
func (r *SQLiteStoryRepo) PutStory(ctx context.Context, story *model.OfflineStory) error {
	payload, err := json.Marshal(story)
	if err != nil {
		return fmt.Errorf("failed to marshal offline story: %w", err)
	}

	return withRetry(r.connector, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO offline_stories (title, payload, saved_at) VALUES (?, ?, ?)
			 ON CONFLICT(title) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
			story.Title, string(payload), story.SavedAt,
		)
		return err
	})
}

// GetStory は指定タイトルのスナップショットを取得する。見つからない場合はnilを返す。
func (r *SQLiteStoryRepo) GetStory(ctx context.Context, title string) (*model.OfflineStory, error) {
	var payload string
	err := withRetry(r.connector, func(db *sql.DB) error {
		err := db.QueryRowContext(ctx,
			`SELECT payload FROM offline_stories WHERE title = ?`,
			title,
		).Scan(&payload)
		if err == sql.ErrNoRows {
			payload = ""
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if payload == "" {
		return nil, nil
	}

	story := &model.OfflineStory{}
	if err := json.Unmarshal([]byte(payload), story); err != nil {
		return nil, fmt.Errorf("failed to unmarshal offline story: %w", err)
	}
	return story, nil
}

// ListStories は保存済みスナップショットの一覧を返す。順序は保証しない。
func (r *SQLiteStoryRepo) ListStories(ctx context.Context) ([]*model.OfflineStory, error) {
	var payloads []string
	err := withRetry(r.connector, func(db *sql.DB) error {
		payloads = payloads[:0]
		rows, err := db.QueryContext(ctx, `SELECT payload FROM offline_stories`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				return err
			}
			payloads = append(payloads, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	stories := make([]*model.OfflineStory, 0, len(payloads))
	for _, p := range payloads {
		story := &model.OfflineStory{}
		if err := json.Unmarshal([]byte(p), story); err != nil {
			return nil, fmt.Errorf("failed to unmarshal offline story: %w", err)
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// DeleteStory は指定タイトルのスナップショットを削除する。存在しない場合もエラーにしない。
func (r *SQLiteStoryRepo) DeleteStory(ctx context.Context, title string) error {
	return withRetry(r.connector, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`DELETE FROM offline_stories WHERE title = ?`,
			title,
		)
		return err
	})
}

// compile-time interface check
var _ OfflineStoryRepository = (*SQLiteStoryRepo)(nil)
