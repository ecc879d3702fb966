package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

// PutStory inserts or updates a story record.
func (s *Store) PutStory(ctx context.Context, story domain.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(story.ID) == "" {
		return fmt.Errorf("story id is required")
	}
	if strings.TrimSpace(story.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(story.Name) == "" {
		return fmt.Errorf("story name is required")
	}

	ended := 0
	if story.Ended {
		ended = 1
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO stories (
	id, session_id, name, story_order, ended, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	session_id = excluded.session_id,
	name = excluded.name,
	story_order = excluded.story_order,
	ended = excluded.ended,
	updated_at = excluded.updated_at
`,
		story.ID,
		story.SessionID,
		story.Name,
		story.Order,
		ended,
		toMillis(story.CreatedAt),
		toMillis(story.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put story: %w", err)
	}
	return nil
}

// GetStory fetches a story by id.
func (s *Store) GetStory(ctx context.Context, id string) (domain.Story, error) {
	if err := ctx.Err(); err != nil {
		return domain.Story{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Story{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Story{}, fmt.Errorf("story id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, session_id, name, story_order, ended, created_at, updated_at
FROM stories
WHERE id = ?
`, id)

	story, err := scanStory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Story{}, storage.ErrNotFound
		}
		return domain.Story{}, fmt.Errorf("get story: %w", err)
	}
	return story, nil
}

// DeleteStory removes a story by id.
func (s *Store) DeleteStory(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("story id is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM stories
WHERE id = ?
`, id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete story rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListStoriesBySession returns all stories of a session ordered by their
// display order, then id for a stable tiebreak.
func (s *Store) ListStoriesBySession(ctx context.Context, sessionID string) ([]domain.Story, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, session_id, name, story_order, ended, created_at, updated_at
FROM stories
WHERE session_id = ?
ORDER BY story_order, id
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story row: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate story rows: %w", err)
	}
	return stories, nil
}

func scanStory(row rowScanner) (domain.Story, error) {
	var story domain.Story
	var ended int
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&story.ID,
		&story.SessionID,
		&story.Name,
		&story.Order,
		&ended,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Story{}, err
	}
	story.Ended = ended != 0
	story.CreatedAt = fromMillis(createdAt)
	story.UpdatedAt = fromMillis(updatedAt)
	return story, nil
}
