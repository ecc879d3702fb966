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

// PutVote inserts or updates a vote record. The story and username pair is
// unique, so re-voting replaces the previous value.
func (s *Store) PutVote(ctx context.Context, vote domain.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(vote.ID) == "" {
		return fmt.Errorf("vote id is required")
	}
	if strings.TrimSpace(vote.StoryID) == "" {
		return fmt.Errorf("story id is required")
	}
	if strings.TrimSpace(vote.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(vote.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(vote.Value) == "" {
		return fmt.Errorf("vote value is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO votes (
	id, story_id, session_id, username, value, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(story_id, username) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at
`,
		vote.ID,
		vote.StoryID,
		vote.SessionID,
		vote.Username,
		vote.Value,
		toMillis(vote.CreatedAt),
		toMillis(vote.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put vote: %w", err)
	}
	return nil
}

// GetVote fetches a vote by id.
func (s *Store) GetVote(ctx context.Context, id string) (domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vote{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Vote{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Vote{}, fmt.Errorf("vote id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, story_id, session_id, username, value, created_at, updated_at
FROM votes
WHERE id = ?
`, id)

	vote, err := scanVote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Vote{}, storage.ErrNotFound
		}
		return domain.Vote{}, fmt.Errorf("get vote: %w", err)
	}
	return vote, nil
}

// FindVote returns the vote a user holds on a story, or ErrNotFound.
func (s *Store) FindVote(ctx context.Context, storyID, username string) (domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vote{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Vote{}, fmt.Errorf("storage is not configured")
	}
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return domain.Vote{}, fmt.Errorf("story id is required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Vote{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, story_id, session_id, username, value, created_at, updated_at
FROM votes
WHERE story_id = ? AND username = ?
`, storyID, username)

	vote, err := scanVote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Vote{}, storage.ErrNotFound
		}
		return domain.Vote{}, fmt.Errorf("find vote: %w", err)
	}
	return vote, nil
}

// DeleteVote removes a vote by id.
func (s *Store) DeleteVote(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("vote id is required")
	}

	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM votes
WHERE id = ?
`, id)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vote rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteVotesByStory removes every vote attached to a story. Deleting zero
// rows is not an error; an ended story may simply have no votes.
func (s *Store) DeleteVotesByStory(ctx context.Context, storyID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return fmt.Errorf("story id is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM votes
WHERE story_id = ?
`, storyID); err != nil {
		return fmt.Errorf("delete votes by story: %w", err)
	}
	return nil
}

// ListVotesByStory returns all votes on a story ordered by username.
func (s *Store) ListVotesByStory(ctx context.Context, storyID string) ([]domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, fmt.Errorf("story id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, story_id, session_id, username, value, created_at, updated_at
FROM votes
WHERE story_id = ?
ORDER BY username
`, storyID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote row: %w", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote rows: %w", err)
	}
	return votes, nil
}

func scanVote(row rowScanner) (domain.Vote, error) {
	var vote domain.Vote
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&vote.ID,
		&vote.StoryID,
		&vote.SessionID,
		&vote.Username,
		&vote.Value,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Vote{}, err
	}
	vote.CreatedAt = fromMillis(createdAt)
	vote.UpdatedAt = fromMillis(updatedAt)
	return vote, nil
}
