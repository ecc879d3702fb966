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

// PutSession inserts or updates a session record.
func (s *Store) PutSession(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.SprintName) == "" {
		return fmt.Errorf("sprint name is required")
	}
	if !session.CardSet.Valid() {
		return fmt.Errorf("card set is invalid")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO sessions (
	id, sprint_name, card_set, created_at, updated_at
) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	sprint_name = excluded.sprint_name,
	card_set = excluded.card_set,
	updated_at = excluded.updated_at
`,
		session.ID,
		session.SprintName,
		string(session.CardSet),
		toMillis(session.CreatedAt),
		toMillis(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Session{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, fmt.Errorf("session id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, sprint_name, card_set, created_at, updated_at
FROM sessions
WHERE id = ?
`, id)

	var session domain.Session
	var cardSet string
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&session.ID,
		&session.SprintName,
		&cardSet,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, storage.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CardSet = domain.CardSet(cardSet)
	session.CreatedAt = fromMillis(createdAt)
	session.UpdatedAt = fromMillis(updatedAt)
	return session, nil
}
