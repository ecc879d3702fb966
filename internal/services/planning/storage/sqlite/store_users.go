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

// PutUser inserts or updates a session member record.
func (s *Store) PutUser(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(user.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("user role is invalid")
	}

	connected := 0
	if user.Connected {
		connected = 1
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO users (
	session_id, username, role, connected, color, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, username) DO UPDATE SET
	role = excluded.role,
	connected = excluded.connected,
	color = excluded.color,
	updated_at = excluded.updated_at
`,
		user.SessionID,
		user.Username,
		string(user.Role),
		connected,
		user.Color,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser fetches a session member by session id and username.
func (s *Store) GetUser(ctx context.Context, sessionID, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.User{}, fmt.Errorf("storage is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.User{}, fmt.Errorf("session id is required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT session_id, username, role, connected, color, created_at, updated_at
FROM users
WHERE session_id = ? AND username = ?
`, sessionID, username)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, storage.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsersBySession returns all members of a session ordered by join time.
func (s *Store) ListUsersBySession(ctx context.Context, sessionID string) ([]domain.User, error) {
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
SELECT session_id, username, role, connected, color, created_at, updated_at
FROM users
WHERE session_id = ?
ORDER BY created_at, username
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var user domain.User
	var role string
	var connected int
	var createdAt int64
	var updatedAt int64
	if err := row.Scan(
		&user.SessionID,
		&user.Username,
		&role,
		&connected,
		&user.Color,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.Role = domain.Role(role)
	user.Connected = connected != 0
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}
