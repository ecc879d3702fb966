package domain

import (
	"hash/fnv"
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
)

// Role describes what a user may do inside a session.
type Role string

const (
	// RoleSessionAdmin may manage the story list of its session.
	RoleSessionAdmin Role = "SESSION_ADMIN"
	// RoleVoter may vote on pending stories but not manage them.
	RoleVoter Role = "VOTER"
)

// Valid reports whether the role is a known role.
func (r Role) Valid() bool {
	return r == RoleSessionAdmin || r == RoleVoter
}

// ParseRole maps a serialized role back to its typed value.
func ParseRole(value string) (Role, error) {
	role := Role(strings.TrimSpace(value))
	if !role.Valid() {
		return "", apperrors.WithMetadata(apperrors.CodeBadArgs, "unknown user role", map[string]string{"Role": value})
	}
	return role, nil
}

// colorPalette holds the display colors assigned to users. The palette is
// stable so a username always maps to the same color across reconnects.
var colorPalette = []string{
	"#f44336", "#9c27b0", "#3f51b5", "#03a9f4", "#009688",
	"#8bc34a", "#ffc107", "#ff5722", "#795548", "#607d8b",
}

// ColorFor returns the deterministic display color for a username.
func ColorFor(username string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}

// User is a member of exactly one session, keyed by username within it.
type User struct {
	Username  string
	SessionID string
	Role      Role
	Connected bool
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput carries the caller-supplied fields for a new session member.
type CreateUserInput struct {
	Username  string
	SessionID string
	Role      Role
}

// CreateUser validates input and builds a connected session member.
func CreateUser(in CreateUserInput, clock func() time.Time) (User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return User{}, apperrors.New(apperrors.CodeBadArgs, "username is required")
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return User{}, apperrors.New(apperrors.CodeBadArgs, "session id is required")
	}
	if !in.Role.Valid() {
		return User{}, apperrors.WithMetadata(apperrors.CodeBadArgs, "unknown user role", map[string]string{"Role": string(in.Role)})
	}

	now := clock().UTC()
	return User{
		Username:  username,
		SessionID: sessionID,
		Role:      in.Role,
		Connected: true,
		Color:     ColorFor(username),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
