package domain

import (
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
)

// Story is an estimation item owned by exactly one session.
//
// The owning session id is immutable after creation; only the ended flag may
// change over the story's lifetime.
type Story struct {
	ID        string
	SessionID string
	Name      string
	Order     int
	Ended     bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateStoryInput carries the caller-supplied fields for a new story.
type CreateStoryInput struct {
	SessionID string
	Name      string
	Order     int
}

// CreateStory validates input and builds a pending story.
//
// The order is caller-supplied and not required to be unique; clients use it
// for display sorting only.
func CreateStory(in CreateStoryInput, clock func() time.Time, idGenerator func() (string, error)) (Story, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Story{}, apperrors.New(apperrors.CodeBadArgs, "story name is required")
	}
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return Story{}, apperrors.New(apperrors.CodeBadArgs, "session id is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Story{}, apperrors.Wrap(apperrors.CodeInternal, "generate story id", err)
	}

	now := clock().UTC()
	return Story{
		ID:        id,
		SessionID: sessionID,
		Name:      in.Name,
		Order:     in.Order,
		Ended:     false,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
