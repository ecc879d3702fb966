package domain

import (
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
)

// Vote is one user's estimate for a story.
//
// A user holds at most one vote per story; re-voting replaces the value.
type Vote struct {
	ID        string
	StoryID   string
	SessionID string
	Username  string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateVoteInput carries the caller-supplied fields for a new vote.
type CreateVoteInput struct {
	StoryID   string
	SessionID string
	Username  string
	Value     string
}

// CreateVote validates input and builds a vote.
func CreateVote(in CreateVoteInput, clock func() time.Time, idGenerator func() (string, error)) (Vote, error) {
	value := strings.TrimSpace(in.Value)
	if value == "" {
		return Vote{}, apperrors.New(apperrors.CodeBadArgs, "vote value is required")
	}
	if strings.TrimSpace(in.StoryID) == "" {
		return Vote{}, apperrors.New(apperrors.CodeBadArgs, "story id is required")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return Vote{}, apperrors.New(apperrors.CodeBadArgs, "session id is required")
	}
	if strings.TrimSpace(in.Username) == "" {
		return Vote{}, apperrors.New(apperrors.CodeBadArgs, "username is required")
	}

	id, err := idGenerator()
	if err != nil {
		return Vote{}, apperrors.Wrap(apperrors.CodeInternal, "generate vote id", err)
	}

	now := clock().UTC()
	return Vote{
		ID:        id,
		StoryID:   in.StoryID,
		SessionID: in.SessionID,
		Username:  in.Username,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
