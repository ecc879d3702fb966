// Package storage defines the persistence contracts consumed by the planning
// services.
//
// Interfaces are kept narrow on purpose: each store exposes only the
// operations the services need, so alternative backends (and test fakes)
// stay small.
package storage

import (
	"context"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such entity" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeObjectNotFound, "record not found")

// SessionStore owns session metadata records.
type SessionStore interface {
	PutSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
}

// UserStore owns session membership records, keyed by session id and username.
type UserStore interface {
	PutUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, sessionID, username string) (domain.User, error)
	// ListUsersBySession returns all members of a session in store-native order.
	ListUsersBySession(ctx context.Context, sessionID string) ([]domain.User, error)
}

// StoryStore owns story records.
type StoryStore interface {
	PutStory(ctx context.Context, s domain.Story) error
	GetStory(ctx context.Context, id string) (domain.Story, error)
	DeleteStory(ctx context.Context, id string) error
	// ListStoriesBySession returns all stories of a session in store-native order.
	ListStoriesBySession(ctx context.Context, sessionID string) ([]domain.Story, error)
}

// VoteStore owns vote records. A user holds at most one vote per story.
type VoteStore interface {
	PutVote(ctx context.Context, v domain.Vote) error
	GetVote(ctx context.Context, id string) (domain.Vote, error)
	// FindVote returns the vote a user holds on a story, or ErrNotFound.
	FindVote(ctx context.Context, storyID, username string) (domain.Vote, error)
	DeleteVote(ctx context.Context, id string) error
	// DeleteVotesByStory removes every vote attached to a story.
	DeleteVotesByStory(ctx context.Context, storyID string) error
	// ListVotesByStory returns all votes on a story in store-native order.
	ListVotesByStory(ctx context.Context, storyID string) ([]domain.Vote, error)
}
