package domain

import (
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
)

// CardSet identifies the deck participants estimate with.
type CardSet string

const (
	// CardSetFibonacci is the classic fibonacci deck.
	CardSetFibonacci CardSet = "FIBONACCI"
	// CardSetModifiedFibonacci is the rounded fibonacci deck.
	CardSetModifiedFibonacci CardSet = "MODIFIED_FIBONACCI"
	// CardSetTShirt is the t-shirt size deck.
	CardSetTShirt CardSet = "TSHIRT"
)

// Valid reports whether the card set is a known deck.
func (c CardSet) Valid() bool {
	switch c {
	case CardSetFibonacci, CardSetModifiedFibonacci, CardSetTShirt:
		return true
	}
	return false
}

// Session is the isolation boundary grouping users and stories.
type Session struct {
	ID         string
	SprintName string
	CardSet    CardSet
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateSessionInput carries the caller-supplied fields for a new session.
type CreateSessionInput struct {
	SprintName string
	CardSet    CardSet
}

// CreateSession validates input and builds a new session.
func CreateSession(in CreateSessionInput, clock func() time.Time, idGenerator func() (string, error)) (Session, error) {
	sprintName := strings.TrimSpace(in.SprintName)
	if sprintName == "" {
		return Session{}, apperrors.New(apperrors.CodeBadArgs, "sprint name is required")
	}

	cardSet := in.CardSet
	if cardSet == "" {
		cardSet = CardSetFibonacci
	}
	if !cardSet.Valid() {
		return Session{}, apperrors.WithMetadata(apperrors.CodeBadArgs, "unknown card set", map[string]string{"CardSet": string(in.CardSet)})
	}

	id, err := idGenerator()
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "generate session id", err)
	}

	now := clock().UTC()
	return Session{
		ID:         id,
		SprintName: sprintName,
		CardSet:    cardSet,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
