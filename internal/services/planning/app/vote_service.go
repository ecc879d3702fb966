package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/platform/id"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

// VoteService owns estimates on pending stories.
type VoteService struct {
	stores      Stores
	notifier    Notifier
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewVoteService wires a vote service over the given stores.
// A nil notifier disables fan-out rather than failing calls.
func NewVoteService(stores Stores, notifier Notifier) (*VoteService, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &VoteService{
		stores:      stores,
		notifier:    notifier,
		clock:       time.Now,
		idGenerator: id.NewID,
	}, nil
}

// VoteRequest carries the caller-supplied fields for an estimate.
type VoteRequest struct {
	StoryID string
	Value   string
}

// Vote records the caller's estimate on a pending story and announces it.
// A second vote by the same user on the same story replaces the first.
func (s *VoteService) Vote(ctx context.Context, req VoteRequest) (domain.Vote, error) {
	storyID := strings.TrimSpace(req.StoryID)
	if storyID == "" {
		return domain.Vote{}, apperrors.New(apperrors.CodeBadArgs, "story id is required")
	}
	if strings.TrimSpace(req.Value) == "" {
		return domain.Vote{}, apperrors.New(apperrors.CodeBadArgs, "vote value is required")
	}

	story, err := s.stores.Stories.GetStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Vote{}, apperrors.WithMetadata(apperrors.CodeObjectNotFound, "story not found", map[string]string{"StoryID": storyID})
		}
		return domain.Vote{}, apperrors.Wrap(apperrors.CodeInternal, "load story", err)
	}

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return domain.Vote{}, err
	}
	if err := requireSessionMember(principal, story.SessionID); err != nil {
		return domain.Vote{}, err
	}

	if story.Ended {
		return domain.Vote{}, apperrors.WithMetadata(apperrors.CodeBadArgs, "story has already ended", map[string]string{"StoryID": story.ID})
	}

	vote, err := s.upsertVote(ctx, story, principal.Username, req.Value)
	if err != nil {
		return domain.Vote{}, err
	}

	s.notifier.SendNotification(story.SessionID, NotificationVoteAdded, newVoteView(vote))
	return vote, nil
}

func (s *VoteService) upsertVote(ctx context.Context, story domain.Story, username, value string) (domain.Vote, error) {
	existing, err := s.stores.Votes.FindVote(ctx, story.ID, username)
	switch {
	case err == nil:
		existing.Value = strings.TrimSpace(value)
		existing.UpdatedAt = s.clock().UTC()
		if err := s.stores.Votes.PutVote(ctx, existing); err != nil {
			return domain.Vote{}, apperrors.Wrap(apperrors.CodeInternal, "store vote", err)
		}
		return existing, nil
	case errors.Is(err, storage.ErrNotFound):
		vote, err := domain.CreateVote(domain.CreateVoteInput{
			StoryID:   story.ID,
			SessionID: story.SessionID,
			Username:  username,
			Value:     value,
		}, s.clock, s.idGenerator)
		if err != nil {
			return domain.Vote{}, err
		}
		if err := s.stores.Votes.PutVote(ctx, vote); err != nil {
			return domain.Vote{}, apperrors.Wrap(apperrors.CodeInternal, "store vote", err)
		}
		return vote, nil
	default:
		return domain.Vote{}, apperrors.Wrap(apperrors.CodeInternal, "find vote", err)
	}
}

// RemoveVote withdraws one of the caller's own votes and announces it.
func (s *VoteService) RemoveVote(ctx context.Context, voteID string) error {
	voteID = strings.TrimSpace(voteID)
	if voteID == "" {
		return apperrors.New(apperrors.CodeBadArgs, "vote id is required")
	}

	vote, err := s.stores.Votes.GetVote(ctx, voteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeObjectNotFound, "vote not found", map[string]string{"VoteID": voteID})
		}
		return apperrors.Wrap(apperrors.CodeInternal, "load vote", err)
	}

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return err
	}
	if vote.Username != principal.Username {
		return apperrors.New(apperrors.CodePermissionDenied,
			fmt.Sprintf("user %s cannot remove a vote of user %s", principal.Username, vote.Username))
	}

	if err := s.stores.Votes.DeleteVote(ctx, vote.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "delete vote", err)
	}

	s.notifier.SendNotification(vote.SessionID, NotificationVoteRemoved, voteRef{VoteID: vote.ID, StoryID: vote.StoryID})
	return nil
}
