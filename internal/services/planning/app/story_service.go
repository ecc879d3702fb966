package server

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/platform/id"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

// StoryService owns the story lifecycle inside a session.
//
// Mutations run through a fixed sequence: input syntax, target existence,
// caller authorization, then the write. Notifications go out only after the
// write committed, and a failed delivery never rolls the write back.
type StoryService struct {
	stores      Stores
	notifier    Notifier
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewStoryService wires a story service over the given stores.
// A nil notifier disables fan-out rather than failing calls.
func NewStoryService(stores Stores, notifier Notifier) (*StoryService, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &StoryService{
		stores:      stores,
		notifier:    notifier,
		clock:       time.Now,
		idGenerator: id.NewID,
	}, nil
}

// ListStories returns all stories of a session.
func (s *StoryService) ListStories(ctx context.Context, sessionID string) ([]domain.Story, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.New(apperrors.CodeBadArgs, "session id is required")
	}

	if _, err := s.stores.Sessions.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.WithMetadata(apperrors.CodeObjectNotFound, "session not found", map[string]string{"SessionID": sessionID})
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}

	stories, err := s.stores.Stories.ListStoriesBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list stories", err)
	}
	return stories, nil
}

// CreateStoryRequest carries the caller-supplied fields for a new story. The
// owning session comes from the caller's identity, never from the request.
type CreateStoryRequest struct {
	Name  string
	Order int
}

// CreateStory adds a story to the caller's session and announces it to the
// session's subscribers.
func (s *StoryService) CreateStory(ctx context.Context, req CreateStoryRequest) (domain.Story, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Story{}, apperrors.New(apperrors.CodeBadArgs, "story name is required")
	}

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return domain.Story{}, err
	}

	session, err := s.stores.Sessions.GetSession(ctx, principal.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Story{}, apperrors.WithMetadata(apperrors.CodeObjectNotFound, "session not found", map[string]string{"SessionID": principal.SessionID})
		}
		return domain.Story{}, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}

	if err := requireSessionAdmin(principal, session.ID); err != nil {
		return domain.Story{}, err
	}

	story, err := domain.CreateStory(domain.CreateStoryInput{
		SessionID: session.ID,
		Name:      req.Name,
		Order:     req.Order,
	}, s.clock, s.idGenerator)
	if err != nil {
		return domain.Story{}, err
	}

	if err := s.stores.Stories.PutStory(ctx, story); err != nil {
		return domain.Story{}, apperrors.Wrap(apperrors.CodeInternal, "store story", err)
	}

	s.notifier.SendNotification(session.ID, NotificationStoryAdded, newStoryView(story))
	return story, nil
}

// EndStory marks a story as estimated and announces the change.
func (s *StoryService) EndStory(ctx context.Context, storyID string) (domain.Story, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return domain.Story{}, apperrors.New(apperrors.CodeBadArgs, "story id is required")
	}

	story, err := s.loadStory(ctx, storyID)
	if err != nil {
		return domain.Story{}, err
	}

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return domain.Story{}, err
	}
	if err := requireSessionAdmin(principal, story.SessionID); err != nil {
		return domain.Story{}, err
	}

	story.Ended = true
	story.UpdatedAt = s.clock().UTC()
	if err := s.stores.Stories.PutStory(ctx, story); err != nil {
		return domain.Story{}, apperrors.Wrap(apperrors.CodeInternal, "store story", err)
	}

	s.notifier.SendNotification(story.SessionID, NotificationStoryEnded, storyRef{StoryID: story.ID})
	return story, nil
}

// DeleteStory removes a story and its votes, then announces the removal.
func (s *StoryService) DeleteStory(ctx context.Context, storyID string) error {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return apperrors.New(apperrors.CodeBadArgs, "story id is required")
	}

	story, err := s.loadStory(ctx, storyID)
	if err != nil {
		return err
	}

	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return err
	}
	if err := requireSessionAdmin(principal, story.SessionID); err != nil {
		return err
	}

	// Votes go first so a partial failure never leaves votes pointing at a
	// missing story.
	if err := s.stores.Votes.DeleteVotesByStory(ctx, story.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "delete story votes", err)
	}
	if err := s.stores.Stories.DeleteStory(ctx, story.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "delete story", err)
	}

	s.notifier.SendNotification(story.SessionID, NotificationStoryRemoved, storyRef{StoryID: story.ID})
	return nil
}

func (s *StoryService) loadStory(ctx context.Context, storyID string) (domain.Story, error) {
	story, err := s.stores.Stories.GetStory(ctx, storyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Story{}, apperrors.WithMetadata(apperrors.CodeObjectNotFound, "story not found", map[string]string{"StoryID": storyID})
		}
		return domain.Story{}, apperrors.Wrap(apperrors.CodeInternal, "load story", err)
	}
	return story, nil
}
