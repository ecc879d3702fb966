package server

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
}

func staticID(value string) func() (string, error) {
	return func() (string, error) {
		return value, nil
	}
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

// fakeStores is an in-memory implementation of every planning store.
type fakeStores struct {
	sessions map[string]domain.Session
	users    map[string]map[string]domain.User
	stories  map[string]domain.Story
	votes    map[string]domain.Vote

	putStoryErr error
	putVoteErr  error
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		sessions: make(map[string]domain.Session),
		users:    make(map[string]map[string]domain.User),
		stories:  make(map[string]domain.Story),
		votes:    make(map[string]domain.Vote),
	}
}

func (f *fakeStores) asStores() Stores {
	return Stores{Sessions: f, Users: f, Stories: f, Votes: f}
}

func (f *fakeStores) PutSession(_ context.Context, s domain.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStores) GetSession(_ context.Context, id string) (domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, storage.ErrNotFound
	}
	return session, nil
}

func (f *fakeStores) PutUser(_ context.Context, u domain.User) error {
	members, ok := f.users[u.SessionID]
	if !ok {
		members = make(map[string]domain.User)
		f.users[u.SessionID] = members
	}
	members[u.Username] = u
	return nil
}

func (f *fakeStores) GetUser(_ context.Context, sessionID, username string) (domain.User, error) {
	user, ok := f.users[sessionID][username]
	if !ok {
		return domain.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (f *fakeStores) ListUsersBySession(_ context.Context, sessionID string) ([]domain.User, error) {
	var users []domain.User
	for _, user := range f.users[sessionID] {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeStores) PutStory(_ context.Context, s domain.Story) error {
	if f.putStoryErr != nil {
		return f.putStoryErr
	}
	f.stories[s.ID] = s
	return nil
}

func (f *fakeStores) GetStory(_ context.Context, id string) (domain.Story, error) {
	story, ok := f.stories[id]
	if !ok {
		return domain.Story{}, storage.ErrNotFound
	}
	return story, nil
}

func (f *fakeStores) DeleteStory(_ context.Context, id string) error {
	if _, ok := f.stories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.stories, id)
	return nil
}

func (f *fakeStores) ListStoriesBySession(_ context.Context, sessionID string) ([]domain.Story, error) {
	var stories []domain.Story
	for _, story := range f.stories {
		if story.SessionID == sessionID {
			stories = append(stories, story)
		}
	}
	return stories, nil
}

func (f *fakeStores) PutVote(_ context.Context, v domain.Vote) error {
	if f.putVoteErr != nil {
		return f.putVoteErr
	}
	f.votes[v.ID] = v
	return nil
}

func (f *fakeStores) GetVote(_ context.Context, id string) (domain.Vote, error) {
	vote, ok := f.votes[id]
	if !ok {
		return domain.Vote{}, storage.ErrNotFound
	}
	return vote, nil
}

func (f *fakeStores) FindVote(_ context.Context, storyID, username string) (domain.Vote, error) {
	for _, vote := range f.votes {
		if vote.StoryID == storyID && vote.Username == username {
			return vote, nil
		}
	}
	return domain.Vote{}, storage.ErrNotFound
}

func (f *fakeStores) DeleteVote(_ context.Context, id string) error {
	if _, ok := f.votes[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.votes, id)
	return nil
}

func (f *fakeStores) DeleteVotesByStory(_ context.Context, storyID string) error {
	for id, vote := range f.votes {
		if vote.StoryID == storyID {
			delete(f.votes, id)
		}
	}
	return nil
}

func (f *fakeStores) ListVotesByStory(_ context.Context, storyID string) ([]domain.Vote, error) {
	var votes []domain.Vote
	for _, vote := range f.votes {
		if vote.StoryID == storyID {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

type sentNotification struct {
	sessionID string
	kind      NotificationType
	payload   any
}

// recordingNotifier captures every notification for assertions.
type recordingNotifier struct {
	sent []sentNotification
}

func (n *recordingNotifier) SendNotification(sessionID string, kind NotificationType, payload any) {
	n.sent = append(n.sent, sentNotification{sessionID: sessionID, kind: kind, payload: payload})
}

func (n *recordingNotifier) assertOne(t *testing.T, sessionID string, kind NotificationType) sentNotification {
	t.Helper()
	if len(n.sent) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(n.sent))
	}
	got := n.sent[0]
	if got.sessionID != sessionID {
		t.Fatalf("notification went to session %q, expected %q", got.sessionID, sessionID)
	}
	if got.kind != kind {
		t.Fatalf("notification kind %q, expected %q", got.kind, kind)
	}
	return got
}

func (n *recordingNotifier) assertNone(t *testing.T) {
	t.Helper()
	if len(n.sent) != 0 {
		t.Fatalf("expected no notifications, got %d", len(n.sent))
	}
}

var errStorageDown = errors.New("storage down")

func adminPrincipal(sessionID string) domain.Principal {
	return domain.Principal{Username: "Leo", SessionID: sessionID, Role: domain.RoleSessionAdmin}
}

func voterPrincipal(sessionID string) domain.Principal {
	return domain.Principal{Username: "Mia", SessionID: sessionID, Role: domain.RoleVoter}
}

func ctxWith(p domain.Principal) context.Context {
	return WithPrincipal(context.Background(), p)
}

func seedSession(t *testing.T, stores *fakeStores, id string) domain.Session {
	t.Helper()
	session := domain.Session{
		ID:         id,
		SprintName: "sprint " + id,
		CardSet:    domain.CardSetFibonacci,
		CreatedAt:  fixedClock(),
		UpdatedAt:  fixedClock(),
	}
	stores.sessions[id] = session
	return session
}

func seedStory(t *testing.T, stores *fakeStores, id, sessionID string) domain.Story {
	t.Helper()
	story := domain.Story{
		ID:        id,
		SessionID: sessionID,
		Name:      "story " + id,
		Order:     1,
		CreatedAt: fixedClock(),
		UpdatedAt: fixedClock(),
	}
	stores.stories[id] = story
	return story
}

func newTestStoryService(t *testing.T, stores *fakeStores, notifier Notifier) *StoryService {
	t.Helper()
	service, err := NewStoryService(stores.asStores(), notifier)
	if err != nil {
		t.Fatalf("new story service: %v", err)
	}
	service.clock = fixedClock
	service.idGenerator = staticID("story-new")
	return service
}

func newTestTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	tokens, err := NewTokenManager("test-secret", time.Hour, fixedClock)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return tokens
}
