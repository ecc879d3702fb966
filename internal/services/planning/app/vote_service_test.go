package server

import (
	"context"
	"testing"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

func newTestVoteService(t *testing.T, stores *fakeStores, notifier Notifier) *VoteService {
	t.Helper()
	service, err := NewVoteService(stores.asStores(), notifier)
	if err != nil {
		t.Fatalf("new vote service: %v", err)
	}
	service.clock = fixedClock
	service.idGenerator = staticID("vote-new")
	return service
}

func TestVoteEmptyStoryID(t *testing.T) {
	service := newTestVoteService(t, newFakeStores(), nil)

	_, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{Value: "5"})
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestVoteEmptyValue(t *testing.T) {
	service := newTestVoteService(t, newFakeStores(), nil)

	_, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{StoryID: "story-1"})
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestVoteStoryNotFound(t *testing.T) {
	service := newTestVoteService(t, newFakeStores(), nil)

	_, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{StoryID: "missing", Value: "5"})
	assertCode(t, err, apperrors.CodeObjectNotFound)
}

func TestVoteMissingPrincipal(t *testing.T) {
	stores := newFakeStores()
	seedStory(t, stores, "story-1", "session-1")
	service := newTestVoteService(t, stores, nil)

	_, err := service.Vote(context.Background(), VoteRequest{StoryID: "story-1", Value: "5"})
	assertCode(t, err, apperrors.CodeUnauthorized)
}

func TestVoteForeignSessionMember(t *testing.T) {
	stores := newFakeStores()
	seedStory(t, stores, "story-1", "session-1")
	notifier := &recordingNotifier{}
	service := newTestVoteService(t, stores, notifier)

	_, err := service.Vote(ctxWith(voterPrincipal("session-2")), VoteRequest{StoryID: "story-1", Value: "5"})
	assertCode(t, err, apperrors.CodePermissionDenied)
	notifier.assertNone(t)
}

func TestVoteEndedStory(t *testing.T) {
	stores := newFakeStores()
	story := seedStory(t, stores, "story-1", "session-1")
	story.Ended = true
	stores.stories["story-1"] = story
	notifier := &recordingNotifier{}
	service := newTestVoteService(t, stores, notifier)

	_, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{StoryID: "story-1", Value: "5"})
	assertCode(t, err, apperrors.CodeBadArgs)
	if len(stores.votes) != 0 {
		t.Fatal("voting on an ended story must not store a vote")
	}
	notifier.assertNone(t)
}

func TestVoteStoresAndNotifies(t *testing.T) {
	stores := newFakeStores()
	seedStory(t, stores, "story-1", "session-1")
	notifier := &recordingNotifier{}
	service := newTestVoteService(t, stores, notifier)

	vote, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{StoryID: "story-1", Value: "5"})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if vote.ID != "vote-new" {
		t.Fatalf("unexpected id: %q", vote.ID)
	}
	if vote.Username != "Mia" {
		t.Fatalf("unexpected username: %q", vote.Username)
	}
	if _, ok := stores.votes["vote-new"]; !ok {
		t.Fatal("vote was not stored")
	}

	sent := notifier.assertOne(t, "session-1", NotificationVoteAdded)
	view, ok := sent.payload.(voteView)
	if !ok {
		t.Fatalf("unexpected payload type %T", sent.payload)
	}
	if view.Value != "5" || view.StoryID != "story-1" {
		t.Fatalf("unexpected payload: %+v", view)
	}
}

func TestVoteReplacesExistingVote(t *testing.T) {
	stores := newFakeStores()
	seedStory(t, stores, "story-1", "session-1")
	stores.votes["vote-1"] = domain.Vote{
		ID: "vote-1", StoryID: "story-1", SessionID: "session-1", Username: "Mia", Value: "3",
		CreatedAt: fixedClock(), UpdatedAt: fixedClock(),
	}
	service := newTestVoteService(t, stores, nil)

	vote, err := service.Vote(ctxWith(voterPrincipal("session-1")), VoteRequest{StoryID: "story-1", Value: "8"})
	if err != nil {
		t.Fatalf("revote: %v", err)
	}
	if vote.ID != "vote-1" {
		t.Fatalf("revote must keep the vote id, got %q", vote.ID)
	}
	if vote.Value != "8" {
		t.Fatalf("revote must replace the value, got %q", vote.Value)
	}
	if len(stores.votes) != 1 {
		t.Fatalf("expected single stored vote, got %d", len(stores.votes))
	}
}

func TestRemoveVoteEmptyID(t *testing.T) {
	service := newTestVoteService(t, newFakeStores(), nil)

	err := service.RemoveVote(ctxWith(voterPrincipal("session-1")), "")
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestRemoveVoteNotFound(t *testing.T) {
	service := newTestVoteService(t, newFakeStores(), nil)

	err := service.RemoveVote(ctxWith(voterPrincipal("session-1")), "missing")
	assertCode(t, err, apperrors.CodeObjectNotFound)
}

func TestRemoveVoteOfAnotherUser(t *testing.T) {
	stores := newFakeStores()
	stores.votes["vote-1"] = domain.Vote{ID: "vote-1", StoryID: "story-1", SessionID: "session-1", Username: "Leo", Value: "5"}
	notifier := &recordingNotifier{}
	service := newTestVoteService(t, stores, notifier)

	err := service.RemoveVote(ctxWith(voterPrincipal("session-1")), "vote-1")
	assertCode(t, err, apperrors.CodePermissionDenied)
	if _, ok := stores.votes["vote-1"]; !ok {
		t.Fatal("foreign vote must survive")
	}
	notifier.assertNone(t)
}

func TestRemoveVoteDeletesAndNotifies(t *testing.T) {
	stores := newFakeStores()
	stores.votes["vote-1"] = domain.Vote{ID: "vote-1", StoryID: "story-1", SessionID: "session-1", Username: "Mia", Value: "5"}
	notifier := &recordingNotifier{}
	service := newTestVoteService(t, stores, notifier)

	if err := service.RemoveVote(ctxWith(voterPrincipal("session-1")), "vote-1"); err != nil {
		t.Fatalf("remove vote: %v", err)
	}
	if _, ok := stores.votes["vote-1"]; ok {
		t.Fatal("vote was not deleted")
	}

	sent := notifier.assertOne(t, "session-1", NotificationVoteRemoved)
	ref, ok := sent.payload.(voteRef)
	if !ok {
		t.Fatalf("unexpected payload type %T", sent.payload)
	}
	if ref.VoteID != "vote-1" || ref.StoryID != "story-1" {
		t.Fatalf("unexpected payload: %+v", ref)
	}
}
