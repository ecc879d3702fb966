package domain

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
}

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func assertCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected code %s, got %s (%v)", code, got, err)
	}
}

func TestCreateStory(t *testing.T) {
	story, err := CreateStory(CreateStoryInput{
		SessionID: "session-1",
		Name:      "checkout flow",
		Order:     2,
	}, fixedClock, staticID("story-1"))
	if err != nil {
		t.Fatalf("create story: %v", err)
	}
	if story.ID != "story-1" {
		t.Fatalf("unexpected id: %q", story.ID)
	}
	if story.SessionID != "session-1" {
		t.Fatalf("unexpected session id: %q", story.SessionID)
	}
	if story.Ended {
		t.Fatal("expected new story to be pending")
	}
	if story.Order != 2 {
		t.Fatalf("unexpected order: %d", story.Order)
	}
	if !story.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected created at: %v", story.CreatedAt)
	}
}

func TestCreateStoryEmptyName(t *testing.T) {
	_, err := CreateStory(CreateStoryInput{SessionID: "session-1"}, fixedClock, staticID("story-1"))
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestCreateStoryWhitespaceName(t *testing.T) {
	_, err := CreateStory(CreateStoryInput{SessionID: "session-1", Name: "   "}, fixedClock, staticID("story-1"))
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestCreateStoryEmptySessionID(t *testing.T) {
	_, err := CreateStory(CreateStoryInput{Name: "checkout flow"}, fixedClock, staticID("story-1"))
	assertCode(t, err, apperrors.CodeBadArgs)
}

func TestCreateStoryIDGeneratorFailure(t *testing.T) {
	broken := func() (string, error) { return "", errors.New("entropy exhausted") }
	_, err := CreateStory(CreateStoryInput{SessionID: "session-1", Name: "checkout flow"}, fixedClock, broken)
	assertCode(t, err, apperrors.CodeInternal)
}
