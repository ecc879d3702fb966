package server

import "github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"

// The view types define the JSON shapes shared by HTTP responses and
// notification payloads, so subscribers and callers see the same fields.

type sessionView struct {
	ID         string `json:"sessionId"`
	SprintName string `json:"sprintName"`
	CardSet    string `json:"cardSet"`
}

func newSessionView(s domain.Session) sessionView {
	return sessionView{
		ID:         s.ID,
		SprintName: s.SprintName,
		CardSet:    string(s.CardSet),
	}
}

type userView struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Connected bool   `json:"connected"`
	Color     string `json:"color"`
}

func newUserView(u domain.User) userView {
	return userView{
		Username:  u.Username,
		SessionID: u.SessionID,
		Role:      string(u.Role),
		Connected: u.Connected,
		Color:     u.Color,
	}
}

type storyView struct {
	ID        string `json:"storyId"`
	SessionID string `json:"sessionId"`
	Name      string `json:"storyName"`
	Order     int    `json:"order"`
	Ended     bool   `json:"ended"`
}

func newStoryView(s domain.Story) storyView {
	return storyView{
		ID:        s.ID,
		SessionID: s.SessionID,
		Name:      s.Name,
		Order:     s.Order,
		Ended:     s.Ended,
	}
}

type voteView struct {
	ID       string `json:"voteId"`
	StoryID  string `json:"storyId"`
	Username string `json:"username"`
	Value    string `json:"value"`
}

func newVoteView(v domain.Vote) voteView {
	return voteView{
		ID:       v.ID,
		StoryID:  v.StoryID,
		Username: v.Username,
		Value:    v.Value,
	}
}

type storyRef struct {
	StoryID string `json:"storyId"`
}

type voteRef struct {
	VoteID  string `json:"voteId"`
	StoryID string `json:"storyId"`
}

type userRef struct {
	Username string `json:"username"`
}
