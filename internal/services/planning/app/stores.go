package server

import (
	"errors"

	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

// Stores bundles the persistence interfaces the planning services depend on.
type Stores struct {
	Sessions storage.SessionStore
	Users    storage.UserStore
	Stories  storage.StoryStore
	Votes    storage.VoteStore
}

func (s Stores) validate() error {
	if s.Sessions == nil {
		return errors.New("session store is required")
	}
	if s.Users == nil {
		return errors.New("user store is required")
	}
	if s.Stories == nil {
		return errors.New("story store is required")
	}
	if s.Votes == nil {
		return errors.New("vote store is required")
	}
	return nil
}
