package server

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/platform/id"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

// SessionService bootstraps planning sessions and their founding admin.
type SessionService struct {
	stores      Stores
	tokens      *TokenManager
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewSessionService wires a session service over the given stores.
func NewSessionService(stores Stores, tokens *TokenManager) (*SessionService, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "token manager is required")
	}
	return &SessionService{
		stores:      stores,
		tokens:      tokens,
		clock:       time.Now,
		idGenerator: id.NewID,
	}, nil
}

// CreateSessionRequest carries the fields for a new session and its admin.
type CreateSessionRequest struct {
	SprintName string
	CardSet    domain.CardSet
	Username   string
}

// CreateSessionResult returns the created session, its admin member, and the
// signed token the admin authenticates follow-up calls with.
type CreateSessionResult struct {
	Session domain.Session
	User    domain.User
	Token   string
}

// CreateSession creates a session and registers the caller as its admin.
//
// No notification goes out: nobody can be subscribed to a session that did
// not exist yet.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (CreateSessionResult, error) {
	if strings.TrimSpace(req.Username) == "" {
		return CreateSessionResult{}, apperrors.New(apperrors.CodeBadArgs, "username is required")
	}

	session, err := domain.CreateSession(domain.CreateSessionInput{
		SprintName: req.SprintName,
		CardSet:    req.CardSet,
	}, s.clock, s.idGenerator)
	if err != nil {
		return CreateSessionResult{}, err
	}

	admin, err := domain.CreateUser(domain.CreateUserInput{
		Username:  req.Username,
		SessionID: session.ID,
		Role:      domain.RoleSessionAdmin,
	}, s.clock)
	if err != nil {
		return CreateSessionResult{}, err
	}

	if err := s.stores.Sessions.PutSession(ctx, session); err != nil {
		return CreateSessionResult{}, apperrors.Wrap(apperrors.CodeInternal, "store session", err)
	}
	if err := s.stores.Users.PutUser(ctx, admin); err != nil {
		return CreateSessionResult{}, apperrors.Wrap(apperrors.CodeInternal, "store session admin", err)
	}

	token, err := s.tokens.Sign(domain.Principal{
		Username:  admin.Username,
		SessionID: session.ID,
		Role:      admin.Role,
	})
	if err != nil {
		return CreateSessionResult{}, apperrors.Wrap(apperrors.CodeInternal, "sign session token", err)
	}

	return CreateSessionResult{Session: session, User: admin, Token: token}, nil
}
