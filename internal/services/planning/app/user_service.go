package server

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/storage"
)

// UserService owns session membership: joining, presence, and the roster.
type UserService struct {
	stores   Stores
	notifier Notifier
	tokens   *TokenManager
	clock    func() time.Time
}

// NewUserService wires a user service over the given stores.
// A nil notifier disables fan-out rather than failing calls.
func NewUserService(stores Stores, notifier Notifier, tokens *TokenManager) (*UserService, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "token manager is required")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &UserService{
		stores:   stores,
		notifier: notifier,
		tokens:   tokens,
		clock:    time.Now,
	}, nil
}

// ListUsers returns all members of a session.
func (s *UserService) ListUsers(ctx context.Context, sessionID string) ([]domain.User, error) {
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

	users, err := s.stores.Users.ListUsersBySession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list users", err)
	}
	return users, nil
}

// ConnectRequest carries the fields to join a session as a voter.
type ConnectRequest struct {
	SessionID string
	Username  string
}

// ConnectResult returns the joined member and the signed token they
// authenticate follow-up calls with.
type ConnectResult struct {
	User  domain.User
	Token string
}

// Connect joins a user to a session as a voter, or marks a returning member
// as connected again, and announces the arrival.
func (s *UserService) Connect(ctx context.Context, req ConnectRequest) (ConnectResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return ConnectResult{}, apperrors.New(apperrors.CodeBadArgs, "session id is required")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return ConnectResult{}, apperrors.New(apperrors.CodeBadArgs, "username is required")
	}

	if _, err := s.stores.Sessions.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ConnectResult{}, apperrors.WithMetadata(apperrors.CodeObjectNotFound, "session not found", map[string]string{"SessionID": sessionID})
		}
		return ConnectResult{}, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}

	user, err := s.stores.Users.GetUser(ctx, sessionID, username)
	switch {
	case err == nil:
		// Returning member keeps their role; only presence changes.
		user.Connected = true
		user.UpdatedAt = s.clock().UTC()
	case errors.Is(err, storage.ErrNotFound):
		user, err = domain.CreateUser(domain.CreateUserInput{
			Username:  username,
			SessionID: sessionID,
			Role:      domain.RoleVoter,
		}, s.clock)
		if err != nil {
			return ConnectResult{}, err
		}
	default:
		return ConnectResult{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	if err := s.stores.Users.PutUser(ctx, user); err != nil {
		return ConnectResult{}, apperrors.Wrap(apperrors.CodeInternal, "store user", err)
	}

	token, err := s.tokens.Sign(domain.Principal{
		Username:  user.Username,
		SessionID: user.SessionID,
		Role:      user.Role,
	})
	if err != nil {
		return ConnectResult{}, apperrors.Wrap(apperrors.CodeInternal, "sign session token", err)
	}

	s.notifier.SendNotification(sessionID, NotificationUserConnected, newUserView(user))
	return ConnectResult{User: user, Token: token}, nil
}

// Disconnect marks the caller as no longer present and announces it.
// Membership survives; a disconnected user can reconnect with the same role.
func (s *UserService) Disconnect(ctx context.Context) error {
	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return err
	}

	user, err := s.stores.Users.GetUser(ctx, principal.SessionID, principal.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.WithMetadata(apperrors.CodeObjectNotFound, "user not found", map[string]string{"Username": principal.Username})
		}
		return apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	user.Connected = false
	user.UpdatedAt = s.clock().UTC()
	if err := s.stores.Users.PutUser(ctx, user); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "store user", err)
	}

	s.notifier.SendNotification(user.SessionID, NotificationUserDisconnected, userRef{Username: user.Username})
	return nil
}
