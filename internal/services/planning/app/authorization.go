package server

import (
	"fmt"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

// requireSessionAdmin enforces that the caller holds the session admin role
// for the given session.
//
// The role is checked before the session match so a plain voter is rejected
// with the same message regardless of which session the target belongs to.
func requireSessionAdmin(p domain.Principal, sessionID string) error {
	if p.Role != domain.RoleSessionAdmin {
		return apperrors.New(apperrors.CodePermissionDenied,
			fmt.Sprintf("user has not session admin role, username=%s", p.Username))
	}
	if p.SessionID != sessionID {
		return apperrors.New(apperrors.CodePermissionDenied,
			fmt.Sprintf("user %s is not admin of session %s", p.Username, sessionID))
	}
	return nil
}

// requireSessionMember enforces that the caller belongs to the given session.
func requireSessionMember(p domain.Principal, sessionID string) error {
	if p.SessionID != sessionID {
		return apperrors.New(apperrors.CodePermissionDenied,
			fmt.Sprintf("user %s is not member of session %s", p.Username, sessionID))
	}
	return nil
}
