package domain

import "strings"

// Principal is the resolved identity for one call: who the caller is, which
// session they claim, and what they may do there.
//
// It is a request-scoped snapshot supplied by the identity layer and is never
// persisted; the stores remain the source of truth for membership.
type Principal struct {
	Username  string
	SessionID string
	Role      Role
}

// IsZero reports whether no identity was resolved.
func (p Principal) IsZero() bool {
	return strings.TrimSpace(p.Username) == "" && strings.TrimSpace(p.SessionID) == ""
}
