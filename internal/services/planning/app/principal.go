package server

import (
	"context"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

type principalContextKey struct{}

// WithPrincipal returns a context carrying the resolved caller identity.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the caller identity resolved by the
// transport layer. It fails with an unauthorized error when no identity was
// attached, so service methods never act on an anonymous caller.
func PrincipalFromContext(ctx context.Context) (domain.Principal, error) {
	p, ok := ctx.Value(principalContextKey{}).(domain.Principal)
	if !ok || p.IsZero() {
		return domain.Principal{}, apperrors.New(apperrors.CodeUnauthorized, "authentication context is missing")
	}
	return p, nil
}
