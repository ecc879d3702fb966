package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/toninhor/scrum-poker-planning/internal/platform/errors"
	"github.com/toninhor/scrum-poker-planning/internal/services/planning/domain"
)

const (
	tokenIssuer   = "scrum-poker-planning"
	tokenAudience = "planning-session"
)

type principalClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

// TokenManager signs and verifies the session tokens that carry a caller's
// resolved identity between requests.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// NewTokenManager builds a token manager from a shared HMAC secret.
func NewTokenManager(secret string, ttl time.Duration, clock func() time.Time) (*TokenManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Sign issues a signed token for the given identity.
func (m *TokenManager) Sign(p domain.Principal) (string, error) {
	if m == nil {
		return "", errors.New("token manager is not configured")
	}
	if p.IsZero() {
		return "", errors.New("principal is required")
	}

	now := m.clock().UTC()
	claims := principalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		SessionID: p.SessionID,
		Role:      string(p.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a signed token back into the identity it carries.
//
// All verification failures map to an unauthorized error so the transport
// layer never leaks parser internals to callers.
func (m *TokenManager) Verify(raw string) (domain.Principal, error) {
	if m == nil {
		return domain.Principal{}, errors.New("token manager is not configured")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Principal{}, apperrors.New(apperrors.CodeUnauthorized, "token is required")
	}

	var claims principalClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(func() time.Time { return m.clock().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, apperrors.Wrap(apperrors.CodeUnauthorized, "token has expired", err)
		}
		return domain.Principal{}, apperrors.Wrap(apperrors.CodeUnauthorized, "token is invalid", err)
	}

	role, roleErr := domain.ParseRole(claims.Role)
	if roleErr != nil {
		return domain.Principal{}, apperrors.New(apperrors.CodeUnauthorized, "token carries an unknown role")
	}

	p := domain.Principal{
		Username:  strings.TrimSpace(claims.Subject),
		SessionID: strings.TrimSpace(claims.SessionID),
		Role:      role,
	}
	if p.IsZero() {
		return domain.Principal{}, apperrors.New(apperrors.CodeUnauthorized, "token carries no identity")
	}
	return p, nil
}
