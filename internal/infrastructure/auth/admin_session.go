package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/infrastructure/config"
)

// sessionAudience keeps console sessions from being accepted as tenant tokens and vice versa
const sessionAudience = "gridhub-admin"

// ErrInvalidRole is returned when a session carries an unknown role
var ErrInvalidRole = errors.New("invalid admin role")

// SessionClaims are carried by the admin console cookie
type SessionClaims struct {
	jwt.RegisteredClaims
	AdminID string             `json:"admin_id"`
	Email   string             `json:"email"`
	Role    identity.AdminRole `json:"role"`
}

// AdminUUID parses the operator ID
func (c *SessionClaims) AdminUUID() (uuid.UUID, error) {
	return uuid.Parse(c.AdminID)
}

// RemainingTTL returns the time until the session expires
func (c *SessionClaims) RemainingTTL() time.Duration {
	return remainingTTL(c.ExpiresAt)
}

// AdminSession is a freshly issued session token
type AdminSession struct {
	Token     string
	ExpiresAt time.Time
	Claims    *SessionClaims
}

// SessionSigner issues and verifies HS256 admin session tokens
type SessionSigner struct {
	secret    []byte
	ttl       time.Duration
	blacklist TokenBlacklist
}

// NewSessionSigner creates a signer. blacklist may be nil, in which case logout only clears the cookie.
func NewSessionSigner(cfg config.AdminConfig, blacklist TokenBlacklist) *SessionSigner {
	return &SessionSigner{
		secret:    []byte(cfg.SessionSecret),
		ttl:       cfg.SessionTTL,
		blacklist: blacklist,
	}
}

// Issue signs a session for the operator
func (s *SessionSigner) Issue(user *identity.AdminUser) (*AdminSession, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{sessionAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		AdminID: user.ID.String(),
		Email:   user.Email,
		Role:    user.Role,
	}

	token, err := signHS256(claims, s.secret)
	if err != nil {
		return nil, err
	}
	return &AdminSession{Token: token, ExpiresAt: expiresAt, Claims: claims}, nil
}

// Verify validates a session token, including revocation
func (s *SessionSigner) Verify(ctx context.Context, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseHS256(token, claims, s.secret, ""); err != nil {
		return nil, err
	}

	if !hasAudience(claims.Audience, sessionAudience) {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.AdminUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrTokenBlacklisted
		}
	}

	return claims, nil
}

// Revoke blacklists the session until it would have expired anyway
func (s *SessionSigner) Revoke(ctx context.Context, claims *SessionClaims) error {
	if s.blacklist == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.RemainingTTL()
	if ttl <= 0 {
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, ttl)
}

// TTL returns the session lifetime
func (s *SessionSigner) TTL() time.Duration {
	return s.ttl
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
