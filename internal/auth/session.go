// Package auth issues and verifies session tokens and carries the caller's
// identity through a request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tripshare/backend/internal/domain"
)

// CookieName is the cookie that carries the session token in browsers.
const CookieName = "session_token"

// DefaultLeeway tolerates small clock skew between instances.
const DefaultLeeway = 30 * time.Second

// ErrInvalidToken is returned when token validation fails.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when the token has expired.
var ErrExpiredToken = errors.New("token has expired")

// Claims are the session token claims. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SessionManager signs and validates HS256 session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewSessionManager returns a SessionManager whose tokens live for ttl.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: DefaultLeeway,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue returns a signed token for who and its expiry.
func (m *SessionManager) Issue(who domain.Identity) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   who.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:  who.Name,
		Email: who.Email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.SessionManager.Issue: %w", err)
	}
	return token, exp, nil
}

// Parse validates a token and returns the identity it carries.
func (m *SessionManager) Parse(token string) (domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.Identity{}, ErrExpiredToken
	}
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{ID: id, Name: claims.Name, Email: claims.Email}, nil
}
