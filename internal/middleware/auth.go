package middleware

import (
	"net/http"
	"strings"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
)

// TokenParser validates a session token and returns the identity it carries.
type TokenParser interface {
	Parse(token string) (domain.Identity, error)
}

// NewAuthenticator returns a middleware that resolves the caller's identity
// from an "Authorization: Bearer" header or the session cookie and stores it
// in the request context. It never rejects a request; handlers decide what
// needs an identity. An invalid or expired cookie is cleared.
func NewAuthenticator(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if who, err := tokens.Parse(token); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), who))
				}
				next.ServeHTTP(w, r)
				return
			}

			if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
				who, err := tokens.Parse(c.Value)
				if err != nil {
					http.SetCookie(w, auth.ExpiredCookie(r))
				} else {
					r = r.WithContext(auth.WithIdentity(r.Context(), who))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
