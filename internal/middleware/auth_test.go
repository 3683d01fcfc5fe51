package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/middleware"
)

// tokenTable is a TokenParser backed by a fixed map.
type tokenTable map[string]domain.Identity

func (t tokenTable) Parse(token string) (domain.Identity, error) {
	who, ok := t[token]
	if !ok {
		return domain.Identity{}, errors.New("bad token")
	}
	return who, nil
}

var ada = domain.Identity{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}

// serveWithIdentity runs req through the authenticator and returns the
// identity the downstream handler saw.
func serveWithIdentity(t *testing.T, req *http.Request) (*domain.Identity, *httptest.ResponseRecorder) {
	t.Helper()
	var seen *domain.Identity
	h := middleware.NewAuthenticator(tokenTable{"good": ada})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = auth.IdentityFrom(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "authenticator must never reject")
	return seen, rec
}

func TestAuthenticator_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me/trips", nil)
	req.Header.Set("Authorization", "Bearer good")

	who, _ := serveWithIdentity(t, req)

	require.NotNil(t, who)
	assert.Equal(t, ada, *who)
}

func TestAuthenticator_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me/trips", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "good"})

	who, rec := serveWithIdentity(t, req)

	require.NotNil(t, who)
	assert.Equal(t, ada.ID, who.ID)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAuthenticator_InvalidCookieIsCleared(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "forged"})

	who, rec := serveWithIdentity(t, req)

	assert.Nil(t, who)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthenticator_InvalidBearerIsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/trips", nil)
	req.Header.Set("Authorization", "Bearer forged")

	who, _ := serveWithIdentity(t, req)

	assert.Nil(t, who)
}

func TestAuthenticator_NoCredentials(t *testing.T) {
	who, _ := serveWithIdentity(t, httptest.NewRequest(http.MethodGet, "/trips", nil))

	assert.Nil(t, who)
}
