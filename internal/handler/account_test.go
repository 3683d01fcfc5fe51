package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/handler"
)

type mockAccountServicer struct {
	signUp         func(ctx context.Context, email, password, name string) (uuid.UUID, error)
	authenticate   func(ctx context.Context, email, password string) (domain.Identity, error)
	changePassword func(ctx context.Context, who *domain.Identity, current, next string) error
}

func (m *mockAccountServicer) SignUp(ctx context.Context, email, password, name string) (uuid.UUID, error) {
	return m.signUp(ctx, email, password, name)
}
func (m *mockAccountServicer) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	return m.authenticate(ctx, email, password)
}
func (m *mockAccountServicer) ChangePassword(ctx context.Context, who *domain.Identity, current, next string) error {
	return m.changePassword(ctx, who, current, next)
}

var _ handler.AccountServicer = (*mockAccountServicer)(nil)

type fixedIssuer struct {
	token   string
	expires time.Time
	err     error
}

func (f fixedIssuer) Issue(domain.Identity) (string, time.Time, error) {
	return f.token, f.expires, f.err
}

var _ handler.SessionIssuer = fixedIssuer{}

func accountHandler(svc handler.AccountServicer, who *domain.Identity) http.Handler {
	return newHTTPHandler(handler.Deps{
		Accounts: svc,
		Sessions: fixedIssuer{token: "tok", expires: time.Now().Add(time.Hour)},
	}, who)
}

// ---- POST /signup ----------------------------------------------------------

func TestSignUp_201(t *testing.T) {
	id := uuid.New()
	svc := &mockAccountServicer{
		signUp: func(_ context.Context, email, password, name string) (uuid.UUID, error) {
			assert.Equal(t, "Ada@Example.com", email)
			assert.Equal(t, "hunter22", password)
			assert.Equal(t, "Ada", name)
			return id, nil
		},
	}

	rec := serve(accountHandler(svc, nil), http.MethodPost, "/signup", jsonBody(t, map[string]any{
		"email": "Ada@Example.com", "password": "hunter22", "name": "Ada",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%q}`, id), rec.Body.String())
}

func TestSignUp_400_InvalidEmail(t *testing.T) {
	rec := serve(accountHandler(&mockAccountServicer{}, nil), http.MethodPost, "/signup",
		jsonBody(t, map[string]any{"email": "not-an-email", "password": "hunter22"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestSignUp_409_Duplicate(t *testing.T) {
	svc := &mockAccountServicer{
		signUp: func(_ context.Context, _, _, _ string) (uuid.UUID, error) {
			return uuid.Nil, fmt.Errorf("service.AccountService.SignUp: repo.UserRepo.Create: %w", domain.ErrConflict)
		},
	}

	rec := serve(accountHandler(svc, nil), http.MethodPost, "/signup",
		jsonBody(t, map[string]any{"email": "ada@example.com", "password": "hunter22"}))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email is already registered", decodeError(t, rec).Message)
}

// ---- /session --------------------------------------------------------------

func TestCreateSession_SetsCookie(t *testing.T) {
	svc := &mockAccountServicer{
		authenticate: func(_ context.Context, email, password string) (domain.Identity, error) {
			return ada, nil
		},
	}

	rec := serve(accountHandler(svc, nil), http.MethodPost, "/session",
		jsonBody(t, map[string]any{"email": "ada@example.com", "password": "hunter22"}))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, ada.Email, resp.User["email"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestCreateSession_401_BadCredentials(t *testing.T) {
	svc := &mockAccountServicer{
		authenticate: func(_ context.Context, _, _ string) (domain.Identity, error) {
			return domain.Identity{}, fmt.Errorf("service.AccountService.Authenticate: %w", domain.ErrUnauthorized)
		},
	}

	rec := serve(accountHandler(svc, nil), http.MethodPost, "/session",
		jsonBody(t, map[string]any{"email": "ada@example.com", "password": "wrong"}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestCreateSession_500_IssueFailure(t *testing.T) {
	svc := &mockAccountServicer{
		authenticate: func(_ context.Context, _, _ string) (domain.Identity, error) { return ada, nil },
	}
	h := newHTTPHandler(handler.Deps{Accounts: svc, Sessions: fixedIssuer{err: errors.New("sign")}}, nil)

	rec := serve(h, http.MethodPost, "/session", jsonBody(t, map[string]any{"email": "a@b.co", "password": "x"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetSession(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		rec := serve(newHTTPHandler(handler.Deps{}, nil), http.MethodGet, "/session", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user":null}`, rec.Body.String())
	})
	t.Run("signed in", func(t *testing.T) {
		rec := serve(newHTTPHandler(handler.Deps{}, &ada), http.MethodGet, "/session", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"user":{"id":%q,"name":"Ada","email":"ada@example.com"}}`, ada.ID), rec.Body.String())
	})
}

func TestDeleteSession_ClearsCookie(t *testing.T) {
	rec := serve(newHTTPHandler(handler.Deps{}, &ada), http.MethodDelete, "/session", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

// ---- POST /account/password ------------------------------------------------

func TestChangePassword(t *testing.T) {
	svc := &mockAccountServicer{
		changePassword: func(_ context.Context, who *domain.Identity, current, next string) error {
			assert.Equal(t, ada.ID, who.ID)
			if current != "hunter22" {
				return fmt.Errorf("service.AccountService.ChangePassword: %w: current password is incorrect", domain.ErrValidation)
			}
			return nil
		},
	}

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(accountHandler(svc, nil), http.MethodPost, "/account/password",
			jsonBody(t, map[string]any{"currentPassword": "hunter22", "newPassword": "correct horse"}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
	t.Run("wrong current password", func(t *testing.T) {
		rec := serve(accountHandler(svc, &ada), http.MethodPost, "/account/password",
			jsonBody(t, map[string]any{"currentPassword": "nope", "newPassword": "correct horse"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "current password is incorrect", decodeError(t, rec).Message)
	})
	t.Run("ok", func(t *testing.T) {
		rec := serve(accountHandler(svc, &ada), http.MethodPost, "/account/password",
			jsonBody(t, map[string]any{"currentPassword": "hunter22", "newPassword": "correct horse"}))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	})
	t.Run("empty body", func(t *testing.T) {
		rec := serve(accountHandler(svc, &ada), http.MethodPost, "/account/password", bytes.NewBuffer(nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "request body is required", decodeError(t, rec).Message)
	})
}
