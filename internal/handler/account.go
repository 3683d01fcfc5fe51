package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
)

type signUpRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
	Name     string              `json:"name"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type userResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// sessionResponse carries a nil user for anonymous callers.
type sessionResponse struct {
	User  *userResponse `json:"user"`
	Token string        `json:"token,omitempty"`
}

// SignUp handles POST /signup.
func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var body signUpRequest
	if !decodeBody(w, r, &body) {
		return
	}

	id, err := s.accounts.SignUp(r.Context(), string(body.Email), body.Password, body.Name)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeError(w, http.StatusConflict, "conflict", "email is already registered")
			return
		}
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// CreateSession handles POST /session. The token is returned in the body
// for API clients and set as an HttpOnly cookie for browsers.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if !decodeBody(w, r, &body) {
		return
	}

	who, err := s.accounts.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
			return
		}
		s.fail(w, r, err, "")
		return
	}

	token, expires, err := s.sessions.Issue(who)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	http.SetCookie(w, auth.SessionCookie(r, token, expires))
	writeJSON(w, http.StatusOK, sessionResponse{User: toUser(&who), Token: token})
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{User: toUser(auth.IdentityFrom(r.Context()))})
}

// DeleteSession handles DELETE /session.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ExpiredCookie(r))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ChangePassword handles POST /account/password.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	who := auth.IdentityFrom(r.Context())
	if who == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	var body changePasswordRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.accounts.ChangePassword(r.Context(), who, body.CurrentPassword, body.NewPassword); err != nil {
		s.fail(w, r, err, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func toUser(who *domain.Identity) *userResponse {
	if who == nil {
		return nil
	}
	return &userResponse{ID: who.ID, Name: who.Name, Email: who.Email}
}
