package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tripshare/backend/internal/domain"
)

// ErrorDetail is the machine-readable code and human message of a failure.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// okResponse is returned by mutations that have nothing else to report.
type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError rejects a request before it reaches the service layer
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, "validation_error", message)
}

// fail maps a service error onto the HTTP error contract. Anything that is
// not a known domain sentinel is logged and reported as a generic 500 so
// store errors never reach the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", unwrapMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you do not have permission to modify this resource")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", notFound)
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", "resource already exists")
	case errors.Is(err, domain.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "this feature is not configured")
	case errors.Is(err, domain.ErrUpstream):
		s.log.WarnContext(r.Context(), "upstream failure",
			"error", err, "request_id", chimw.GetReqID(r.Context()))
		writeError(w, http.StatusBadGateway, "upstream_error", "upstream service failed")
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"error", err, "request_id", chimw.GetReqID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: validation error: destination is required"
// becomes "destination is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// decodeBody decodes a JSON request body into v. Oversized bodies are
// reported with 413; any other decode failure is a 400. It returns false
// when a response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			requestError(w, "request body is required")
			return false
		}
		requestError(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
