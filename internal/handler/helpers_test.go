package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/handler"
)

var ada = domain.Identity{ID: uuid.MustParse("6f1d3c1e-52a4-4d7c-9d0b-8a1f2b3c4d5e"), Name: "Ada", Email: "ada@example.com"}

// newHTTPHandler wires a Server into a chi router the same way main.go
// does. A non-nil who is placed in every request context, standing in for
// the session middleware.
func newHTTPHandler(d handler.Deps, who *domain.Identity) http.Handler {
	r := chi.NewRouter()
	if who != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), *who)))
			})
		})
	}
	handler.NewServer(d).Register(r)
	return r
}

func serve(h http.Handler, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func ptr[T any](v T) *T { return &v }
