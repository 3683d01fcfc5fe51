package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing destination, malformed date).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when an operation requires an identity and the
// request carries none, or when credentials do not verify.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the caller is identified but is not allowed
// to act on the resource (e.g. editing someone else's trip).
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a unique constraint would be violated,
// e.g. signing up with an email that is already registered.
var ErrConflict = errors.New("conflict")

// ErrPersistence wraps store-level failures. Handlers log the detail and
// return a generic 500 so SQL errors never leak to clients.
var ErrPersistence = errors.New("persistence error")

// ErrUnavailable means an optional collaborator (e.g. the summary generator)
// is not configured in this deployment.
var ErrUnavailable = errors.New("service unavailable")

// ErrUpstream means a remote collaborator failed while serving the request.
var ErrUpstream = errors.New("upstream failure")
