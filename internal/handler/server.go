// Package handler implements the HTTP handlers for the trip-sharing API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, account.go, etc.) but share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/middleware"
	"github.com/tripshare/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, who *domain.Identity, in domain.TripInput) (uuid.UUID, error)
	Get(ctx context.Context, who *domain.Identity, id uuid.UUID) (domain.TripView, error)
	List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListByAuthor(ctx context.Context, name string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	ListMine(ctx context.Context, who *domain.Identity, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Update(ctx context.Context, who *domain.Identity, id uuid.UUID, in domain.TripInput) error
	Delete(ctx context.Context, who *domain.Identity, id uuid.UUID) error
}

// AccountServicer covers signup, credential checks, and password changes.
type AccountServicer interface {
	SignUp(ctx context.Context, email, password, name string) (uuid.UUID, error)
	Authenticate(ctx context.Context, email, password string) (domain.Identity, error)
	ChangePassword(ctx context.Context, who *domain.Identity, current, next string) error
}

// SessionIssuer mints session tokens for authenticated identities.
type SessionIssuer interface {
	Issue(who domain.Identity) (token string, expires time.Time, err error)
}

// ExportServicer produces the flat export of the caller's trips.
type ExportServicer interface {
	Export(ctx context.Context, who *domain.Identity) ([]domain.ExportRow, error)
}

// UploadServicer stores uploaded files and returns their public URLs.
type UploadServicer interface {
	Upload(ctx context.Context, who *domain.Identity, files []service.UploadFile) ([]string, error)
}

// ItineraryServicer drafts an itinerary summary from photos and notes.
type ItineraryServicer interface {
	Draft(ctx context.Context, photos []string, notes string) (string, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server needs. Nil services leave their
// routes unregistered, which keeps single-purpose tests small.
type Deps struct {
	Trips     TripServicer
	Accounts  AccountServicer
	Sessions  SessionIssuer
	Exports   ExportServicer
	Uploads   UploadServicer
	Itinerary ItineraryServicer
	DB        Pinger
	Logger    *slog.Logger

	// MaxBodyBytes caps JSON request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
	// MaxUploadBytes caps a whole multipart upload request. Zero means 32 MiB.
	MaxUploadBytes int64
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips     TripServicer
	accounts  AccountServicer
	sessions  SessionIssuer
	exports   ExportServicer
	uploads   UploadServicer
	itinerary ItineraryServicer
	db        Pinger
	log       *slog.Logger

	maxBody   int64
	maxUpload int64
}

// NewServer constructs the Server with all its dependencies.
func NewServer(d Deps) *Server {
	s := &Server{
		trips:     d.Trips,
		accounts:  d.Accounts,
		sessions:  d.Sessions,
		exports:   d.Exports,
		uploads:   d.Uploads,
		itinerary: d.Itinerary,
		db:        d.DB,
		log:       d.Logger,
		maxBody:   d.MaxBodyBytes,
		maxUpload: d.MaxUploadBytes,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 32 << 20
	}
	return s
}

// Register adds every API route to r. Global middleware (request id,
// authentication, logging, metrics) is the caller's concern.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/readyz", s.GetReady)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewMaxBodySizeHandler(s.maxBody))

		if s.trips != nil {
			r.Get("/trips", s.ListTrips)
			r.Post("/trips", s.CreateTrip)
			r.Get("/trips/{id}", s.GetTrip)
			r.Put("/trips/{id}", s.UpdateTrip)
			r.Delete("/trips/{id}", s.DeleteTrip)
			r.Get("/authors/{name}/trips", s.ListAuthorTrips)
			r.Get("/me/trips", s.ListMyTrips)
		}
		if s.exports != nil {
			r.Get("/me/trips/export", s.GetExport)
		}
		if s.accounts != nil {
			r.Post("/signup", s.SignUp)
			r.Post("/account/password", s.ChangePassword)
			if s.sessions != nil {
				r.Post("/session", s.CreateSession)
			}
		}
		r.Get("/session", s.GetSession)
		r.Delete("/session", s.DeleteSession)
		if s.itinerary != nil {
			r.Post("/ai/itinerary", s.DraftItinerary)
		}
	})

	if s.uploads != nil {
		r.Post("/uploads", s.Upload)
	}
}

// Handler returns a standalone router with every route registered.
func (s *Server) Handler() chi.Router {
	r := chi.NewRouter()
	s.Register(r)
	return r
}
