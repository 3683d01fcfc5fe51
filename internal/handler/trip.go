package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
)

// tripRequest is the body of POST /trips and PUT /trips/{id}. Every field
// is optional so updates can tell an omitted key from one sent as null.
type tripRequest struct {
	Destination   domain.Optional[string]          `json:"destination"`
	Cost          domain.Optional[decimal.Decimal] `json:"cost"`
	Currency      domain.Optional[string]          `json:"currency"`
	BookingMethod domain.Optional[string]          `json:"bookingMethod"`
	StartDate     domain.Optional[string]          `json:"startDate"`
	EndDate       domain.Optional[string]          `json:"endDate"`
	Details       domain.Optional[string]          `json:"details"`
	IsPublic      domain.Optional[bool]            `json:"isPublic"`

	Points domain.Optional[[]pointRequest] `json:"points"`
	Photos domain.Optional[[]photoRequest] `json:"photos"`
	Places domain.Optional[[]placeRequest] `json:"places"`
}

type pointRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type photoRequest struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
}

type placeRequest struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Notes   *string `json:"notes"`
	Address *string `json:"address"`
	URL     *string `json:"url"`
}

// tripSummary is the list representation of a trip: scalars only.
type tripSummary struct {
	ID            uuid.UUID   `json:"id"`
	Destination   string      `json:"destination"`
	Cost          json.Number `json:"cost"`
	CostCents     int64       `json:"costCents"`
	Currency      string      `json:"currency"`
	BookingMethod string      `json:"bookingMethod"`
	StartDate     *time.Time  `json:"startDate"`
	EndDate       *time.Time  `json:"endDate"`
	Details       string      `json:"details"`
	IsPublic      bool        `json:"isPublic"`
	AuthorID      *uuid.UUID  `json:"authorId"`
	AuthorName    string      `json:"authorName"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// tripDetail is the full aggregate as returned by GET /trips/{id}.
type tripDetail struct {
	tripSummary
	CanEdit bool            `json:"canEdit"`
	Points  []pointResponse `json:"points"`
	Photos  []photoResponse `json:"photos"`
	Places  []placeResponse `json:"places"`
}

type pointResponse struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Position int     `json:"position"`
}

type photoResponse struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Caption  *string   `json:"caption"`
	Position int       `json:"position"`
}

type placeResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Notes    *string   `json:"notes"`
	Address  *string   `json:"address"`
	URL      *string   `json:"url"`
	Position int       `json:"position"`
}

// Pagination describes the page a list response holds.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type tripList struct {
	Data       []tripSummary `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body tripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	id, err := s.trips.Create(r.Context(), auth.IdentityFrom(r.Context()), body.toInput())
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}

	view, err := s.trips.Get(r.Context(), auth.IdentityFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, toDetail(view))
}

// UpdateTrip handles PUT /trips/{id}. Only keys present in the body are
// applied; a present collection replaces the stored one.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}
	var body tripRequest
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.trips.Update(r.Context(), auth.IdentityFrom(r.Context()), id, body.toInput()); err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := tripID(w, r)
	if !ok {
		return
	}

	if err := s.trips.Delete(r.Context(), auth.IdentityFrom(r.Context()), id); err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// ListTrips handles GET /trips.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	p, ok := pagination(w, r)
	if !ok {
		return
	}
	trips, total, err := s.trips.List(r.Context(), p)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toList(trips, total, p))
}

// ListAuthorTrips handles GET /authors/{name}/trips.
func (s *Server) ListAuthorTrips(w http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "invalid author name")
		return
	}
	p, ok := pagination(w, r)
	if !ok {
		return
	}

	trips, total, err := s.trips.ListByAuthor(r.Context(), name, p)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toList(trips, total, p))
}

// ListMyTrips handles GET /me/trips, including the caller's private trips.
func (s *Server) ListMyTrips(w http.ResponseWriter, r *http.Request) {
	p, ok := pagination(w, r)
	if !ok {
		return
	}
	trips, total, err := s.trips.ListMine(r.Context(), auth.IdentityFrom(r.Context()), p)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toList(trips, total, p))
}

// --- binding helpers --------------------------------------------------------

// tripID binds the {id} path parameter. A malformed id is a 400.
func tripID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "invalid trip id")
		return uuid.Nil, false
	}
	return id, true
}

func pagination(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		requestError(w, "page must be an integer")
		return domain.PaginationParams{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		requestError(w, "limit must be an integer")
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, limit), true
}

// --- mapping helpers --------------------------------------------------------

func (b tripRequest) toInput() domain.TripInput {
	in := domain.TripInput{
		Destination:   b.Destination,
		Cost:          b.Cost,
		Currency:      b.Currency,
		BookingMethod: b.BookingMethod,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		Details:       b.Details,
		IsPublic:      b.IsPublic,
	}
	if b.Points.Set {
		points := make([]domain.PointInput, len(b.Points.Value))
		for i, p := range b.Points.Value {
			points[i] = domain.PointInput{Lat: p.Lat, Lng: p.Lng}
		}
		in.Points = domain.Some(points)
	}
	if b.Photos.Set {
		photos := make([]domain.PhotoInput, len(b.Photos.Value))
		for i, p := range b.Photos.Value {
			photos[i] = domain.PhotoInput{URL: p.URL, Caption: p.Caption}
		}
		in.Photos = domain.Some(photos)
	}
	if b.Places.Set {
		places := make([]domain.PlaceInput, len(b.Places.Value))
		for i, p := range b.Places.Value {
			places[i] = domain.PlaceInput{Name: p.Name, Type: p.Type, Notes: p.Notes, Address: p.Address, URL: p.URL}
		}
		in.Places = domain.Some(places)
	}
	return in
}

func toSummary(t domain.Trip) tripSummary {
	return tripSummary{
		ID:            t.ID,
		Destination:   t.Destination,
		Cost:          json.Number(t.Cost().StringFixed(2)),
		CostCents:     t.CostCents,
		Currency:      t.Currency,
		BookingMethod: t.BookingMethod,
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		Details:       t.Details,
		IsPublic:      t.IsPublic,
		AuthorID:      t.AuthorID,
		AuthorName:    t.AuthorName,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toDetail(v domain.TripView) tripDetail {
	d := tripDetail{
		tripSummary: toSummary(v.Trip),
		CanEdit:     v.CanEdit,
		Points:      make([]pointResponse, len(v.Points)),
		Photos:      make([]photoResponse, len(v.Photos)),
		Places:      make([]placeResponse, len(v.Places)),
	}
	for i, p := range v.Points {
		d.Points[i] = pointResponse{Lat: p.Lat, Lng: p.Lng, Position: p.Position}
	}
	for i, p := range v.Photos {
		d.Photos[i] = photoResponse{ID: p.ID, URL: p.URL, Caption: p.Caption, Position: p.Position}
	}
	for i, p := range v.Places {
		d.Places[i] = placeResponse{
			ID: p.ID, Name: p.Name, Type: string(p.Type),
			Notes: p.Notes, Address: p.Address, URL: p.URL, Position: p.Position,
		}
	}
	return d
}

func toList(trips []domain.Trip, total int64, p domain.PaginationParams) tripList {
	data := make([]tripSummary, len(trips))
	for i, t := range trips {
		data[i] = toSummary(t)
	}
	return tripList{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: total},
	}
}
