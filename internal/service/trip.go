// Package service contains the business logic for the trip-sharing API.
// Services validate inputs, enforce ownership, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/repo"
)

// DefaultCurrency is stored when a new trip omits currency.
const DefaultCurrency = "USD"

// TripService implements business logic for Trip operations.
type TripService struct {
	repo           repo.TripRepo
	allowAnonymous bool
}

// TripOption configures a TripService.
type TripOption func(*TripService)

// WithAnonymousTrips lets callers without an identity create trips.
// Such trips have no author and can never be edited afterwards.
func WithAnonymousTrips(allow bool) TripOption {
	return func(s *TripService) { s.allowAnonymous = allow }
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo, opts ...TripOption) *TripService {
	s := &TripService{repo: r}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates and persists a new trip authored by who.
// who may be nil only when anonymous trips are allowed.
func (s *TripService) Create(ctx context.Context, who *domain.Identity, in domain.TripInput) (uuid.UUID, error) {
	if who == nil && !s.allowAnonymous {
		return uuid.Nil, fmt.Errorf("service.TripService.Create: %w", domain.ErrUnauthorized)
	}
	if !in.Currency.Set || strings.TrimSpace(in.Currency.Value) == "" {
		in.Currency = domain.Some(DefaultCurrency)
	}
	if !in.Destination.Set {
		in.Destination = domain.Some("")
	}

	c, err := normalize(in)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TripService.Create: %w", err)
	}

	trip := domain.Trip{
		Destination:   c.Destination.Value,
		CostCents:     c.CostCents.Or(0),
		Currency:      c.Currency.Value,
		BookingMethod: c.BookingMethod.Or(""),
		StartDate:     c.StartDate.Or(nil),
		EndDate:       c.EndDate.Or(nil),
		Details:       strings.TrimSpace(c.Details.Or("")),
		IsPublic:      c.IsPublic.Or(true),
		AuthorName:    who.DisplayName(),
		Points:        c.Points.Value,
		Photos:        c.Photos.Value,
		Places:        c.Places.Value,
	}
	if who != nil {
		id := who.ID
		trip.AuthorID = &id
	}

	id, err := s.repo.Create(ctx, trip)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return id, nil
}

// Get returns the trip as seen by who. Private trips are reported as
// missing to everyone except their author.
func (s *TripService) Get(ctx context.Context, who *domain.Identity, id uuid.UUID) (domain.TripView, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.TripView{}, fmt.Errorf("service.TripService.Get: %w", err)
	}
	canEdit := trip.EditableBy(who)
	if !trip.IsPublic && !canEdit {
		return domain.TripView{}, fmt.Errorf("service.TripService.Get: %w", domain.ErrNotFound)
	}
	return domain.TripView{Trip: trip, CanEdit: canEdit}, nil
}

// List returns one page of public trips, newest first.
func (s *TripService) List(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.List(ctx, domain.TripFilter{PublicOnly: true}, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.List: %w", err)
	}
	return trips, total, nil
}

// ListByAuthor returns public trips whose author display name is name.
func (s *TripService) ListByAuthor(ctx context.Context, name string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, 0, fmt.Errorf("service.TripService.ListByAuthor: %w: author name is required", domain.ErrValidation)
	}
	trips, total, err := s.repo.List(ctx, domain.TripFilter{PublicOnly: true, AuthorName: &name}, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListByAuthor: %w", err)
	}
	return trips, total, nil
}

// ListMine returns every trip authored by who, public or not.
func (s *TripService) ListMine(ctx context.Context, who *domain.Identity, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	if who == nil {
		return nil, 0, fmt.Errorf("service.TripService.ListMine: %w", domain.ErrUnauthorized)
	}
	trips, total, err := s.repo.List(ctx, domain.TripFilter{AuthorID: &who.ID}, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListMine: %w", err)
	}
	return trips, total, nil
}

// Update applies the fields present in in. Authorization is checked before
// validation, and validation before any write.
func (s *TripService) Update(ctx context.Context, who *domain.Identity, id uuid.UUID, in domain.TripInput) error {
	if err := s.authorize(ctx, who, id); err != nil {
		return fmt.Errorf("service.TripService.Update: %w", err)
	}
	c, err := normalize(in)
	if err != nil {
		return fmt.Errorf("service.TripService.Update: %w", err)
	}
	if err := s.repo.Update(ctx, id, c); err != nil {
		return fmt.Errorf("service.TripService.Update: %w", err)
	}
	return nil
}

// Delete removes a trip authored by who, with all of its children.
func (s *TripService) Delete(ctx context.Context, who *domain.Identity, id uuid.UUID) error {
	if err := s.authorize(ctx, who, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// authorize enforces the ownership rule. A trip without an author is
// forbidden to everyone.
func (s *TripService) authorize(ctx context.Context, who *domain.Identity, id uuid.UUID) error {
	if who == nil {
		return domain.ErrUnauthorized
	}
	author, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanEdit(author, who) {
		return domain.ErrForbidden
	}
	return nil
}

// ---- normalization ---------------------------------------------------------

// normalize validates the fields present in in and converts them to their
// stored form. Absent fields stay absent.
func normalize(in domain.TripInput) (domain.TripChanges, error) {
	var c domain.TripChanges

	if in.Destination.Set {
		d := strings.TrimSpace(in.Destination.Value)
		if d == "" {
			return c, fmt.Errorf("%w: destination is required", domain.ErrValidation)
		}
		c.Destination = domain.Some(d)
	}
	if in.Cost.Set {
		cents, err := domain.CentsFromMajor(in.Cost.Value)
		if err != nil {
			return c, err
		}
		c.CostCents = domain.Some(cents)
	}
	if in.Currency.Set {
		cur, err := normalizeCurrency(in.Currency.Value)
		if err != nil {
			return c, err
		}
		c.Currency = domain.Some(cur)
	}
	if in.BookingMethod.Set {
		c.BookingMethod = domain.Some(strings.TrimSpace(in.BookingMethod.Value))
	}
	if in.Details.Set {
		c.Details = domain.Some(in.Details.Value)
	}
	if in.IsPublic.Set {
		c.IsPublic = domain.Some(in.IsPublic.Value)
	}

	if in.StartDate.Set {
		t, err := parseDate("startDate", in.StartDate.Value)
		if err != nil {
			return c, err
		}
		c.StartDate = domain.Some(t)
	}
	if in.EndDate.Set {
		t, err := parseDate("endDate", in.EndDate.Value)
		if err != nil {
			return c, err
		}
		c.EndDate = domain.Some(t)
	}
	if start, end := c.StartDate.Value, c.EndDate.Value; start != nil && end != nil && end.Before(*start) {
		return c, fmt.Errorf("%w: endDate must not be before startDate", domain.ErrValidation)
	}

	if in.Points.Set {
		points, err := normalizePoints(in.Points.Value)
		if err != nil {
			return c, err
		}
		c.Points = domain.Some(points)
	}
	if in.Photos.Set {
		photos, err := normalizePhotos(in.Photos.Value)
		if err != nil {
			return c, err
		}
		c.Photos = domain.Some(photos)
	}
	if in.Places.Set {
		places, err := normalizePlaces(in.Places.Value)
		if err != nil {
			return c, err
		}
		c.Places = domain.Some(places)
	}
	return c, nil
}

func normalizeCurrency(s string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(s))
	if len(cur) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrValidation)
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrValidation)
		}
	}
	return cur, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
// An empty string means no date.
func parseDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s must be an ISO-8601 date", domain.ErrValidation, field)
}

func normalizePoints(in []domain.PointInput) ([]domain.Point, error) {
	points := make([]domain.Point, len(in))
	for i, p := range in {
		if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
			return nil, fmt.Errorf("%w: points[%d].lat out of range", domain.ErrValidation, i)
		}
		if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
			return nil, fmt.Errorf("%w: points[%d].lng out of range", domain.ErrValidation, i)
		}
		points[i] = domain.Point{Lat: p.Lat, Lng: p.Lng, Position: i}
	}
	return points, nil
}

func normalizePhotos(in []domain.PhotoInput) ([]domain.Photo, error) {
	photos := make([]domain.Photo, len(in))
	for i, p := range in {
		url := strings.TrimSpace(p.URL)
		if url == "" {
			return nil, fmt.Errorf("%w: photos[%d].url is required", domain.ErrValidation, i)
		}
		photos[i] = domain.Photo{URL: url, Caption: trimmedOrNil(p.Caption), Position: i}
	}
	return photos, nil
}

func normalizePlaces(in []domain.PlaceInput) ([]domain.Place, error) {
	places := make([]domain.Place, len(in))
	for i, p := range in {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: places[%d].name is required", domain.ErrValidation, i)
		}
		places[i] = domain.Place{
			Name:     name,
			Type:     domain.ParsePlaceType(p.Type),
			Notes:    trimmedOrNil(p.Notes),
			Address:  trimmedOrNil(p.Address),
			URL:      trimmedOrNil(p.URL),
			Position: i,
		}
	}
	return places, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
