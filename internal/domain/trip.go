// Package domain contains the core data types for the trip-sharing service.
// It is imported by every other internal package (repo, service, handler)
// and depends only on uuid and decimal.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnonymousAuthor is the display name stored when a trip has no author
// name, email, or identity to snapshot.
const AnonymousAuthor = "Anonymous"

// Trip is the aggregate root. Points, Photos, and Places are owned
// exclusively by the trip and are deleted with it.
type Trip struct {
	ID            uuid.UUID
	Destination   string
	CostCents     int64
	Currency      string
	BookingMethod string
	StartDate     *time.Time
	EndDate       *time.Time
	Details       string
	IsPublic      bool

	// AuthorID is nil for trips created anonymously. Once set it never changes.
	AuthorID *uuid.UUID
	// AuthorName is a snapshot taken at creation and is not kept in sync
	// with later renames.
	AuthorName string

	CreatedAt time.Time
	UpdatedAt time.Time

	Points []Point
	Photos []Photo
	Places []Place
}

// Cost returns the trip cost in major currency units.
func (t Trip) Cost() decimal.Decimal {
	return MajorFromCents(t.CostCents)
}

// EditableBy reports whether who may mutate or delete the trip.
// Trips without an author cannot be edited by anyone.
func (t Trip) EditableBy(who *Identity) bool {
	return CanEdit(t.AuthorID, who)
}

// CanEdit is the ownership rule shared by reads (canEdit flag) and writes.
func CanEdit(authorID *uuid.UUID, who *Identity) bool {
	return who != nil && authorID != nil && *authorID == who.ID
}

// Point is one map waypoint. Position defines traversal order.
type Point struct {
	Lat      float64
	Lng      float64
	Position int
}

// Photo is an image attached to a trip. Position records insertion order.
type Photo struct {
	ID       uuid.UUID
	URL      string
	Caption  *string
	Position int
}

// PlaceType classifies a Place.
type PlaceType string

const (
	PlaceRestaurant PlaceType = "RESTAURANT"
	PlaceAttraction PlaceType = "ATTRACTION"
)

// ParsePlaceType matches "ATTRACTION" case-insensitively; every other value,
// including the empty string, is a restaurant.
func ParsePlaceType(s string) PlaceType {
	if strings.EqualFold(strings.TrimSpace(s), string(PlaceAttraction)) {
		return PlaceAttraction
	}
	return PlaceRestaurant
}

// Place is a restaurant or attraction recommended on a trip.
type Place struct {
	ID       uuid.UUID
	Name     string
	Type     PlaceType
	Notes    *string
	Address  *string
	URL      *string
	Position int
}

// TripView is a trip as seen by a particular caller.
type TripView struct {
	Trip
	CanEdit bool
}

// TripFilter narrows List queries. Zero value lists every trip.
type TripFilter struct {
	PublicOnly bool
	AuthorID   *uuid.UUID
	AuthorName *string
}
