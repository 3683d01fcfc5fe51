package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripInput is a create or update request as submitted by a client.
// Each field records whether it was present so updates can apply only
// what was sent. Child collections, when present, replace the stored
// collection entirely.
type TripInput struct {
	Destination   Optional[string]
	Cost          Optional[decimal.Decimal]
	Currency      Optional[string]
	BookingMethod Optional[string]
	StartDate     Optional[string]
	EndDate       Optional[string]
	Details       Optional[string]
	IsPublic      Optional[bool]

	Points Optional[[]PointInput]
	Photos Optional[[]PhotoInput]
	Places Optional[[]PlaceInput]
}

// PointInput carries no position: order in the request is the order stored.
type PointInput struct {
	Lat float64
	Lng float64
}

type PhotoInput struct {
	URL     string
	Caption *string
}

type PlaceInput struct {
	Name    string
	Type    string
	Notes   *string
	Address *string
	URL     *string
}

// TripChanges is a normalized partial update handed to the repository.
// Dates use a nil pointer to mean "clear".
type TripChanges struct {
	Destination   Optional[string]
	CostCents     Optional[int64]
	Currency      Optional[string]
	BookingMethod Optional[string]
	StartDate     Optional[*time.Time]
	EndDate       Optional[*time.Time]
	Details       Optional[string]
	IsPublic      Optional[bool]

	Points Optional[[]Point]
	Photos Optional[[]Photo]
	Places Optional[[]Place]
}
