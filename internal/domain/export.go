package domain

import "time"

// ExportRow is a single row in an author's trip export.
// It is a flat, denormalized view: one row per place, with trip fields
// repeated for every place on that trip. Trips with no places yield one row
// with zero values for all place fields.
type ExportRow struct {
	// Trip fields, repeated for every place on the trip.
	TripID      string
	Destination string
	StartDate   *time.Time
	EndDate     *time.Time
	Cost        string // major units, two fraction digits
	Currency    string

	// Place fields, zero values when the trip has no places.
	PlaceName    string
	PlaceType    string
	PlaceAddress string
	PlaceURL     string
	PlaceNotes   string
}
