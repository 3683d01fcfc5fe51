package handler

// export.go implements GET /me/trips/export: the caller's trips and places
// as a flat table, as JSON (default) or CSV with ?format=csv.

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "destination", "start_date", "end_date", "cost", "currency",
	"place_name", "place_type", "place_address", "place_url", "place_notes",
}

// ExportRow is the JSON form of a domain.ExportRow. Empty place fields
// are omitted.
type ExportRow struct {
	TripID       string  `json:"tripId"`
	Destination  string  `json:"destination"`
	StartDate    *string `json:"startDate,omitempty"`
	EndDate      *string `json:"endDate,omitempty"`
	Cost         string  `json:"cost"`
	Currency     string  `json:"currency"`
	PlaceName    string  `json:"placeName,omitempty"`
	PlaceType    string  `json:"placeType,omitempty"`
	PlaceAddress string  `json:"placeAddress,omitempty"`
	PlaceURL     string  `json:"placeUrl,omitempty"`
	PlaceNotes   string  `json:"placeNotes,omitempty"`
}

// GetExport implements GET /me/trips/export.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		requestError(w, "invalid format parameter")
		return
	}
	wantCSV := false
	if format != nil {
		switch *format {
		case "csv":
			wantCSV = true
		case "json":
		default:
			requestError(w, "format must be csv or json")
			return
		}
	}

	rows, err := s.exports.Export(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	if wantCSV {
		writeCSV(w, rows)
		return
	}
	out := make([]ExportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, toExportRow(row))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCSV encodes rows into a buffer first so an encoding failure can
// still be reported with a proper status.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	_ = cw.Write(csvHeaders)
	for _, r := range rows {
		_ = cw.Write(toCSVRecord(r))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trips.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func toExportRow(r domain.ExportRow) ExportRow {
	return ExportRow{
		TripID:       r.TripID,
		Destination:  r.Destination,
		StartDate:    optionalDate(r.StartDate),
		EndDate:      optionalDate(r.EndDate),
		Cost:         r.Cost,
		Currency:     r.Currency,
		PlaceName:    r.PlaceName,
		PlaceType:    r.PlaceType,
		PlaceAddress: r.PlaceAddress,
		PlaceURL:     r.PlaceURL,
		PlaceNotes:   r.PlaceNotes,
	}
}

// toCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil dates are encoded as empty strings.
func toCSVRecord(r domain.ExportRow) []string {
	var start, end string
	if d := optionalDate(r.StartDate); d != nil {
		start = *d
	}
	if d := optionalDate(r.EndDate); d != nil {
		end = *d
	}
	return []string{
		r.TripID, r.Destination, start, end, r.Cost, r.Currency,
		r.PlaceName, r.PlaceType, r.PlaceAddress, r.PlaceURL, r.PlaceNotes,
	}
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.DateOnly)
	return &s
}
