package service

import (
	"context"
	"fmt"

	"github.com/tripshare/backend/internal/domain"
	"github.com/tripshare/backend/internal/repo"
)

// exportPageSize is the page size used to walk an author's trips.
const exportPageSize = 100

// ExportService assembles a flat export of an author's trips and places.
type ExportService struct {
	trips repo.TripRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(trips repo.TripRepo) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one ExportRow per place across every trip authored by who,
// newest trip first. Trips with no places contribute one row with empty
// place fields.
func (s *ExportService) Export(ctx context.Context, who *domain.Identity) ([]domain.ExportRow, error) {
	if who == nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", domain.ErrUnauthorized)
	}

	rows := []domain.ExportRow{}
	filter := domain.TripFilter{AuthorID: &who.ID}
	for page := 1; ; page++ {
		trips, total, err := s.trips.List(ctx, filter, domain.PaginationParams{Page: page, Limit: exportPageSize})
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: list trips: %w", err)
		}
		for _, summary := range trips {
			trip, err := s.trips.GetByID(ctx, summary.ID)
			if err != nil {
				return nil, fmt.Errorf("service.ExportService.Export: get trip %s: %w", summary.ID, err)
			}
			rows = append(rows, exportRows(trip)...)
		}
		if len(trips) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	return rows, nil
}

func exportRows(t domain.Trip) []domain.ExportRow {
	base := domain.ExportRow{
		TripID:      t.ID.String(),
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Cost:        t.Cost().StringFixed(2),
		Currency:    t.Currency,
	}
	if len(t.Places) == 0 {
		return []domain.ExportRow{base}
	}

	rows := make([]domain.ExportRow, 0, len(t.Places))
	for _, p := range t.Places {
		row := base
		row.PlaceName = p.Name
		row.PlaceType = string(p.Type)
		row.PlaceAddress = deref(p.Address)
		row.PlaceURL = deref(p.URL)
		row.PlaceNotes = deref(p.Notes)
		rows = append(rows, row)
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
