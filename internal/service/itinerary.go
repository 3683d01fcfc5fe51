package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripshare/backend/internal/domain"
)

// Drafter turns trip photos and notes into a markdown itinerary summary.
type Drafter interface {
	Draft(ctx context.Context, photos []string, notes string) (string, error)
}

// ItineraryService drafts itinerary summaries. A nil Drafter means the
// feature is not configured in this deployment.
type ItineraryService struct {
	drafter Drafter
}

// NewItineraryService constructs an ItineraryService. d may be nil.
func NewItineraryService(d Drafter) *ItineraryService {
	return &ItineraryService{drafter: d}
}

// Draft returns a markdown summary for the given photo URLs.
func (s *ItineraryService) Draft(ctx context.Context, photos []string, notes string) (string, error) {
	cleaned := make([]string, 0, len(photos))
	for _, p := range photos {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "", fmt.Errorf("service.ItineraryService.Draft: %w: photos are required", domain.ErrValidation)
	}
	if s.drafter == nil {
		return "", fmt.Errorf("service.ItineraryService.Draft: %w", domain.ErrUnavailable)
	}

	summary, err := s.drafter.Draft(ctx, cleaned, strings.TrimSpace(notes))
	if err != nil {
		return "", fmt.Errorf("service.ItineraryService.Draft: %w: %w", domain.ErrUpstream, err)
	}
	return summary, nil
}
