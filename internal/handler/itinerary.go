package handler

import "net/http"

type itineraryRequest struct {
	Photos []string `json:"photos"`
	Notes  string   `json:"notes"`
}

type itineraryResponse struct {
	Summary string `json:"summary"`
}

// DraftItinerary handles POST /ai/itinerary.
func (s *Server) DraftItinerary(w http.ResponseWriter, r *http.Request) {
	var body itineraryRequest
	if !decodeBody(w, r, &body) {
		return
	}

	summary, err := s.itinerary.Draft(r.Context(), body.Photos, body.Notes)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, itineraryResponse{Summary: summary})
}
