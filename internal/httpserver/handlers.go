package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/internal/session"
)

// venueExport is the public venue list entry. The full week is always
// present; weekend flags are false since the store has no weekend columns.
type venueExport struct {
	ID              string            `json:"id"`
	RestaurantName  string            `json:"restaurant_name"`
	DealDescription string            `json:"deal_description"`
	Days            model.DaySchedule `json:"days"`
	Neighborhood    string            `json:"neighborhood"`
	LastUpdated     string            `json:"last_updated"`
	Latitude        *float64          `json:"latitude,omitempty"`
	Longitude       *float64          `json:"longitude,omitempty"`
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.venues.ListVenues(r.Context())
	if err != nil {
		zap.L().Error("list venues failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "venue directory unavailable")
		return
	}

	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	out := make([]venueExport, 0, len(venues))
	for _, v := range venues {
		if q != "" &&
			!strings.Contains(strings.ToLower(v.RestaurantName), q) &&
			!strings.Contains(strings.ToLower(v.Neighborhood), q) &&
			!strings.Contains(strings.ToLower(v.DealDescription), q) {
			continue
		}
		out = append(out, venueExport{
			ID:              v.ID,
			RestaurantName:  v.RestaurantName,
			DealDescription: v.DealDescription,
			Days:            v.Schedule(),
			Neighborhood:    v.Neighborhood,
			LastUpdated:     v.LastUpdated.UTC().Format(time.RFC3339),
			Latitude:        v.Latitude,
			Longitude:       v.Longitude,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type extractRequest struct {
	Images         []extract.Image `json:"images"`
	TextInput      string          `json:"textInput"`
	RestaurantName string          `json:"restaurantName"`
	Location       *model.Location `json:"location,omitempty"`
}

type extractResponse struct {
	Deal    *model.ExtractedDeal `json:"deal"`
	Match   *model.Venue         `json:"match,omitempty"`
	Warning string               `json:"warning,omitempty"`
}

func (s *Server) handleExtractDeal(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := s.controller.Start(r.Context())
	sess.Images = req.Images
	sess.Text = req.TextInput
	sess.RestaurantName = req.RestaurantName
	sess.Location = req.Location

	sess, err := s.controller.Process(r.Context(), sess)
	if err != nil {
		writeError(w, statusForSaveError(err), errorMessage(err, "extraction failed"))
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Deal:    sess.Deal,
		Match:   sess.Match,
		Warning: sess.Warning,
	})
}

type enhanceRequest struct {
	ExtractedData model.ExtractedDeal `json:"extractedData"`
	Feedback      string              `json:"feedback"`
}

func (s *Server) handleEnhanceDeal(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := session.Session{State: session.StateResult, Deal: &req.ExtractedData}
	sess, err := s.controller.Refine(r.Context(), sess, req.Feedback)
	if err != nil {
		writeError(w, statusForSaveError(err), errorMessage(err, "refinement failed"))
		return
	}

	writeJSON(w, http.StatusOK, sess.Deal)
}

type saveRequest struct {
	ExtractedData  model.ExtractedDeal `json:"extractedData"`
	MatchedVenueID *string             `json:"matchedVenueId,omitempty"`
}

func (s *Server) handleSaveVenue(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := session.Session{State: session.StateResult, Deal: &req.ExtractedData}
	if req.MatchedVenueID != nil {
		sess.Match = &model.Venue{ID: *req.MatchedVenueID}
	}

	sess, err := s.controller.Confirm(r.Context(), sess)
	if err != nil {
		zap.L().Error("save venue failed", zap.Error(err))
		writeError(w, statusForSaveError(err), errorMessage(err, "save failed"))
		return
	}

	writeJSON(w, http.StatusOK, sess.Saved)
}
