package extract

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping. Models frequently fence their
// output despite instructions, so this runs before every decode.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// wireDeal is the raw response shape. Days decode onto a fixed struct so
// any key the model omits (or nulls) lands as false, never absent.
// matched_venue_id arrives as a string, a number, or null depending on the
// model's mood, so it is decoded leniently.
type wireDeal struct {
	RestaurantName  string            `json:"restaurant_name"`
	DealDescription string            `json:"deal_description"`
	Days            model.DaySchedule `json:"days"`
	Confidence      float64           `json:"confidence"`
	GooglePlace     model.PlaceHint   `json:"google_place"`
	MatchedVenueID  json.RawMessage   `json:"matched_venue_id"`
}

// parseDeal fence-strips and decodes a model response into an
// ExtractedDeal. A response that is not valid JSON after stripping is a
// hard error.
func parseDeal(text string) (*model.ExtractedDeal, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("extract: empty response")
	}

	var wire wireDeal
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, eris.Wrap(err, "extract: decode response")
	}

	return &model.ExtractedDeal{
		RestaurantName:  strings.TrimSpace(wire.RestaurantName),
		DealDescription: strings.TrimSpace(wire.DealDescription),
		Days:            wire.Days,
		Confidence:      model.ClampConfidence(wire.Confidence),
		GooglePlace:     wire.GooglePlace,
		MatchedVenueID:  parseVenueID(wire.MatchedVenueID),
	}, nil
}

// parseVenueID normalizes a lenient matched_venue_id value to an opaque
// string id, or nil for null/absent/empty.
func parseVenueID(raw json.RawMessage) *string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if asString == "" {
			return nil
		}
		return &asString
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		id := asNumber.String()
		return &id
	}

	return nil
}
