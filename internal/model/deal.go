package model

// DaySchedule is a full-week availability map. All seven keys are always
// present on the wire; days the model omits decode to false.
type DaySchedule struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// Weekdays reports whether any of the Monday–Friday flags is set.
func (d DaySchedule) Weekdays() bool {
	return d.Monday || d.Tuesday || d.Wednesday || d.Thursday || d.Friday
}

// PlaceHint is the model's best-effort guess at the physical place,
// used to seed the Places lookup during persistence.
type PlaceHint struct {
	Name         string   `json:"name"`
	Neighborhood string   `json:"neighborhood"`
	Address      string   `json:"address"`
	Rating       *float64 `json:"rating"`
}

// ExtractedDeal is the AI-derived structured guess at a venue's happy-hour
// details. It is transient: created by extraction, mutated by refinement
// and operator edits, consumed by persistence, never stored itself.
type ExtractedDeal struct {
	RestaurantName  string      `json:"restaurant_name"`
	DealDescription string      `json:"deal_description"`
	Days            DaySchedule `json:"days"`
	Confidence      float64     `json:"confidence"`
	GooglePlace     PlaceHint   `json:"google_place"`

	// MatchedVenueID is set when the model (or the operator) identified the
	// deal as belonging to an existing venue. Nil means new restaurant.
	MatchedVenueID *string `json:"matched_venue_id,omitempty"`
}

// MatchCandidate pairs an extracted deal with the store venue it most
// likely refers to. Venue is nil for a new restaurant.
type MatchCandidate struct {
	Deal  ExtractedDeal
	Venue *Venue
}

// ClampConfidence bounds a model-reported confidence to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ConfidenceCap is the ceiling applied to feedback-driven confidence bumps.
const ConfidenceCap = 0.99

// BumpConfidence raises c by delta, capped at ConfidenceCap. Human feedback
// must increase trust monotonically regardless of what the model reports.
func BumpConfidence(c, delta float64) float64 {
	bumped := c + delta
	if bumped > ConfidenceCap {
		return ConfidenceCap
	}
	return bumped
}
