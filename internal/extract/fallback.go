package extract

import (
	"strings"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// FallbackDraft builds a rough editable draft from the raw input when the
// model cannot be reached or returns garbage. The operator's own text is
// carried verbatim so nothing they typed is lost, weekdays are assumed
// active, and the 0.5 confidence flags the record as unverified.
func FallbackDraft(in Input) *model.ExtractedDeal {
	name := strings.TrimSpace(in.RestaurantName)
	if name == "" {
		name = "Unknown Restaurant"
	}
	desc := strings.TrimSpace(in.Text)
	if desc == "" {
		desc = "Happy hour deal"
	}

	return &model.ExtractedDeal{
		RestaurantName:  name,
		DealDescription: desc,
		Days: model.DaySchedule{
			Monday:    true,
			Tuesday:   true,
			Wednesday: true,
			Thursday:  true,
			Friday:    true,
		},
		Confidence:  0.5,
		GooglePlace: model.PlaceHint{Name: name},
	}
}
