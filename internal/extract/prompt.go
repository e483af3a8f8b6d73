package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// buildExtractionPrompt produces the text instruction appended after any
// image blocks. The output shape is fixed and the model is forbidden from
// producing anything but JSON; fences still appear in practice and are
// stripped downstream.
func buildExtractionPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("You extract happy hour information from text and images.\n\n")
	if len(in.Images) > 0 {
		b.WriteString("Analyze the provided images and the following information to extract restaurant happy hour details:\n\n")
	} else {
		b.WriteString("Analyze the following information to extract restaurant happy hour details:\n\n")
	}

	fmt.Fprintf(&b, "Restaurant Name: %q\n", in.RestaurantName)
	fmt.Fprintf(&b, "Deal Description: %q\n\n", in.Text)

	b.WriteString(`Return ONLY a JSON object with this exact structure:
{
  "restaurant_name": "extracted or provided restaurant name",
  "deal_description": "detailed happy hour description with times, prices, and items",
  "days": {
    "monday": true/false,
    "tuesday": true/false,
    "wednesday": true/false,
    "thursday": true/false,
    "friday": true/false,
    "saturday": true/false,
    "sunday": true/false
  },
  "confidence": 0.85,
  "google_place": {
    "name": "restaurant name for Google search",
    "neighborhood": "estimated Atlanta neighborhood",
    "address": "estimated address if mentioned",
    "rating": null
  }`)
	if len(in.Venues) > 0 {
		b.WriteString(`,
  "matched_venue_id": "id of the matching known venue, or null"`)
	}
	b.WriteString("\n}\n\n")

	b.WriteString(`Focus on:
- Accurate times (like "4-6 PM" or "Monday-Friday 5-7 PM")
- Specific prices and items
- Which days the deal applies to
- Any restrictions or conditions
`)
	if len(in.Venues) > 0 {
		b.WriteString(`
The system prompt lists the known venues. Set "matched_venue_id" to an
existing id ONLY when you are confident this is the same physical
restaurant, not merely a similar name. Otherwise set it to null.
`)
	}
	b.WriteString("\nDO NOT OUTPUT ANYTHING OTHER THAN VALID JSON.")

	return b.String()
}

// venueDirectory serializes the known venue list (and the operator's
// location, when available) for the model-assisted matching path.
func venueDirectory(venues []model.Venue, loc *model.Location) string {
	var b strings.Builder
	b.WriteString("Known venues in the directory, one JSON object per line:\n")

	for _, v := range venues {
		entry := map[string]any{
			"id":           v.ID,
			"name":         v.RestaurantName,
			"neighborhood": v.Neighborhood,
		}
		if v.Latitude != nil && v.Longitude != nil {
			entry["lat"] = *v.Latitude
			entry["lng"] = *v.Longitude
		}
		line, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}

	if loc != nil {
		fmt.Fprintf(&b, "\nThe submitter is at lat %.5f, lng %.5f (source: %s).\n", loc.Lat, loc.Lng, loc.Source)
	}
	return b.String()
}

// buildRefinementPrompt embeds the full current record plus the operator's
// feedback and demands a complete replacement object, never a diff.
func buildRefinementPrompt(current model.ExtractedDeal, feedback string) (string, error) {
	currentJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Given this extracted restaurant data:
%s

And this user feedback: %q

Please update and improve the data based on the feedback. Return ONLY the updated JSON with the same structure, incorporating the user's corrections and suggestions.

DO NOT OUTPUT ANYTHING OTHER THAN VALID JSON.`, currentJSON, feedback), nil
}
