// Package match decides whether an extracted deal refers to a venue the
// directory already knows. The model-assisted path (matched_venue_id set
// during extraction) is authoritative when the id resolves; otherwise a
// deterministic name-similarity score picks at most one candidate.
package match

import (
	"strings"

	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/cases"

	"github.com/peachtree-labs/happyhour/internal/model"
)

const (
	// firstWordScore dominates every other signal so the first-word rule
	// can never be outvoted by token overlap or proximity alone.
	firstWordScore = 3.0
	tokenScore     = 1.0

	// proximityScore applies when the submitter stood within
	// proximityRadius degrees (~2km at Atlanta's latitude) of the venue.
	proximityScore  = 0.5
	proximityRadius = 0.02
)

// fold case-folds a name for comparison. Casers are stateful, so a fresh
// one per call keeps Match safe under concurrent sessions.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Match resolves an extracted deal to at most one known venue. A venue id
// carried on the deal wins outright when it resolves; otherwise every
// candidate is scored and the maximum wins, ties broken by most recent
// update. Returns nil when nothing scores, meaning a new restaurant.
func Match(deal model.ExtractedDeal, venues []model.Venue, loc *model.Location) *model.Venue {
	if deal.MatchedVenueID != nil {
		for i := range venues {
			if venues[i].ID == *deal.MatchedVenueID {
				return &venues[i]
			}
		}
		// Stale or hallucinated id; fall through to scoring.
	}

	name := fold(strings.TrimSpace(deal.RestaurantName))
	if name == "" {
		return nil
	}

	var best *model.Venue
	var bestScore float64
	for i := range venues {
		score := scoreCandidate(name, &venues[i], loc)
		if score <= 0 {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && venues[i].LastUpdated.After(best.LastUpdated)) {
			best = &venues[i]
			bestScore = score
		}
	}
	return best
}

// scoreCandidate compares the folded extracted name against one venue.
// Proximity only ever reinforces a name signal, it cannot create a match
// on its own.
func scoreCandidate(name string, venue *model.Venue, loc *model.Location) float64 {
	candidate := fold(strings.TrimSpace(venue.RestaurantName))
	if candidate == "" {
		return 0
	}

	var score float64
	aTokens := strings.Fields(name)
	bTokens := strings.Fields(candidate)

	if len(aTokens) > 0 && len(bTokens) > 0 &&
		(strings.Contains(bTokens[0], aTokens[0]) || strings.Contains(aTokens[0], bTokens[0])) {
		score += firstWordScore
	}

	for _, a := range aTokens {
		if len(a) <= 2 {
			continue
		}
		for _, b := range bTokens {
			if len(b) <= 2 {
				continue
			}
			if strings.Contains(a, b) || strings.Contains(b, a) {
				score += tokenScore
			}
		}
	}

	if score > 0 && loc != nil && venue.Latitude != nil && venue.Longitude != nil {
		d := xy.Distance(
			[]float64{loc.Lng, loc.Lat},
			[]float64{*venue.Longitude, *venue.Latitude},
		)
		if d <= proximityRadius {
			score += proximityScore
		}
	}

	return score
}
