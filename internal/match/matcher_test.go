package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peachtree-labs/happyhour/internal/model"
)

func TestMatchHonorsVenueID(t *testing.T) {
	venues := []model.Venue{
		{ID: "v1", RestaurantName: "The Porter"},
		{ID: "v2", RestaurantName: "Ladybird"},
	}
	id := "v2"
	got := Match(model.ExtractedDeal{RestaurantName: "totally unrelated", MatchedVenueID: &id}, venues, nil)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.ID)
}

func TestMatchStaleVenueIDFallsBackToScoring(t *testing.T) {
	venues := []model.Venue{
		{ID: "v1", RestaurantName: "Ladybird Grove & Mess Hall"},
	}
	id := "no-such-id"
	got := Match(model.ExtractedDeal{RestaurantName: "Ladybird", MatchedVenueID: &id}, venues, nil)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.ID)
}

func TestMatchFirstWordRuleWins(t *testing.T) {
	venues := []model.Venue{
		{ID: "grill", RestaurantName: "Joe's Tavern & Grill"},
		{ID: "diner", RestaurantName: "Joey's Diner"},
	}
	got := Match(model.ExtractedDeal{RestaurantName: "Joe's Tavern"}, venues, nil)
	require.NotNil(t, got)
	assert.Equal(t, "grill", got.ID)
}

func TestMatchNoCandidate(t *testing.T) {
	venues := []model.Venue{
		{ID: "v1", RestaurantName: "Ticonderoga Club"},
	}
	assert.Nil(t, Match(model.ExtractedDeal{RestaurantName: "Bar Margot"}, venues, nil))
	assert.Nil(t, Match(model.ExtractedDeal{RestaurantName: ""}, venues, nil))
	assert.Nil(t, Match(model.ExtractedDeal{RestaurantName: "Bar Margot"}, nil, nil))
}

func TestMatchCaseInsensitive(t *testing.T) {
	venues := []model.Venue{
		{ID: "v1", RestaurantName: "THE PORTER BEER BAR"},
	}
	got := Match(model.ExtractedDeal{RestaurantName: "the porter"}, venues, nil)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.ID)
}

func TestMatchTieBreaksOnRecency(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	venues := []model.Venue{
		{ID: "old", RestaurantName: "Victory Sandwich Bar", LastUpdated: older},
		{ID: "new", RestaurantName: "Victory Sandwich Bar", LastUpdated: newer},
	}
	got := Match(model.ExtractedDeal{RestaurantName: "Victory Sandwich Bar"}, venues, nil)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.ID)
}

func TestMatchProximityBreaksNameTie(t *testing.T) {
	lat1, lng1 := 33.7490, -84.3880 // downtown
	lat2, lng2 := 33.9526, -84.5499 // Marietta
	same := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	venues := []model.Venue{
		{ID: "far", RestaurantName: "Taco Mac", Latitude: &lat2, Longitude: &lng2, LastUpdated: same},
		{ID: "near", RestaurantName: "Taco Mac", Latitude: &lat1, Longitude: &lng1, LastUpdated: same},
	}
	loc := &model.Location{Lat: 33.7500, Lng: -84.3900, Source: "gps"}
	got := Match(model.ExtractedDeal{RestaurantName: "Taco Mac"}, venues, loc)
	require.NotNil(t, got)
	assert.Equal(t, "near", got.ID)
}

func TestProximityAloneNeverMatches(t *testing.T) {
	lat, lng := 33.7490, -84.3880
	venues := []model.Venue{
		{ID: "v1", RestaurantName: "Ticonderoga Club", Latitude: &lat, Longitude: &lng},
	}
	loc := &model.Location{Lat: 33.7490, Lng: -84.3880, Source: "gps"}
	assert.Nil(t, Match(model.ExtractedDeal{RestaurantName: "Bar Margot"}, venues, loc))
}
