// Package persist turns a confirmed ExtractedDeal into a canonical venue
// row, enriching it with geocoded coordinates and canonical links when the
// places service is configured.
package persist

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/internal/store"
	"github.com/peachtree-labs/happyhour/pkg/places"
)

// ErrSaveFailed marks a persistence-layer failure. Geocoding problems are
// absorbed and never produce this error.
var ErrSaveFailed = eris.New("save failed")

// Saver persists confirmed deals. A nil places client disables enrichment.
type Saver struct {
	store  store.Store
	places places.Client
	region string
}

// NewSaver creates a Saver. region is the fixed qualifier appended to every
// places query, e.g. "Atlanta, GA".
func NewSaver(st store.Store, pl places.Client, region string) *Saver {
	return &Saver{store: st, places: pl, region: region}
}

// Save upserts the deal as a venue row. matchedID selects update-in-place
// of an existing venue; nil inserts a new one. The 7-day schedule is
// truncated to the store's weekday columns here and nowhere else.
func (s *Saver) Save(ctx context.Context, deal model.ExtractedDeal, matchedID *string) (*model.Venue, error) {
	v := model.Venue{
		RestaurantName:  deal.RestaurantName,
		DealDescription: deal.DealDescription,
		Monday:          deal.Days.Monday,
		Tuesday:         deal.Days.Tuesday,
		Wednesday:       deal.Days.Wednesday,
		Thursday:        deal.Days.Thursday,
		Friday:          deal.Days.Friday,
		Neighborhood:    deal.GooglePlace.Neighborhood,
	}

	s.enrich(ctx, &v)

	var saved *model.Venue
	var err error
	if matchedID != nil {
		v.ID = *matchedID
		saved, err = s.store.UpdateVenue(ctx, v)
	} else {
		v.ID = uuid.New().String()
		saved, err = s.store.InsertVenue(ctx, v)
	}
	if err != nil {
		// Keep the store error in the chain so callers can still tell a
		// vanished matched venue apart from a general store failure.
		return nil, eris.Wrap(errors.Join(ErrSaveFailed, err), "persist: save venue")
	}
	return saved, nil
}

// enrich fills coordinates, canonical links and the neighborhood from the
// places service. Any failure here is logged and absorbed; the save
// proceeds with whatever extraction supplied.
func (s *Saver) enrich(ctx context.Context, v *model.Venue) {
	if s.places == nil || v.RestaurantName == "" {
		return
	}

	query := v.RestaurantName
	if s.region != "" {
		query += ", " + s.region
	}

	place, err := s.places.FindPlace(ctx, query)
	if err != nil {
		zap.L().Warn("places lookup failed, saving without enrichment",
			zap.String("query", query), zap.Error(err))
		return
	}
	if place == nil {
		zap.L().Debug("places lookup found nothing", zap.String("query", query))
		return
	}

	if place.Latitude != 0 || place.Longitude != 0 {
		lat, lng := place.Latitude, place.Longitude
		v.Latitude = &lat
		v.Longitude = &lng
	}
	v.RestaurantURL = validateHTTPURL(place.Website)
	v.MapsURL = validateHTTPURL(place.MapsURL)
	if place.Neighborhood != "" {
		v.Neighborhood = place.Neighborhood
	}
}

// validateHTTPURL accepts only absolute http(s) URLs with a host. Anything
// else, including javascript: and data: schemes, normalizes to absent.
func validateHTTPURL(raw string) *string {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return &raw
}
