package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Venue is a persisted restaurant/bar record with its happy-hour schedule.
// The backing store only carries weekday flags; weekend availability from
// extraction is dropped at the persistence boundary.
type Venue struct {
	ID              string     `json:"id"`
	RestaurantName  string     `json:"restaurant_name"`
	DealDescription string     `json:"deal_description"`
	Monday          bool       `json:"monday"`
	Tuesday         bool       `json:"tuesday"`
	Wednesday       bool       `json:"wednesday"`
	Thursday        bool       `json:"thursday"`
	Friday          bool       `json:"friday"`
	Neighborhood    string     `json:"neighborhood"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	RestaurantURL   *string    `json:"restaurant_url,omitempty"`
	MapsURL         *string    `json:"maps_url,omitempty"`
	LastUpdated     time.Time  `json:"last_updated"`
}

// Validate checks the minimal invariant for a persistable venue.
func (v Venue) Validate() error {
	if v.RestaurantName == "" {
		return eris.New("venue: restaurant_name is required")
	}
	if v.DealDescription == "" {
		return eris.New("venue: deal_description is required")
	}
	if (v.Latitude == nil) != (v.Longitude == nil) {
		return eris.New("venue: latitude and longitude must be set together")
	}
	return nil
}

// Schedule expands the five persisted weekday flags into a full week.
// Weekend flags are always false here since the store has no weekend columns.
func (v Venue) Schedule() DaySchedule {
	return DaySchedule{
		Monday:    v.Monday,
		Tuesday:   v.Tuesday,
		Wednesday: v.Wednesday,
		Thursday:  v.Thursday,
		Friday:    v.Friday,
	}
}

// Location is an optional geolocation hint forwarded into matching.
type Location struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Source string  `json:"source"`
}
