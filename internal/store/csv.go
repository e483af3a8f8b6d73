package store

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// CSVSource reads the venue list from a published-spreadsheet CSV export.
// It is read-only and intentionally forgiving: the export is maintained by
// hand and columns come and go.
type CSVSource struct {
	url    string
	client *http.Client
}

// NewCSVSource creates a read-only venue source from an export URL.
func NewCSVSource(url string) *CSVSource {
	return &CSVSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *CSVSource) ListVenues(ctx context.Context) ([]model.Venue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "csv: build request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "csv: fetch export")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("csv: fetch export: status %d", resp.StatusCode)
	}

	venues, err := ParseVenueCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	// The SQL stores order by neighborhood then name; the fallback list
	// keeps the same contract regardless of spreadsheet row order.
	sort.Slice(venues, func(i, j int) bool {
		if venues[i].Neighborhood != venues[j].Neighborhood {
			return venues[i].Neighborhood < venues[j].Neighborhood
		}
		return venues[i].RestaurantName < venues[j].RestaurantName
	})
	return venues, nil
}

// ParseVenueCSV reads venue rows from CSV with a header line. Column
// order is free; unknown columns are ignored. Shared by the export
// fallback and the seed import command.
func ParseVenueCSV(src io.Reader) ([]model.Venue, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			// io.EOF included; a ragged trailing row should not sink the
			// whole fallback list.
			break
		}
		records = append(records, rec)
	}
	return VenuesFromRecords(header, records), nil
}

// VenuesFromRecords maps header-addressed string records onto venues.
// Rows without a restaurant name are skipped.
func VenuesFromRecords(header []string, records [][]string) []model.Venue {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var venues []model.Venue
	for _, rec := range records {
		v := model.Venue{
			ID:              field(rec, "id"),
			RestaurantName:  field(rec, "restaurant_name"),
			DealDescription: field(rec, "deal_description"),
			Monday:          parseCSVBool(field(rec, "monday")),
			Tuesday:         parseCSVBool(field(rec, "tuesday")),
			Wednesday:       parseCSVBool(field(rec, "wednesday")),
			Thursday:        parseCSVBool(field(rec, "thursday")),
			Friday:          parseCSVBool(field(rec, "friday")),
			Neighborhood:    field(rec, "neighborhood"),
		}
		if v.RestaurantName == "" {
			continue
		}

		if lat, err := strconv.ParseFloat(field(rec, "latitude"), 64); err == nil {
			if lng, err := strconv.ParseFloat(field(rec, "longitude"), 64); err == nil {
				v.Latitude = &lat
				v.Longitude = &lng
			}
		}
		if u := field(rec, "restaurant_url"); u != "" {
			v.RestaurantURL = &u
		}
		if u := field(rec, "maps_url"); u != "" {
			v.MapsURL = &u
		}
		if ts, err := time.Parse(time.RFC3339, field(rec, "last_updated")); err == nil {
			v.LastUpdated = ts
		}

		venues = append(venues, v)
	}
	return venues
}

func parseCSVBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
