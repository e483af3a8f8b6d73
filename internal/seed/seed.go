// Package seed loads venue lists from local files for bulk import. The
// directory started life as a hand-maintained spreadsheet, so the import
// path accepts the formats those exports come in.
package seed

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/internal/store"
)

// ReadFile loads venues from a .csv, .xlsx, .yaml or .yml file.
func ReadFile(path string) ([]model.Venue, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	case ".yaml", ".yml":
		return readYAML(path)
	default:
		return nil, eris.Errorf("seed: unsupported file type %q", filepath.Ext(path))
	}
}

func readCSV(path string) ([]model.Venue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "seed: open csv")
	}
	defer f.Close()
	return store.ParseVenueCSV(f)
}

func readXLSX(path string) ([]model.Venue, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "seed: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("seed: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])
	records := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		records = append(records, rowToStrings(row))
	}
	return store.VenuesFromRecords(header, records), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// yamlVenue mirrors model.Venue with snake_case yaml keys, the shape the
// checked-in seed files use.
type yamlVenue struct {
	ID              string   `yaml:"id"`
	RestaurantName  string   `yaml:"restaurant_name"`
	DealDescription string   `yaml:"deal_description"`
	Monday          bool     `yaml:"monday"`
	Tuesday         bool     `yaml:"tuesday"`
	Wednesday       bool     `yaml:"wednesday"`
	Thursday        bool     `yaml:"thursday"`
	Friday          bool     `yaml:"friday"`
	Neighborhood    string   `yaml:"neighborhood"`
	Latitude        *float64 `yaml:"latitude"`
	Longitude       *float64 `yaml:"longitude"`
	RestaurantURL   *string  `yaml:"restaurant_url"`
	MapsURL         *string  `yaml:"maps_url"`
}

func readYAML(path string) ([]model.Venue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "seed: read yaml")
	}

	var entries []yamlVenue
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrap(err, "seed: decode yaml")
	}

	venues := make([]model.Venue, 0, len(entries))
	for _, e := range entries {
		if e.RestaurantName == "" {
			continue
		}
		venues = append(venues, model.Venue{
			ID:              e.ID,
			RestaurantName:  e.RestaurantName,
			DealDescription: e.DealDescription,
			Monday:          e.Monday,
			Tuesday:         e.Tuesday,
			Wednesday:       e.Wednesday,
			Thursday:        e.Thursday,
			Friday:          e.Friday,
			Neighborhood:    e.Neighborhood,
			Latitude:        e.Latitude,
			Longitude:       e.Longitude,
			RestaurantURL:   e.RestaurantURL,
			MapsURL:         e.MapsURL,
		})
	}
	return venues, nil
}
