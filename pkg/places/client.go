// Package places provides a thin Google Places text-search client used to
// enrich venue records with coordinates, canonical links and a neighborhood.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// Client performs Google Places API operations.
type Client interface {
	// FindPlace runs a text search and returns the top result, or nil when
	// the query matched nothing.
	FindPlace(ctx context.Context, query string) (*Place, error)
}

// Place is the subset of a Places result the directory cares about.
type Place struct {
	Name         string
	Address      string
	Neighborhood string
	Latitude     float64
	Longitude    float64
	Website      string
	MapsURL      string
	Rating       float64
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for Places calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery string `json:"textQuery"`
}

type textSearchResponse struct {
	Places []placeResult `json:"places"`
}

type placeResult struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string  `json:"formattedAddress"`
	Rating           float64 `json:"rating"`
	WebsiteURI       string  `json:"websiteUri"`
	GoogleMapsURI    string  `json:"googleMapsUri"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	AddressComponents []addressComponent `json:"addressComponents"`
}

type addressComponent struct {
	LongText string   `json:"longText"`
	Types    []string `json:"types"`
}

func (c *httpClient) FindPlace(ctx context.Context, query string) (*Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	body, err := json.Marshal(textSearchRequest{TextQuery: query})
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask",
		"places.displayName,places.formattedAddress,places.rating,places.websiteUri,places.googleMapsUri,places.location,places.addressComponents")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result textSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	if len(result.Places) == 0 {
		return nil, nil
	}

	top := result.Places[0]
	return &Place{
		Name:         top.DisplayName.Text,
		Address:      top.FormattedAddress,
		Neighborhood: neighborhoodFrom(top.AddressComponents),
		Latitude:     top.Location.Latitude,
		Longitude:    top.Location.Longitude,
		Website:      top.WebsiteURI,
		MapsURL:      top.GoogleMapsURI,
		Rating:       top.Rating,
	}, nil
}

// neighborhoodFrom picks a neighborhood label from address components,
// preferring an explicit "neighborhood" component over a sublocality.
func neighborhoodFrom(components []addressComponent) string {
	var sublocality string
	for _, comp := range components {
		for _, t := range comp.Types {
			switch t {
			case "neighborhood":
				return comp.LongText
			case "sublocality", "sublocality_level_1":
				if sublocality == "" {
					sublocality = comp.LongText
				}
			}
		}
	}
	return sublocality
}
