package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/identity"
	"github.com/peachtree-labs/happyhour/internal/model"
	"github.com/peachtree-labs/happyhour/internal/persist"
	"github.com/peachtree-labs/happyhour/internal/session"
	"github.com/peachtree-labs/happyhour/internal/store"
)

type fakeExtractor struct {
	deal      *model.ExtractedDeal
	err       error
	refineErr error
}

func (f *fakeExtractor) Extract(context.Context, extract.Input) (*model.ExtractedDeal, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := *f.deal
	return &d, nil
}

func (f *fakeExtractor) Refine(_ context.Context, current model.ExtractedDeal, _ string) (*model.ExtractedDeal, error) {
	if f.refineErr != nil {
		return nil, f.refineErr
	}
	d := current
	d.Confidence = model.BumpConfidence(d.Confidence, 0.1)
	return &d, nil
}

type fakeVenues struct {
	venues []model.Venue
	err    error
}

func (f *fakeVenues) ListVenues(context.Context) ([]model.Venue, error) {
	return f.venues, f.err
}

type fakeSaver struct {
	saved *model.Venue
	err   error
}

func (f *fakeSaver) Save(_ context.Context, deal model.ExtractedDeal, matchedID *string) (*model.Venue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.saved, nil
}

type fakeProvider struct{}

func (fakeProvider) GetUser(_ context.Context, token string) (*identity.User, error) {
	if token != "valid-token" {
		return nil, identity.ErrUnauthorized
	}
	return &identity.User{ID: "u1", Role: "member"}, nil
}

func newTestServer(t *testing.T, extractor *fakeExtractor, venues *fakeVenues, saver *fakeSaver) *httptest.Server {
	t.Helper()
	controller := session.NewController(extractor, venues, saver)
	srv := httptest.NewServer(New(controller, venues, fakeProvider{}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func authedPost(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer valid-token")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, &fakeSaver{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListVenuesPublicExport(t *testing.T) {
	venues := &fakeVenues{venues: []model.Venue{
		{
			ID: "v1", RestaurantName: "The Porter", DealDescription: "half-off drafts",
			Monday: true, Friday: true, Neighborhood: "Little Five Points",
			LastUpdated: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		},
	}}
	srv := newTestServer(t, &fakeExtractor{}, venues, &fakeSaver{})

	resp, err := http.Get(srv.URL + "/api/venues")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)

	days := out[0]["days"].(map[string]any)
	assert.Equal(t, true, days["monday"])
	assert.Equal(t, false, days["saturday"])
	assert.Equal(t, false, days["sunday"])
	assert.Equal(t, "2026-05-01T12:00:00Z", out[0]["last_updated"])
}

func TestListVenuesFilter(t *testing.T) {
	venues := &fakeVenues{venues: []model.Venue{
		{ID: "v1", RestaurantName: "The Porter", Neighborhood: "Little Five Points"},
		{ID: "v2", RestaurantName: "Ladybird", Neighborhood: "Old Fourth Ward"},
	}}
	srv := newTestServer(t, &fakeExtractor{}, venues, &fakeSaver{})

	resp, err := http.Get(srv.URL + "/api/venues?q=ladybird")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.Equal(t, "v2", out[0]["id"])
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, &fakeSaver{})

	resp, err := http.Post(srv.URL+"/api/extract-deal", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExtractDeal(t *testing.T) {
	extractor := &fakeExtractor{deal: &model.ExtractedDeal{
		RestaurantName: "Ladybird",
		Confidence:     0.9,
	}}
	venues := &fakeVenues{venues: []model.Venue{
		{ID: "v1", RestaurantName: "Ladybird Grove & Mess Hall"},
	}}
	srv := newTestServer(t, extractor, venues, &fakeSaver{})

	resp := authedPost(t, srv.URL+"/api/extract-deal",
		`{"textInput": "$5 beers", "restaurantName": "Ladybird"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out extractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Deal)
	assert.Equal(t, "Ladybird", out.Deal.RestaurantName)
	require.NotNil(t, out.Match)
	assert.Equal(t, "v1", out.Match.ID)
	assert.Empty(t, out.Warning)
}

func TestExtractDealEmptyInput(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, &fakeSaver{})

	resp := authedPost(t, srv.URL+"/api/extract-deal", `{"textInput": "  "}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "no text or images supplied", out["error"])
}

func TestExtractDealFallbackWarning(t *testing.T) {
	extractor := &fakeExtractor{err: eris.Wrap(extract.ErrExtractionFailed, "model down")}
	srv := newTestServer(t, extractor, &fakeVenues{}, &fakeSaver{})

	resp := authedPost(t, srv.URL+"/api/extract-deal",
		`{"textInput": "$2 tacos", "restaurantName": "Taqueria"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out extractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "extraction failed, rough draft substituted", out.Warning)
	require.NotNil(t, out.Deal)
	assert.InDelta(t, 0.5, out.Deal.Confidence, 1e-9)
}

func TestEnhanceDeal(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, &fakeSaver{})

	resp := authedPost(t, srv.URL+"/api/enhance-deal",
		`{"extractedData": {"restaurant_name": "X", "confidence": 0.7}, "feedback": "fix days"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.ExtractedDeal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)
}

func TestEnhanceDealEmptyFeedback(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, &fakeSaver{})

	resp := authedPost(t, srv.URL+"/api/enhance-deal",
		`{"extractedData": {"restaurant_name": "X"}, "feedback": ""}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveVenue(t *testing.T) {
	saver := &fakeSaver{saved: &model.Venue{ID: "new-id", RestaurantName: "Test Bar"}}
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, saver)

	resp := authedPost(t, srv.URL+"/api/venues",
		`{"extractedData": {"restaurant_name": "Test Bar", "deal_description": "beers"}}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.Venue
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "new-id", out.ID)
}

func TestSaveVenueStoreFailure(t *testing.T) {
	saver := &fakeSaver{err: eris.Wrap(persist.ErrSaveFailed, "db down")}
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, saver)

	resp := authedPost(t, srv.URL+"/api/venues",
		`{"extractedData": {"restaurant_name": "Test Bar", "deal_description": "beers"}}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSaveVenueStaleMatchNotFound(t *testing.T) {
	// An admin may delete the matched venue between match and confirm; the
	// saver surfaces both sentinels and the handler must report 404, not a
	// generic store failure.
	saver := &fakeSaver{err: errors.Join(persist.ErrSaveFailed, store.ErrVenueNotFound)}
	srv := newTestServer(t, &fakeExtractor{}, &fakeVenues{}, saver)

	resp := authedPost(t, srv.URL+"/api/venues",
		`{"extractedData": {"restaurant_name": "Test Bar", "deal_description": "beers"}, "matchedVenueId": "gone"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "matched venue no longer exists", out["error"])
}
