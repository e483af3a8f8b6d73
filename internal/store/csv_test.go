package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `id,restaurant_name,deal_description,monday,tuesday,wednesday,thursday,friday,neighborhood,latitude,longitude,restaurant_url,maps_url,last_updated
v1,The Porter,half-off drafts,TRUE,true,1,false,FALSE,Little Five Points,33.7647,-84.3493,https://theporterbeerbar.com,,2026-05-01T12:00:00Z
v2,Ladybird,$5 beers,,,,,yes,Old Fourth Ward,,,,,
,,,,,,,,,,,,,
`

func TestCSVSource_ListVenues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleExport))
	}))
	t.Cleanup(srv.Close)

	venues, err := NewCSVSource(srv.URL).ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 2)

	porter := venues[0]
	assert.Equal(t, "v1", porter.ID)
	assert.Equal(t, "The Porter", porter.RestaurantName)
	assert.True(t, porter.Monday)
	assert.True(t, porter.Tuesday)
	assert.True(t, porter.Wednesday)
	assert.False(t, porter.Thursday)
	assert.False(t, porter.Friday)
	require.NotNil(t, porter.Latitude)
	assert.InDelta(t, 33.7647, *porter.Latitude, 1e-9)
	require.NotNil(t, porter.RestaurantURL)
	assert.Nil(t, porter.MapsURL)
	assert.Equal(t, 2026, porter.LastUpdated.Year())

	ladybird := venues[1]
	assert.True(t, ladybird.Friday)
	assert.Nil(t, ladybird.Latitude)
	assert.True(t, ladybird.LastUpdated.IsZero())
}

func TestCSVSource_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := NewCSVSource(srv.URL).ListVenues(context.Background())
	assert.Error(t, err)
}

func TestCSVSource_SortsByNeighborhood(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("restaurant_name,neighborhood\n" +
			"Taco Mac,Virginia-Highland\n" +
			"Ladybird,Old Fourth Ward\n" +
			"The Porter,Little Five Points\n" +
			"Joe's Tavern,Little Five Points\n"))
	}))
	t.Cleanup(srv.Close)

	venues, err := NewCSVSource(srv.URL).ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 4)
	assert.Equal(t, "Joe's Tavern", venues[0].RestaurantName)
	assert.Equal(t, "The Porter", venues[1].RestaurantName)
	assert.Equal(t, "Ladybird", venues[2].RestaurantName)
	assert.Equal(t, "Taco Mac", venues[3].RestaurantName)
}

func TestCSVSource_ReorderedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("restaurant_name,id,neighborhood\nThe Porter,v1,Little Five Points\n"))
	}))
	t.Cleanup(srv.Close)

	venues, err := NewCSVSource(srv.URL).ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "v1", venues[0].ID)
	assert.Equal(t, "The Porter", venues[0].RestaurantName)
	assert.Equal(t, "Little Five Points", venues[0].Neighborhood)
}
