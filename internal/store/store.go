// Package store persists the venue directory. Postgres is the primary
// backend, SQLite serves single-box deployments, and a published CSV
// export acts as a read-only fallback when the database is unreachable.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// ErrVenueNotFound is returned by Get/Update when the id has no row.
var ErrVenueNotFound = eris.New("store: venue not found")

// Source is the read-only venue listing seam. The session layer only ever
// needs this slice of the full Store.
type Source interface {
	ListVenues(ctx context.Context) ([]model.Venue, error)
}

// Store defines the full persistence interface for the venue directory.
type Store interface {
	Source
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
	InsertVenue(ctx context.Context, v model.Venue) (*model.Venue, error)
	UpdateVenue(ctx context.Context, v model.Venue) (*model.Venue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// FallbackSource lists venues from the primary store and falls back to a
// secondary read-only source when the primary fails. Matching degrades to
// whatever the export last published, which beats matching against nothing.
type FallbackSource struct {
	Primary   Source
	Secondary Source
}

func (f *FallbackSource) ListVenues(ctx context.Context) ([]model.Venue, error) {
	venues, err := f.Primary.ListVenues(ctx)
	if err == nil {
		return venues, nil
	}
	if f.Secondary == nil {
		return nil, err
	}

	zap.L().Warn("primary venue source failed, using fallback", zap.Error(err))
	venues, fbErr := f.Secondary.ListVenues(ctx)
	if fbErr != nil {
		return nil, eris.Wrap(err, "store: both venue sources failed")
	}
	return venues, nil
}
