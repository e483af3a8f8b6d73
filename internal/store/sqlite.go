package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id               TEXT PRIMARY KEY,
	restaurant_name  TEXT NOT NULL,
	deal_description TEXT NOT NULL,
	monday           INTEGER NOT NULL DEFAULT 0,
	tuesday          INTEGER NOT NULL DEFAULT 0,
	wednesday        INTEGER NOT NULL DEFAULT 0,
	thursday         INTEGER NOT NULL DEFAULT 0,
	friday           INTEGER NOT NULL DEFAULT 0,
	neighborhood     TEXT NOT NULL DEFAULT '',
	latitude         REAL,
	longitude        REAL,
	restaurant_url   TEXT,
	maps_url         TEXT,
	last_updated     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_venues_neighborhood ON venues(neighborhood);
CREATE INDEX IF NOT EXISTS idx_venues_restaurant_name ON venues(restaurant_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteVenueColumns = `id, restaurant_name, deal_description, monday, tuesday, wednesday, thursday, friday,
 neighborhood, latitude, longitude, restaurant_url, maps_url, last_updated`

func (s *SQLiteStore) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteVenueColumns+` FROM venues ORDER BY neighborhood ASC, restaurant_name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "sqlite: list venues iterate")
}

func (s *SQLiteStore) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteVenueColumns+` FROM venues WHERE id = ?`,
		id,
	)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrVenueNotFound, "sqlite: get venue %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get venue %s", id)
	}
	return v, nil
}

func (s *SQLiteStore) InsertVenue(ctx context.Context, v model.Venue) (*model.Venue, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.LastUpdated = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO venues (`+sqliteVenueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.RestaurantName, v.DealDescription,
		v.Monday, v.Tuesday, v.Wednesday, v.Thursday, v.Friday,
		v.Neighborhood, v.Latitude, v.Longitude,
		v.RestaurantURL, v.MapsURL, v.LastUpdated,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert venue")
	}
	return &v, nil
}

func (s *SQLiteStore) UpdateVenue(ctx context.Context, v model.Venue) (*model.Venue, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.LastUpdated = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE venues SET
		 restaurant_name = ?, deal_description = ?,
		 monday = ?, tuesday = ?, wednesday = ?, thursday = ?, friday = ?,
		 neighborhood = ?, latitude = ?, longitude = ?,
		 restaurant_url = ?, maps_url = ?, last_updated = ?
		 WHERE id = ?`,
		v.RestaurantName, v.DealDescription,
		v.Monday, v.Tuesday, v.Wednesday, v.Thursday, v.Friday,
		v.Neighborhood, v.Latitude, v.Longitude,
		v.RestaurantURL, v.MapsURL, v.LastUpdated,
		v.ID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update venue %s", v.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, eris.Wrapf(ErrVenueNotFound, "sqlite: update venue %s", v.ID)
	}
	return &v, nil
}
