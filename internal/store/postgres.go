package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/peachtree-labs/happyhour/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by
// pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_venues":  listVenuesSQL,
	"get_venue":    getVenueSQL,
	"insert_venue": insertVenueSQL,
	"update_venue": updateVenueSQL,
}

const (
	venueColumns = `id, restaurant_name, deal_description, monday, tuesday, wednesday, thursday, friday,
	 neighborhood, latitude, longitude, restaurant_url, maps_url, last_updated`

	listVenuesSQL = `SELECT ` + venueColumns + ` FROM venues ORDER BY neighborhood ASC, restaurant_name ASC`

	getVenueSQL = `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`

	insertVenueSQL = `INSERT INTO venues (` + venueColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	updateVenueSQL = `UPDATE venues SET
	 restaurant_name = $2, deal_description = $3,
	 monday = $4, tuesday = $5, wednesday = $6, thursday = $7, friday = $8,
	 neighborhood = $9, latitude = $10, longitude = $11,
	 restaurant_url = $12, maps_url = $13, last_updated = $14
	 WHERE id = $1`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	restaurant_name  TEXT NOT NULL,
	deal_description TEXT NOT NULL,
	monday           BOOLEAN NOT NULL DEFAULT false,
	tuesday          BOOLEAN NOT NULL DEFAULT false,
	wednesday        BOOLEAN NOT NULL DEFAULT false,
	thursday         BOOLEAN NOT NULL DEFAULT false,
	friday           BOOLEAN NOT NULL DEFAULT false,
	neighborhood     TEXT NOT NULL DEFAULT '',
	latitude         DOUBLE PRECISION,
	longitude        DOUBLE PRECISION,
	restaurant_url   TEXT,
	maps_url         TEXT,
	last_updated     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_venues_neighborhood ON venues(neighborhood);
CREATE INDEX IF NOT EXISTS idx_venues_restaurant_name ON venues(restaurant_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := s.pool.Query(ctx, listVenuesSQL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "postgres: list venues iterate")
}

func (s *PostgresStore) GetVenue(ctx context.Context, id string) (*model.Venue, error) {
	v, err := scanVenue(s.pool.QueryRow(ctx, getVenueSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrVenueNotFound, "postgres: get venue %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get venue %s", id)
	}
	return v, nil
}

func (s *PostgresStore) InsertVenue(ctx context.Context, v model.Venue) (*model.Venue, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.LastUpdated = time.Now().UTC()

	_, err := s.pool.Exec(ctx, insertVenueSQL,
		v.ID, v.RestaurantName, v.DealDescription,
		v.Monday, v.Tuesday, v.Wednesday, v.Thursday, v.Friday,
		v.Neighborhood, v.Latitude, v.Longitude,
		v.RestaurantURL, v.MapsURL, v.LastUpdated,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert venue")
	}
	return &v, nil
}

func (s *PostgresStore) UpdateVenue(ctx context.Context, v model.Venue) (*model.Venue, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	v.LastUpdated = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, updateVenueSQL,
		v.ID, v.RestaurantName, v.DealDescription,
		v.Monday, v.Tuesday, v.Wednesday, v.Thursday, v.Friday,
		v.Neighborhood, v.Latitude, v.Longitude,
		v.RestaurantURL, v.MapsURL, v.LastUpdated,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update venue %s", v.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrVenueNotFound, "postgres: update venue %s", v.ID)
	}
	return &v, nil
}

// scannable covers pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanVenue(row scannable) (*model.Venue, error) {
	var v model.Venue
	err := row.Scan(
		&v.ID, &v.RestaurantName, &v.DealDescription,
		&v.Monday, &v.Tuesday, &v.Wednesday, &v.Thursday, &v.Friday,
		&v.Neighborhood, &v.Latitude, &v.Longitude,
		&v.RestaurantURL, &v.MapsURL, &v.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
