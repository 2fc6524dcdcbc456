package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kvasnier/c2-demo/internal/models"
)

var _ Storage = (*PostgresStorage)(nil)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// PostgresStorage implements Storage using a pgx connection pool, for
// deployments where the store runs as a separate service.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to the database at dsn and initializes the
// schema. The initial ping is retried with a fixed backoff so the process
// tolerates a store that is still starting up; after the attempt budget is
// exhausted the last error is returned.
func NewPostgresStorage(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	var pingErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingErr = pool.Ping(ctx)
		if pingErr == nil {
			break
		}
		if logger != nil {
			logger.Warn("postgres not ready, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", connectAttempts),
				zap.Error(pingErr))
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres after %d attempts: %w", connectAttempts, pingErr)
	}

	s := &PostgresStorage{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		side TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		echelon TEXT NOT NULL,
		sidc TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_units_created_at ON units(created_at);
	CREATE INDEX IF NOT EXISTS idx_units_unit_type ON units(unit_type);

	CREATE TABLE IF NOT EXISTS pois (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		category TEXT NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// InsertUnit inserts a unit, stamping CreatedAt when unset.
func (s *PostgresStorage) InsertUnit(ctx context.Context, u *models.Unit) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO units (id, name, side, unit_type, echelon, sidc, lat, lon, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Side, u.UnitType, u.Echelon, u.SIDC, u.Lat, u.Lon, u.CreatedAt,
	)
	return err
}

// ListUnits returns all units ordered by descending creation time.
func (s *PostgresStorage) ListUnits(ctx context.Context) ([]*models.Unit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, side, unit_type, echelon, sidc, lat, lon, created_at
		 FROM units ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*models.Unit
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Side, &u.UnitType, &u.Echelon, &u.SIDC, &u.Lat, &u.Lon, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, &u)
	}
	return units, rows.Err()
}

// NearestUnitsByType returns units of the given type ordered by ascending
// great-circle distance from (lat, lon), ties broken by descending creation
// time, capped at limit.
func (s *PostgresStorage) NearestUnitsByType(ctx context.Context, unitType string, lat, lon float64, limit int) ([]*models.Unit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, side, unit_type, echelon, sidc, lat, lon, created_at
		 FROM units WHERE unit_type = $1`, unitType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*models.Unit
	for rows.Next() {
		var u models.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Side, &u.UnitType, &u.Echelon, &u.SIDC, &u.Lat, &u.Lon, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sortNearest(units, lat, lon, limit), nil
}

// CountUnits returns the total number of units.
func (s *PostgresStorage) CountUnits(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM units`).Scan(&count)
	return count, err
}

// InsertPOI inserts a point of interest, stamping CreatedAt when unset.
func (s *PostgresStorage) InsertPOI(ctx context.Context, p *models.POI) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pois (id, label, category, lat, lon, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Label, p.Category, p.Lat, p.Lon, p.CreatedAt,
	)
	return err
}

// ListPOIs returns all POIs ordered by descending creation time.
func (s *PostgresStorage) ListPOIs(ctx context.Context) ([]*models.POI, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, label, category, lat, lon, created_at
		 FROM pois ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pois []*models.POI
	for rows.Next() {
		var p models.POI
		if err := rows.Scan(&p.ID, &p.Label, &p.Category, &p.Lat, &p.Lon, &p.CreatedAt); err != nil {
			return nil, err
		}
		pois = append(pois, &p)
	}
	return pois, rows.Err()
}

// ReplaceAll deletes the in-scope collections and applies the statements in
// order inside one transaction.
func (s *PostgresStorage) ReplaceAll(ctx context.Context, scope Scope, statements []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM units`); err != nil {
		return fmt.Errorf("clearing units: %w", err)
	}
	if scope.IncludesPOIs() {
		if _, err := tx.Exec(ctx, `DELETE FROM pois`); err != nil {
			return fmt.Errorf("clearing pois: %w", err)
		}
	}
	for i, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying statement %d: %w", i+1, err)
		}
	}
	return tx.Commit(ctx)
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
