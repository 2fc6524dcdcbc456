package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kvasnier/c2-demo/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		side TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		echelon TEXT NOT NULL,
		sidc TEXT NOT NULL DEFAULT '',
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_units_created_at ON units(created_at);
	CREATE INDEX IF NOT EXISTS idx_units_unit_type ON units(unit_type);

	CREATE TABLE IF NOT EXISTS pois (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		category TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pois_created_at ON pois(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// InsertUnit inserts a unit, stamping CreatedAt when unset.
func (s *SQLiteStorage) InsertUnit(ctx context.Context, u *models.Unit) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO units (id, name, side, unit_type, echelon, sidc, lat, lon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Side, u.UnitType, u.Echelon, u.SIDC, u.Lat, u.Lon, u.CreatedAt,
	)
	return err
}

// ListUnits returns all units ordered by descending creation time.
func (s *SQLiteStorage) ListUnits(ctx context.Context) ([]*models.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, side, unit_type, echelon, sidc, lat, lon, created_at
		 FROM units ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUnits(rows)
}

// NearestUnitsByType returns units of the given type ordered by ascending
// great-circle distance from (lat, lon), ties broken by descending creation
// time, capped at limit.
func (s *SQLiteStorage) NearestUnitsByType(ctx context.Context, unitType string, lat, lon float64, limit int) ([]*models.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, side, unit_type, echelon, sidc, lat, lon, created_at
		 FROM units WHERE unit_type = ?`, unitType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units, err := scanUnits(rows)
	if err != nil {
		return nil, err
	}
	return sortNearest(units, lat, lon, limit), nil
}

// CountUnits returns the total number of units.
func (s *SQLiteStorage) CountUnits(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&count)
	return count, err
}

// InsertPOI inserts a point of interest, stamping CreatedAt when unset.
func (s *SQLiteStorage) InsertPOI(ctx context.Context, p *models.POI) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pois (id, label, category, lat, lon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Label, p.Category, p.Lat, p.Lon, p.CreatedAt,
	)
	return err
}

// ListPOIs returns all POIs ordered by descending creation time.
func (s *SQLiteStorage) ListPOIs(ctx context.Context) ([]*models.POI, error) {
	rows, err := s.db.QueryContext(ctx,
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
// order inside one transaction. Readers never observe the empty state.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, scope Scope, statements []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM units`); err != nil {
		return fmt.Errorf("clearing units: %w", err)
	}
	if scope.IncludesPOIs() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pois`); err != nil {
			return fmt.Errorf("clearing pois: %w", err)
		}
	}
	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying statement %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func scanUnits(rows *sql.Rows) ([]*models.Unit, error) {
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
