package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kvasnier/c2-demo/internal/models"
)

// stmtTimeLayout is a timestamp literal both store dialects parse back losslessly.
const stmtTimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// backupNameLayout names snapshot files by capture time. Nanosecond
// precision keeps back-to-back restores from colliding on the same name.
const backupNameLayout = "20060102-150405.000000000"

// UnitStatement serializes a unit as an insertion statement reproducing its
// exact state: id, display and classification fields, lossless geometry, and
// the original creation timestamp.
func UnitStatement(u *models.Unit) string {
	return fmt.Sprintf(
		"INSERT INTO units (id, name, side, unit_type, echelon, sidc, lat, lon, created_at) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s);",
		quote(u.ID), quote(u.Name), quote(u.Side), quote(u.UnitType), quote(u.Echelon), quote(u.SIDC),
		formatFloat(u.Lat), formatFloat(u.Lon), quote(u.CreatedAt.UTC().Format(stmtTimeLayout)),
	)
}

// POIStatement serializes a POI as an insertion statement.
func POIStatement(p *models.POI) string {
	return fmt.Sprintf(
		"INSERT INTO pois (id, label, category, lat, lon, created_at) VALUES (%s, %s, %s, %s, %s, %s);",
		quote(p.ID), quote(p.Label), quote(p.Category),
		formatFloat(p.Lat), formatFloat(p.Lon), quote(p.CreatedAt.UTC().Format(stmtTimeLayout)),
	)
}

// WriteSnapshot writes the statements to a timestamp-named file in dir and
// syncs it to disk before returning. The file is write-once: it records the
// live dataset immediately before a restore and is the rollback path if the
// restore fails midway.
func WriteSnapshot(dir string, statements []string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("units-backup-%s.sql", now.UTC().Format(backupNameLayout)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	defer f.Close()

	for _, stmt := range statements {
		if _, err := f.WriteString(stmt + "\n"); err != nil {
			return "", fmt.Errorf("writing backup file: %w", err)
		}
	}
	// The snapshot must be durable before any destructive step runs.
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing backup file: %w", err)
	}
	return path, nil
}

// formatFloat encodes a coordinate with the shortest representation that
// round-trips exactly.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
