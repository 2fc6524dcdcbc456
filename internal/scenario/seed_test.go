package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvasnier/c2-demo/internal/storage"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.sql")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseSeed(t *testing.T) {
	seed := `-- scenario baseline
# alt comment style

INSERT INTO units (id, name) VALUES ('a', 'ALPHA');
insert into units (id, name) VALUES ('b', 'BRAVO')
  INSERT INTO UNITS (id, name) VALUES ('c', 'CHARLIE');
INSERT INTO pois (id, label) VALUES ('p', 'BRIDGE');
SELECT * FROM units;
DROP TABLE units;
`
	path := writeSeed(t, seed)
	stmts, err := ParseSeed(path, storage.ScopeUnits)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %v", len(stmts), stmts)
	}
	// file order preserved
	wantIDs := []string{"'a'", "'b'", "'c'"}
	for i, want := range wantIDs {
		if !strings.Contains(stmts[i], want) {
			t.Errorf("statement %d: %s missing %s", i, stmts[i], want)
		}
	}
	// missing terminator normalized
	for i, s := range stmts {
		if !strings.HasSuffix(s, ";") {
			t.Errorf("statement %d lacks terminator: %s", i, s)
		}
	}
}

func TestParseSeed_POIScope(t *testing.T) {
	seed := `INSERT INTO units (id) VALUES ('a');
INSERT INTO pois (id) VALUES ('p');
`
	path := writeSeed(t, seed)

	stmts, err := ParseSeed(path, storage.ScopeUnitsAndPOIs)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 2 {
		t.Errorf("units_and_pois scope: expected 2 statements, got %d", len(stmts))
	}

	stmts, err = ParseSeed(path, storage.ScopeUnits)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Errorf("units scope: expected 1 statement, got %d", len(stmts))
	}
}

func TestParseSeed_NotFound(t *testing.T) {
	_, err := ParseSeed(filepath.Join(t.TempDir(), "missing.sql"), storage.ScopeUnits)
	if !errors.Is(err, ErrSeedNotFound) {
		t.Errorf("expected ErrSeedNotFound, got %v", err)
	}
}

func TestParseSeed_Empty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"blank file", "\n\n\n"},
		{"comments only", "-- nothing here\n# still nothing\n"},
		{"no recognized statements", "SELECT 1;\nDELETE FROM units;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeed(t, tt.content)
			_, err := ParseSeed(path, storage.ScopeUnits)
			if !errors.Is(err, ErrSeedEmpty) {
				t.Errorf("expected ErrSeedEmpty, got %v", err)
			}
		})
	}
}
