// Package scenario implements the snapshot/restore pipeline that resets the
// live dataset from a seed definition file.
package scenario

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kvasnier/c2-demo/internal/storage"
)

// Sentinel errors reported to callers before any destructive step runs.
var (
	// ErrSeedNotFound means the seed file is absent.
	ErrSeedNotFound = errors.New("seed file not found")
	// ErrSeedEmpty means the seed file parsed to zero insertable records.
	ErrSeedEmpty = errors.New("seed contains no insertion statements")
)

const (
	unitsStmtPrefix = "insert into units"
	poisStmtPrefix  = "insert into pois"
)

// ParseSeed reads the seed file and returns its recognized entity-insertion
// statements in file order. Blank lines and comment lines (-- or #) are
// skipped; only statements targeting the in-scope collections are kept, and
// each kept statement is normalized to end with its terminator.
func ParseSeed(path string, scope storage.Scope) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSeedNotFound, path)
		}
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	var statements []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "#") {
			continue
		}
		if !recognized(line, scope) {
			continue
		}
		if !strings.HasSuffix(line, ";") {
			line += ";"
		}
		statements = append(statements, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSeedEmpty, path)
	}
	return statements, nil
}

func recognized(line string, scope storage.Scope) bool {
	lowered := strings.ToLower(line)
	if strings.HasPrefix(lowered, unitsStmtPrefix) {
		return true
	}
	return scope.IncludesPOIs() && strings.HasPrefix(lowered, poisStmtPrefix)
}
