package sqlite

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const memoryPath = ":memory:"

// parseDSN turns a sqlite:// URL into the path (plus optional query) the
// driver expects. Relative paths are kept relative to the working directory
// and "~/" expands to the user's home directory.
func parseDSN(dsn string) (string, error) {
	rest, ok := strings.CutPrefix(dsn, "sqlite://")
	if !ok {
		return "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite://")
	}
	if rest == memoryPath {
		return memoryPath, nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	path, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("sqlite DSN has no database path")
	}

	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	case filepath.IsAbs(path), strings.HasPrefix(path, "./"):
	default:
		path = "./" + path
	}

	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}

// databaseDir reports the directory a file database lives in, or "" for
// in-memory databases.
func databaseDir(driverDSN string) string {
	if driverDSN == memoryPath {
		return ""
	}
	path, _, _ := strings.Cut(driverDSN, "?")
	return filepath.Dir(path)
}
