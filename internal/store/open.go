package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the repository selected by backend.
func Open(backend, dataDir, dbPath string) (Repository, error) {
	switch backend {
	case BackendJSON, "":
		return NewFileStore(dataDir)
	case BackendSQLite:
		return NewSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
