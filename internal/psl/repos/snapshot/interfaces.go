package snapshot

import "errors"

// ErrNotFound is returned by Load when no snapshot exists for a source.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the raw text of a list as last fetched from a source.
type Snapshot struct {
	Source      string   // source name the lines were fetched from
	Lines       []string // raw lines, unfiltered
	Version     uint64   // incremented on every Save for the same source
	UpdatedUnix int64    // seconds since epoch
}

// StoreStats captures high-level counts for the persistent store.
type StoreStats struct {
	Sources    int    // number of sources with a snapshot
	TotalLines uint64 // lines across all snapshots
}

// Store persists the last successfully fetched list per source, so a resolver
// can start when the source is unreachable.
// Save assigns the next version for the source and ignores s.Version.
type Store interface {
	Save(s Snapshot) (Snapshot, error)
	Load(source string) (Snapshot, error)
	Stats() StoreStats
	Close() error
}
