package lookup

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    // configured capacity (0 for disabled cache)
	Size      int    // current number of entries
	Hits      uint64 // total cache hits since construction
	Misses    uint64 // total cache misses since construction
	Evictions uint64 // total evictions since construction
}

// RepoStats exposes repository-level counters and the cache stats.
type RepoStats struct {
	Rules          int    // rules in the current snapshot
	Version        uint64 // incremented on every Update
	UpdatedUnix    int64  // seconds since epoch of the last Update
	BloomEnabled   bool   // false when a wildcard root rule makes the filter useless
	BloomShortcuts uint64 // lookups answered by the default rule without a rule scan
	Cache          CacheStats
}
