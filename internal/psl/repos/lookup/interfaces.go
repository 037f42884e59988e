package lookup

import "github.com/haukened/rr-psl/internal/psl/domain"

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is a probabilistic set of top-level labels. MightContain never
// returns false for an added label.
type BloomFilter interface {
	Add(label string)
	MightContain(label string) bool
}

// BloomFactory builds filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// ResultCache caches resolutions by normalized host name.
// Implementations must be safe for concurrent use.
type ResultCache interface {
	Get(host string) (domain.Resolution, bool)
	Put(host string, res domain.Resolution)
	Len() int
	Purge()
	Stats() CacheStats
}

// Repository is the composition layer that wires cache → bloom → rule set.
// Resolve answers from the current snapshot; Update swaps in a new rule set,
// rebuilds the Bloom filter and clears the cache.
type Repository interface {
	Resolve(host string) domain.Resolution
	Update(rules *domain.RuleSet)
	Rules() *domain.RuleSet
	RepoStats() RepoStats
}
