package lookup

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/haukened/rr-psl/internal/psl/common/clock"
	"github.com/haukened/rr-psl/internal/psl/domain"
)

// defaultRules is an empty rule set: resolving against it always applies the
// implicit default rule.
var defaultRules = &domain.RuleSet{}

// repository implements Repository over an immutable RuleSet snapshot.
// Reads run under the read lock so a concurrent Update never mixes snapshots
// with cache contents.
type repository struct {
	mu      sync.RWMutex
	rules   *domain.RuleSet
	bloom   BloomFilter
	cache   ResultCache
	factory BloomFactory
	fpRate  float64
	clock   clock.Clock

	version   uint64
	updated   int64
	shortcuts atomic.Uint64
}

// NewRepository constructs a Repository with no rules loaded; until Update is
// called every host resolves with the default rule.
// fpRate is the target false-positive rate for the Bloom filter when rebuilding.
func NewRepository(cache ResultCache, factory BloomFactory, fpRate float64, clk clock.Clock) Repository {
	return &repository{
		rules:   defaultRules,
		cache:   cache,
		factory: factory,
		fpRate:  fpRate,
		clock:   clk,
	}
}

// Resolve returns the resolution of host against the current snapshot.
// The returned Parents slice is owned by the caller.
func (r *repository) Resolve(host string) domain.Resolution {
	name, err := domain.Normalize(host)
	if err != nil {
		return defaultRules.Resolve(host)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// 1) checkCache, keyed by the normalized name
	if res, ok := r.cache.Get(name); ok {
		return cloneResolution(res)
	}
	// 2) checkBloom: no rule can match an unseen top-level label.
	// The rule set normalizes host itself; Normalize strips a single leading
	// dot, so passing name would strip a second one.
	var res domain.Resolution
	if r.checkBloom(name) {
		res = r.rules.Resolve(host)
	} else {
		r.shortcuts.Add(1)
		res = defaultRules.Resolve(host)
	}
	// 3) updateCache
	r.cache.Put(name, res)
	return cloneResolution(res)
}

// Update swaps in rules, rebuilds the Bloom filter over outermost rule labels
// and purges the cache.
func (r *repository) Update(rules *domain.RuleSet) {
	if rules == nil {
		rules = defaultRules
	}
	bf := r.buildBloom(rules)

	r.mu.Lock()
	r.rules = rules
	r.bloom = bf
	r.cache.Purge()
	r.version++
	r.updated = r.clock.Now().Unix()
	r.mu.Unlock()
}

// Rules returns the current snapshot. It must be treated as read-only.
func (r *repository) Rules() *domain.RuleSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules
}

func (r *repository) RepoStats() RepoStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RepoStats{
		Rules:          r.rules.Len(),
		Version:        r.version,
		UpdatedUnix:    r.updated,
		BloomEnabled:   r.bloom != nil,
		BloomShortcuts: r.shortcuts.Load(),
		Cache:          r.cache.Stats(),
	}
}

// buildBloom returns nil when the filter cannot rule anything out: without a
// factory, or when a rule's outermost label is the wildcard.
func (r *repository) buildBloom(rules *domain.RuleSet) BloomFilter {
	if r.factory == nil || rules.HasWildcardRoot() {
		return nil
	}
	tops := make(map[string]struct{})
	for _, ru := range rules.Rules() {
		tops[ru.Labels()[0]] = struct{}{}
	}
	bf := r.factory.New(uint64(len(tops)), r.fpRate)
	for top := range tops {
		bf.Add(top)
	}
	return bf
}

// checkBloom returns true if the rule set must be consulted (maybe-positive),
// or false if no rule can match name. Without a filter it always returns true.
func (r *repository) checkBloom(name string) bool {
	if r.bloom == nil {
		return true
	}
	return r.bloom.MightContain(topLabel(name))
}

func topLabel(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func cloneResolution(res domain.Resolution) domain.Resolution {
	res.Parents = slices.Clone(res.Parents)
	return res
}
