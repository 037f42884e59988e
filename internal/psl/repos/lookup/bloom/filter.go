package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// labelFilter records the top-level labels of a rule set. It is filled once
// by the repository and then only read; the lock keeps a filter usable if it
// is ever filled while serving lookups.
type labelFilter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *labelFilter) Add(label string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf.AddString(label)
}

func (f *labelFilter) MightContain(label string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(label)
}
