package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
)

type factory struct {
	sizer lookup.BloomSizer
}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() lookup.BloomFactory { return factory{sizer: NewSizer()} }

func (f factory) New(capacity uint64, fpRate float64) lookup.BloomFilter {
	m, k := f.sizer.Size(capacity, fpRate)
	return &labelFilter{bf: bitsbloom.New(uint(m), uint(k))}
}
