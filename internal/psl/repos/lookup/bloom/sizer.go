package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
)

// defaultFPRate replaces a target rate outside (0, 1).
const defaultFPRate = 0.01

// sizer delegates to bitsbloom.EstimateParameters after clamping its inputs:
// an empty label set is sized as one label and k never exceeds 255.
type sizer struct{}

// NewSizer returns a BloomSizer implementation.
func NewSizer() lookup.BloomSizer { return sizer{} }

func (sizer) Size(n uint64, p float64) (uint64, uint8) {
	n = max(n, 1)
	if p <= 0 || p >= 1 {
		p = defaultFPRate
	}
	m, k := bitsbloom.EstimateParameters(uint(n), p)
	return uint64(max(m, 1)), uint8(min(max(k, 1), 255))
}
