package bloom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizer_Size(t *testing.T) {
	s := NewSizer()

	// roughly the number of distinct top-level labels in the public list
	m, k := s.Size(1_500, 0.01)
	assert.InDelta(t, 14_400, float64(m), 500)
	assert.Equal(t, uint8(7), k)

	// a looser target needs fewer bits per label
	mLoose, _ := s.Size(1_500, 0.1)
	assert.Less(t, mLoose, m)
}

func TestSizer_ClampsInputs(t *testing.T) {
	s := NewSizer()
	tests := []struct {
		name string
		n    uint64
		p    float64
	}{
		{"zero capacity", 0, 0.01},
		{"zero rate", 100, 0},
		{"negative rate", 100, -1},
		{"rate of one", 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, k := s.Size(tt.n, tt.p)
			assert.GreaterOrEqual(t, m, uint64(1))
			assert.GreaterOrEqual(t, k, uint8(1))
		})
	}

	// invalid rates fall back to the default
	mDef, kDef := s.Size(100, defaultFPRate)
	m, k := s.Size(100, 0)
	assert.Equal(t, mDef, m)
	assert.Equal(t, kDef, k)
}
