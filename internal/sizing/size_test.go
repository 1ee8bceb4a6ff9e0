package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddUint64(t *testing.T) {
	sum, ok := AddUint64(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	_, ok = AddUint64(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestMulUint64(t *testing.T) {
	p, ok := MulUint64(1<<20, 1<<20)
	assert.True(t, ok)
	assert.Equal(t, uint64(1<<40), p)

	p, ok = MulUint64(0, math.MaxUint64)
	assert.True(t, ok)
	assert.Zero(t, p)

	_, ok = MulUint64(math.MaxUint64, 2)
	assert.False(t, ok)
}

func TestSpan(t *testing.T) {
	tests := []struct {
		name      string
		off, n    uint64
		limit     int
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"inside", 2, 3, 10, 2, 5, true},
		{"exact end", 5, 5, 10, 5, 10, true},
		{"empty at end", 10, 0, 10, 10, 10, true},
		{"past end", 8, 3, 10, 0, 0, false},
		{"overflow", math.MaxUint64, 2, 10, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := Span(tt.off, tt.n, tt.limit)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
