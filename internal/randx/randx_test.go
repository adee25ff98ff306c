package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceCycles(t *testing.T) {
	s := NewSequence(0.1, 0.9)
	got := []float64{s.Float64(), s.Float64(), s.Float64()}
	assert.Equal(t, []float64{0.1, 0.9, 0.1}, got)
	assert.Equal(t, 0.5, NewSequence().Float64())
}

func TestSeededIsDeterministic(t *testing.T) {
	a, b := Seeded(7), Seeded(7)
	for i := 0; i < 5; i++ {
		va := a.Float64()
		assert.Equal(t, va, b.Float64())
		assert.GreaterOrEqual(t, va, 0.0)
		assert.Less(t, va, 1.0)
	}
}

func TestDefaultInRange(t *testing.T) {
	v := Default().Float64()
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
	assert.Equal(t, 0.25, Constant(0.25).Float64())
}
