package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateFraction(t *testing.T) {
	s := Evaluate(170000, 200000)

	assert.Equal(t, 170000, s.Used)
	assert.Equal(t, 200000, s.Capacity)
	assert.InDelta(t, 0.85, s.Fraction, 0.0001)
	assert.InDelta(t, 85.0, s.Percent(), 0.01)
}

func TestEvaluateBands(t *testing.T) {
	tests := []struct {
		name     string
		used     int
		capacity int
		want     Band
	}{
		{"zero", 0, 200000, BandNormal},
		{"just under moderate", 139999, 200000, BandNormal},
		{"boundary 0.70 is moderate", 140000, 200000, BandModerate},
		{"mid moderate", 160000, 200000, BandModerate},
		{"boundary 0.85 is high", 170000, 200000, BandHigh},
		{"just under critical", 189999, 200000, BandHigh},
		{"boundary 0.95 is critical", 190000, 200000, BandCritical},
		{"full", 200000, 200000, BandCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.used, tt.capacity).Band)
		})
	}
}

func TestEvaluateOverCapacity(t *testing.T) {
	// fraction 1.2 is valid input, not an error
	s := Evaluate(240000, 200000)

	assert.InDelta(t, 1.2, s.Fraction, 0.0001)
	assert.Equal(t, BandCritical, s.Band)
}

func TestEvaluateGuardsZeroCapacity(t *testing.T) {
	s := Evaluate(100000, 0)

	assert.Equal(t, 200000, s.Capacity)
	assert.InDelta(t, 0.5, s.Fraction, 0.0001)
}

func TestSnapshotString(t *testing.T) {
	s := Evaluate(170000, 200000)
	assert.Equal(t, "170000/200000 tokens (85.0%, high)", s.String())
}
