// Package usage converts raw token counts into usage snapshots with a
// coarse severity band for display purposes.
package usage

import "fmt"

// Band is the severity classification for a usage fraction. It is fixed
// and independent of the configurable alert threshold.
type Band string

const (
	BandNormal   Band = "normal"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// Band boundaries. A boundary value belongs to the higher band.
const (
	moderateAt = 0.70
	highAt     = 0.85
	criticalAt = 0.95
)

// Snapshot is a point-in-time view of context usage.
type Snapshot struct {
	Used     int     `json:"used"`
	Capacity int     `json:"capacity"`
	Fraction float64 `json:"fraction"`
	Band     Band    `json:"band"`
}

// Evaluate computes a snapshot from a token count and a capacity. The
// fraction is never clamped; over-capacity transcripts are valid input. A
// non-positive capacity falls back to the default Claude context window.
func Evaluate(used, capacity int) Snapshot {
	if capacity <= 0 {
		capacity = 200000
	}
	fraction := float64(used) / float64(capacity)
	return Snapshot{
		Used:     used,
		Capacity: capacity,
		Fraction: fraction,
		Band:     bandFor(fraction),
	}
}

func bandFor(fraction float64) Band {
	switch {
	case fraction < moderateAt:
		return BandNormal
	case fraction < highAt:
		return BandModerate
	case fraction < criticalAt:
		return BandHigh
	default:
		return BandCritical
	}
}

// Percent returns the fraction as a percentage.
func (s Snapshot) Percent() float64 {
	return s.Fraction * 100
}

// String renders the snapshot for log lines and notification text.
func (s Snapshot) String() string {
	return fmt.Sprintf("%d/%d tokens (%.1f%%, %s)", s.Used, s.Capacity, s.Percent(), s.Band)
}
