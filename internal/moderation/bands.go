package moderation

import (
	"fmt"
	"math"
)

// Band is one of the five ordered grade categories
type Band string

const (
	BandNN Band = "NN"
	BandPA Band = "PA"
	BandCR Band = "CR"
	BandDI Band = "DI"
	BandHD Band = "HD"
)

// OrderedBands lists the bands lowest to highest
var OrderedBands = []Band{BandNN, BandPA, BandCR, BandDI, BandHD}

// Boundary pairs a band with its inclusive lower percentage bound
type Boundary struct {
	Band  Band    `json:"band"`
	Lower float64 `json:"lower"`
}

// BoundarySet is the ordered set of band boundaries. The bands partition
// [0,100]: a percentage belongs to the highest band whose lower bound is
// less than or equal to its rounded value.
type BoundarySet []Boundary

// DefaultBoundaries returns the canonical five-band scheme
func DefaultBoundaries() BoundarySet {
	return BoundarySet{
		{BandNN, 0},
		{BandPA, 50},
		{BandCR, 60},
		{BandDI, 70},
		{BandHD, 80},
	}
}

// Validate checks that the bounds start at 0 and strictly increase
func (b BoundarySet) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("boundary set is empty")
	}
	if b[0].Lower != 0 {
		return fmt.Errorf("first boundary must be 0, got %v", b[0].Lower)
	}
	for i := 1; i < len(b); i++ {
		if b[i].Lower <= b[i-1].Lower {
			return fmt.Errorf("boundaries must strictly increase: %v after %v", b[i].Lower, b[i-1].Lower)
		}
	}
	return nil
}

// roundHalfAway rounds to the nearest integer, halves away from zero, so
// 49.5 categorizes as 50.
func roundHalfAway(pct float64) float64 {
	return math.Round(pct)
}

// Categorize returns the band for a percentage. A missing percentage
// categorizes as the lowest band.
func (b BoundarySet) Categorize(pct *float64) Band {
	if pct == nil || math.IsNaN(*pct) {
		return b[0].Band
	}
	rounded := roundHalfAway(*pct)

	band := b[0].Band
	for _, bound := range b {
		if rounded >= bound.Lower {
			band = bound.Band
		}
	}
	return band
}

// CuspRule selects which boundary-adjacency definition applies. Two
// incompatible definitions exist in the wild; the rule is explicit so callers
// never get a silent merge of the two.
type CuspRule string

const (
	// CuspExact flags scores whose rounded value is exactly boundary-1
	// (49, 59, 69, 79 under the default boundaries). The default.
	CuspExact CuspRule = "exact"
	// CuspRange flags scores whose rounded value lies in [boundary-2, boundary)
	CuspRange CuspRule = "range"
)

// Valid reports whether the rule is a known cusp rule
func (r CuspRule) Valid() bool {
	return r == CuspExact || r == CuspRange
}

// OnCusp reports whether a percentage sits immediately below a band boundary
// under the given rule. Missing percentages are never on cusp.
func (b BoundarySet) OnCusp(pct *float64, rule CuspRule) bool {
	if pct == nil || math.IsNaN(*pct) {
		return false
	}
	rounded := roundHalfAway(*pct)

	for _, bound := range b {
		if bound.Lower <= 0 {
			continue
		}
		switch rule {
		case CuspRange:
			if rounded >= bound.Lower-2 && rounded < bound.Lower {
				return true
			}
		default:
			if rounded == bound.Lower-1 {
				return true
			}
		}
	}
	return false
}
