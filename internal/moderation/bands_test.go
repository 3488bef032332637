package moderation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundarySetValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  BoundarySet
		wantErr bool
	}{
		{
			name:    "default boundaries are valid",
			bounds:  DefaultBoundaries(),
			wantErr: false,
		},
		{
			name:    "empty set is invalid",
			bounds:  BoundarySet{},
			wantErr: true,
		},
		{
			name: "first boundary must be zero",
			bounds: BoundarySet{
				{BandNN, 10},
				{BandPA, 50},
			},
			wantErr: true,
		},
		{
			name: "boundaries must strictly increase",
			bounds: BoundarySet{
				{BandNN, 0},
				{BandPA, 50},
				{BandCR, 50},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	bounds := DefaultBoundaries()

	tests := []struct {
		name string
		pct  float64
		want Band
	}{
		{"zero", 0, BandNN},
		{"just below pass", 49.4, BandNN},
		{"half rounds up to pass", 49.5, BandPA},
		{"pass boundary", 50, BandPA},
		{"just below credit", 59.4, BandPA},
		{"credit boundary", 60, BandCR},
		{"distinction boundary", 70, BandDI},
		{"just below high distinction", 79.4, BandDI},
		{"high distinction boundary", 80, BandHD},
		{"top of scale", 100, BandHD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bounds.Categorize(&tt.pct))
		})
	}
}

func TestCategorizeMissing(t *testing.T) {
	bounds := DefaultBoundaries()

	assert.Equal(t, BandNN, bounds.Categorize(nil))

	nan := math.NaN()
	assert.Equal(t, BandNN, bounds.Categorize(&nan))
}

func TestOnCuspExact(t *testing.T) {
	bounds := DefaultBoundaries()

	tests := []struct {
		name string
		pct  float64
		want bool
	}{
		{"one below pass", 49, true},
		{"one below credit", 59, true},
		{"one below distinction", 69, true},
		{"one below high distinction", 79, true},
		{"rounds to one below", 78.6, true},
		{"two below is not cusp", 78, false},
		{"boundary itself is not cusp", 80, false},
		{"mid band", 65, false},
		{"rounds up past cusp", 79.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bounds.OnCusp(&tt.pct, CuspExact))
		})
	}
}

func TestOnCuspRange(t *testing.T) {
	bounds := DefaultBoundaries()

	tests := []struct {
		name string
		pct  float64
		want bool
	}{
		{"two below boundary", 78, true},
		{"one below boundary", 79, true},
		{"boundary itself", 80, false},
		{"three below boundary", 77, false},
		{"two below pass", 48, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bounds.OnCusp(&tt.pct, CuspRange))
		})
	}
}

func TestOnCuspMissing(t *testing.T) {
	bounds := DefaultBoundaries()
	require.False(t, bounds.OnCusp(nil, CuspExact))

	nan := math.NaN()
	require.False(t, bounds.OnCusp(&nan, CuspRange))
}

func TestCuspRuleValid(t *testing.T) {
	assert.True(t, CuspExact.Valid())
	assert.True(t, CuspRange.Valid())
	assert.False(t, CuspRule("fuzzy").Valid())
	assert.False(t, CuspRule("").Valid())
}
