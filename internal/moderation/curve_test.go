package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 65.0, Mean([]float64{40, 50, 60, 70, 80, 90}))
	assert.Equal(t, 42.0, Mean([]float64{42}))
}

func TestSampleStd(t *testing.T) {
	// Fewer than two values has no sample spread
	assert.Equal(t, 0.0, SampleStd(nil))
	assert.Equal(t, 0.0, SampleStd([]float64{77}))

	// Divisor is n-1: for {2,4,4,4,5,5,7,9} the sample variance is 32/7
	assert.InDelta(t, 2.138, SampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)

	// Identical values have zero spread
	assert.Equal(t, 0.0, SampleStd([]float64{60, 60, 60}))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-3.2))
	assert.Equal(t, 100.0, Clip(104.7))
	assert.Equal(t, 55.5, Clip(55.5))
	assert.Equal(t, 0.0, Clip(0))
	assert.Equal(t, 100.0, Clip(100))
}

func TestApplyCurve(t *testing.T) {
	pcts := []float64{40, 50, 60, 70, 80, 90}
	params := CurveParameters{TargetMean: 65, TargetStd: 15}

	adjusted := ApplyCurve(pcts, params)
	require.Len(t, adjusted, len(pcts))

	// The affine transform forces the first two moments onto the targets
	assert.InDelta(t, 65, Mean(adjusted), 1e-9)
	assert.InDelta(t, 15, SampleStd(adjusted), 1e-9)

	expected := []float64{44.96, 52.97, 60.99, 69.01, 77.03, 85.04}
	for i, want := range expected {
		assert.InDelta(t, want, adjusted[i], 0.01, "index %d", i)
	}

	// Order is preserved
	for i := 1; i < len(adjusted); i++ {
		assert.Less(t, adjusted[i-1], adjusted[i])
	}
}

func TestApplyCurveZeroSpread(t *testing.T) {
	// All-identical scores: the transform is the identity, not a divide by zero
	pcts := []float64{72, 72, 72}
	adjusted := ApplyCurve(pcts, CurveParameters{TargetMean: 65, TargetStd: 12})
	assert.Equal(t, pcts, adjusted)

	// A single record likewise passes through unchanged
	single := ApplyCurve([]float64{88}, CurveParameters{TargetMean: 50, TargetStd: 10})
	assert.Equal(t, []float64{88}, single)
}

func TestApplyCurveClipsExtremes(t *testing.T) {
	// A tight target spread blown up by a wide input forces clipping
	pcts := []float64{0, 50, 100}
	adjusted := ApplyCurve(pcts, CurveParameters{TargetMean: 50, TargetStd: 80})

	assert.Equal(t, 0.0, adjusted[0])
	assert.Equal(t, 50.0, adjusted[1])
	assert.Equal(t, 100.0, adjusted[2])
}

func TestPercentageConversion(t *testing.T) {
	assert.InDelta(t, 75, ToPercentage(30, 40), 1e-9)
	assert.InDelta(t, 100, ToPercentage(40, 40), 1e-9)
	assert.InDelta(t, 30, ToRaw(75, 40), 1e-9)

	// Raw scores above the maximum stay above 100 until clipping
	assert.InDelta(t, 105, ToPercentage(42, 40), 1e-9)
}
