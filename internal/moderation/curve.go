package moderation

import "math"

// CurveParameters are the caller-supplied targets for the bell-curve
// moderation: the class-wide mean and spread the adjusted percentages
// should hit.
type CurveParameters struct {
	TargetMean float64 `json:"target_mean"`
	TargetStd  float64 `json:"target_std" validate:"gte=0"`
}

// Mean returns the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (divisor n-1). Zero for
// fewer than two values.
func SampleStd(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n-1))
}

// Clip bounds a percentage to [0,100]. A hard floor and ceiling, not a
// re-normalization: when clipping occurs the curved moments no longer exactly
// equal the targets.
func Clip(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ApplyCurve maps the original percentages onto the target mean and spread
// with an affine transform, preserving the shape of the distribution while
// forcing its first two moments to the targets. When the current spread is
// zero (all scores identical, or a single record) the transform is the
// identity; scaling by an undefined ratio is explicitly avoided.
func ApplyCurve(pcts []float64, params CurveParameters) []float64 {
	curMean := Mean(pcts)
	curStd := SampleStd(pcts)

	adjusted := make([]float64, len(pcts))
	if curStd == 0 {
		copy(adjusted, pcts)
		return adjusted
	}

	scale := params.TargetStd / curStd
	for i, p := range pcts {
		adjusted[i] = Clip(params.TargetMean + (p-curMean)*scale)
	}
	return adjusted
}
