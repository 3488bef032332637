package moderation

import "fmt"

// PolicyKind names a boundary-smoothing policy
type PolicyKind string

const (
	// PolicyNone applies no smoothing
	PolicyNone PolicyKind = "none"
	// PolicyCuspAvoidance eliminates the narrow band [b-2,b) at every
	// boundary: scores in [b-2,b-1) drop to b-2, scores in [b-1,b) rise to b.
	PolicyCuspAvoidance PolicyKind = "cusp_avoidance"
	// PolicySoftFail bumps narrow fails at the NN/PA boundary only: rounded
	// values in [threshold,50) rise to 50, values in [45,threshold) drop to 44.
	PolicySoftFail PolicyKind = "soft_fail"
	// PolicyGentleBoost shifts the target mean up by a fixed delta while
	// keeping the original spread. It rewrites the curve targets and applies
	// no per-score smoothing.
	PolicyGentleBoost PolicyKind = "gentle_boost"
)

// AdjustmentPolicy is the complete smoothing choice for one moderation run.
// At most one non-trivial policy applies per run.
type AdjustmentPolicy struct {
	Kind PolicyKind `json:"kind"`

	// SoftFailThreshold is the split point for PolicySoftFail, in [45,50)
	SoftFailThreshold float64 `json:"soft_fail_threshold,omitempty"`

	// GentleBoostDelta is the mean shift for PolicyGentleBoost
	GentleBoostDelta float64 `json:"gentle_boost_delta,omitempty"`
}

// Validate checks the policy parameters
func (p AdjustmentPolicy) Validate() error {
	switch p.Kind {
	case PolicyNone, PolicyCuspAvoidance, PolicyGentleBoost:
		return nil
	case PolicySoftFail:
		if p.SoftFailThreshold < 45 || p.SoftFailThreshold >= 50 {
			return fmt.Errorf("soft fail threshold must be in [45,50), got %v", p.SoftFailThreshold)
		}
		return nil
	default:
		return fmt.Errorf("unknown policy kind: %q", p.Kind)
	}
}

// RewriteTargets applies the gentle-boost rewrite to the curve parameters:
// target mean becomes the current mean plus the delta, target spread stays
// the current spread. Other policies leave the parameters untouched.
func (p AdjustmentPolicy) RewriteTargets(params CurveParameters, curMean, curStd float64) CurveParameters {
	if p.Kind != PolicyGentleBoost {
		return params
	}
	return CurveParameters{
		TargetMean: curMean + p.GentleBoostDelta,
		TargetStd:  curStd,
	}
}

// Smooth applies the per-score boundary smoothing to a curved percentage.
// It operates on the rounded value, after the curve and before final
// categorization.
func (p AdjustmentPolicy) Smooth(pct float64, bounds BoundarySet) float64 {
	v := roundHalfAway(pct)

	switch p.Kind {
	case PolicyCuspAvoidance:
		for _, bound := range bounds {
			b := bound.Lower
			if b <= 0 {
				continue
			}
			if v >= b-2 && v < b-1 {
				return b - 2
			}
			if v >= b-1 && v < b {
				return b
			}
		}
		return pct

	case PolicySoftFail:
		if v >= p.SoftFailThreshold && v < 50 {
			return 50
		}
		if v >= 45 && v < p.SoftFailThreshold {
			return 44
		}
		return pct

	default:
		return pct
	}
}
