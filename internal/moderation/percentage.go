package moderation

// ToPercentage maps a raw mark to a percentage of the maximum. The resolver
// guarantees max is never zero. No rounding happens here; rounding is
// deferred to categorization and display formatting.
func ToPercentage(raw, max float64) float64 {
	return raw / max * 100
}

// ToRaw maps a percentage back to a raw mark
func ToRaw(pct, max float64) float64 {
	return pct / 100 * max
}
