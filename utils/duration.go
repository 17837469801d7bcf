package utils

import "math"

// MaxTrackableDurationMs caps a single session duration at 24 hours. Browsers
// report elapsed time for tabs left open across days; anything above the cap is
// clamped so very long sessions still count instead of vanishing.
const MaxTrackableDurationMs int64 = 24 * 60 * 60 * 1000

// SanitizeDuration validates a raw duration value and returns it as whole
// milliseconds. Non-finite and non-positive values are rejected; values above
// MaxTrackableDurationMs are clamped to it.
func SanitizeDuration(raw float64) (int64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0, false
	}
	ms := int64(math.Round(raw))
	if ms <= 0 {
		return 0, false
	}
	if ms > MaxTrackableDurationMs {
		ms = MaxTrackableDurationMs
	}
	return ms, true
}
