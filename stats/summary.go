package stats

import (
	"math"

	"github.com/davidzamora9aSyC/contador/model"
)

// NewSummary starts a duration summary from its first sample.
func NewSummary(durationMs int64) *model.DurationSummary {
	return &model.DurationSummary{
		Min:           durationMs,
		Max:           durationMs,
		Count:         1,
		TotalDuration: durationMs,
	}
}

// ObserveSummary folds one more sample into an existing summary in place.
func ObserveSummary(s *model.DurationSummary, durationMs int64) {
	s.Count++
	s.TotalDuration += durationMs
	if durationMs < s.Min {
		s.Min = durationMs
	}
	if durationMs > s.Max {
		s.Max = durationMs
	}
}

// MergeSummaries combines two summaries covering the same slot. The operation
// is commutative and associative, so multi-source merges during migration do
// not depend on input order.
func MergeSummaries(a, b *model.DurationSummary) *model.DurationSummary {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &model.DurationSummary{
		Min:           a.Min,
		Max:           a.Max,
		Count:         a.Count + b.Count,
		TotalDuration: a.TotalDuration + b.TotalDuration,
	}
	if b.Min < merged.Min {
		merged.Min = b.Min
	}
	if b.Max > merged.Max {
		merged.Max = b.Max
	}
	return merged
}

// NormalizeSummary rebuilds a summary from an untrusted persisted value.
// It returns nil when count or totalDuration is non-positive. Missing or
// invalid min/max fall back to the average, min/max are reordered if needed,
// and totalDuration is clamped into [min*count, max*count] so a corrupted
// total can never push the derived average outside the declared bounds.
func NormalizeSummary(raw any) *model.DurationSummary {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	count, ok := asPositiveInt(obj["count"])
	if !ok {
		return nil
	}
	total, ok := asPositiveInt(obj["totalDuration"])
	if !ok {
		return nil
	}

	average := float64(total) / float64(count)

	min, ok := asPositiveInt(obj["min"])
	if !ok {
		min = int64(math.Round(average))
	}
	max, ok := asPositiveInt(obj["max"])
	if !ok {
		max = int64(math.Round(average))
	}
	if min > max {
		min, max = max, min
	}

	if total < min*count {
		total = min * count
	}
	if total > max*count {
		total = max * count
	}

	return &model.DurationSummary{
		Min:           min,
		Max:           max,
		Count:         count,
		TotalDuration: total,
	}
}

// RenderSummary projects a summary for external consumption, deriving the
// average rounded to 2 decimal places.
func RenderSummary(s *model.DurationSummary) model.SummaryView {
	average := float64(s.TotalDuration) / float64(s.Count)
	return model.SummaryView{
		Min:           s.Min,
		Max:           s.Max,
		Count:         s.Count,
		TotalDuration: s.TotalDuration,
		Average:       math.Round(average*100) / 100,
	}
}

// asPositiveInt coerces a decoded JSON value to a positive whole number of
// milliseconds.
func asPositiveInt(v any) (int64, bool) {
	f, ok := asNumber(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	n := int64(math.Round(f))
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// asNumber unwraps the numeric shapes encoding/json can produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
