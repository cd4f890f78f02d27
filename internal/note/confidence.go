package note

import "github.com/ridgeline-health/notegen/internal/completion"

// ConfidenceScore maps a completion finish reason to a coarse confidence
// value. A clean stop scores highest, a truncated response lower, and any
// other reason (content filter, unknown) lowest. The mapping is a heuristic,
// not a calibrated quality measure; downstream consumers depend on these
// exact values.
func ConfidenceScore(reason completion.FinishReason) float64 {
	switch reason {
	case completion.FinishStop:
		return 0.85
	case completion.FinishLength:
		return 0.70
	default:
		return 0.60
	}
}

// RequiresReview reports whether generated content must be routed to human
// review. Strict less-than: a score equal to the threshold passes.
func RequiresReview(score, threshold float64) bool {
	return score < threshold
}
