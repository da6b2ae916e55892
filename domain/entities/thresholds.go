package entities

import "errors"

// Thresholds holds the three score cut-points partitioning [0,1] into the
// four verdicts. Loaded once at startup and passed by reference; never
// mutated afterwards.
type Thresholds struct {
	Safe       float64 // scores below this are SAFE
	Suspicious float64 // scores below this (and >= Safe) are SUSPICIOUS
	LikelyScam float64 // scores below this (and >= Suspicious) are LIKELY_SCAM
}

// DefaultThresholds returns the standard 0.30 / 0.60 / 0.85 cut-points.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Safe:       0.30,
		Suspicious: 0.60,
		LikelyScam: 0.85,
	}
}

// Validate checks that the cut-points are strictly ascending within (0,1).
func (t Thresholds) Validate() error {
	if t.Safe <= 0 || t.LikelyScam >= 1 {
		return errors.New("thresholds must lie strictly inside (0,1)")
	}
	if t.Safe >= t.Suspicious || t.Suspicious >= t.LikelyScam {
		return errors.New("thresholds must be strictly ascending")
	}
	return nil
}

// Classify maps a score to a verdict. Boundaries are inclusive on the lower
// side: a score exactly at a cut-point belongs to the higher verdict.
func (t Thresholds) Classify(score float64) Verdict {
	switch {
	case score < t.Safe:
		return VerdictSafe
	case score < t.Suspicious:
		return VerdictSuspicious
	case score < t.LikelyScam:
		return VerdictLikelyScam
	default:
		return VerdictScam
	}
}
