package entities

import "math"

// Severity grades how strongly a single signal points at a scam
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IsValid reports whether s is a recognised severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Verdict is the four-level risk classification of a call or chunk
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictLikelyScam Verdict = "LIKELY_SCAM"
	VerdictScam       Verdict = "SCAM"
)

// IsValid reports whether v is a recognised verdict
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictSafe, VerdictSuspicious, VerdictLikelyScam, VerdictScam:
		return true
	}
	return false
}

// Signal is one discrete piece of evidence the model attached to a scoring
// decision. Signals are accumulated across a session and never mutated.
type Signal struct {
	Category string   `json:"category"`
	Detail   string   `json:"detail"`
	Severity Severity `json:"severity"`
}

// AnalysisResult is the canonical, fully validated outcome of one model call.
// Every numeric field is clamped to [0,1] and every enum field holds one of
// its declared values by the time a value of this type exists.
type AnalysisResult struct {
	ScamScore         float64  `json:"scam_score"`
	Confidence        float64  `json:"confidence"`
	Verdict           Verdict  `json:"verdict"`
	Signals           []Signal `json:"signals"`
	TranscriptSummary string   `json:"transcript_summary,omitempty"`
	Recommendation    string   `json:"recommendation"`
}

// ScamReport is the single-shot API response combining one or two analyses.
type ScamReport struct {
	ID               string          `json:"id"`
	Mode             string          `json:"mode"` // "audio", "text", or "stream"
	AudioAnalysis    *AnalysisResult `json:"audio_analysis,omitempty"`
	TextAnalysis     *AnalysisResult `json:"text_analysis,omitempty"`
	CombinedScore    float64         `json:"combined_score"`
	ProcessingTimeMs float64         `json:"processing_time_ms"`
}

// Clamp forces a score into the valid [0.0, 1.0] range. Out-of-range model
// output is clamped rather than rejected; NaN counts as no evidence.
func Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0.0
	}
	if x < 0.0 {
		return 0.0
	}
	if x > 1.0 {
		return 1.0
	}
	return x
}
