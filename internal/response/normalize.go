package response

import (
	"math"
	"strconv"

	"github.com/callshield/callshield/domain/entities"
)

// DefaultRecommendation is substituted when the model omits one.
const DefaultRecommendation = "No specific recommendation."

// ParseAnalysisResult extracts a JSON object from raw model text and coerces
// it into a canonical AnalysisResult. Extraction can fail; normalization
// cannot: every field of a successfully extracted object is defaulted or
// clamped, never rejected. This is the last line of defense between an
// adversarial or buggy model reply and the rest of the system.
func ParseAnalysisResult(raw string) (*entities.AnalysisResult, error) {
	data, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	verdict := entities.Verdict(stringField(data, "verdict", string(entities.VerdictSafe)))
	if !verdict.IsValid() {
		verdict = entities.VerdictSafe
	}

	return &entities.AnalysisResult{
		ScamScore:         entities.Clamp(floatField(data, "scam_score", 0.0)),
		Confidence:        entities.Clamp(floatField(data, "confidence", 0.5)),
		Verdict:           verdict,
		Signals:           normalizeSignals(data["signals"]),
		TranscriptSummary: stringField(data, "transcript_summary", ""),
		Recommendation:    stringField(data, "recommendation", DefaultRecommendation),
	}, nil
}

// normalizeSignals coerces whatever sits under "signals" into valid Signal
// records. Entries that are not objects are dropped; malformed fields within
// an entry get placeholders rather than failing the whole record.
func normalizeSignals(v interface{}) []entities.Signal {
	items, ok := v.([]interface{})
	if !ok {
		return []entities.Signal{}
	}

	signals := make([]entities.Signal, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		severity := entities.Severity(stringField(m, "severity", string(entities.SeverityMedium)))
		if !severity.IsValid() {
			severity = entities.SeverityMedium
		}

		signals = append(signals, entities.Signal{
			Category: stringField(m, "category", "UNKNOWN"),
			Detail:   stringField(m, "detail", ""),
			Severity: severity,
		})
	}
	return signals
}

// floatField reads a numeric field, accepting JSON numbers and numeric
// strings, falling back to def for anything else. ParseFloat accepts "NaN"
// and "Inf" spellings, which would escape the clamp, so those fall back too.
func floatField(m map[string]interface{}, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return def
}

func stringField(m map[string]interface{}, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}
