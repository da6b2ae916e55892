// Package response recovers validated analysis results from the free-form
// text a hosted model returns. Extraction and normalization are the trust
// boundary: nothing past this package ever sees an unvalidated model field.
package response

import (
	"encoding/json"
	"fmt"
	"strings"
)

// errorPrefixLen bounds how much of the raw reply is echoed in extraction
// errors for diagnostics.
const errorPrefixLen = 200

// extractStrategy attempts one way of recovering a JSON object from raw
// model text. It reports ok=false on failure; the caller tries the next one.
type extractStrategy func(raw string) (map[string]interface{}, bool)

// Strategies in priority order; the first success wins. Models routinely
// wrap valid output in prose or code fences, so the direct parse is only the
// happy path.
var extractStrategies = []extractStrategy{
	parseWhole,
	parseBalancedObject,
	parseFencedBlock,
}

// ExtractJSON recovers exactly one JSON object from arbitrary model output.
// It never guesses: if no strategy yields a syntactically valid object, it
// fails with a descriptive error carrying a bounded prefix of the input.
func ExtractJSON(raw string) (map[string]interface{}, error) {
	for _, strategy := range extractStrategies {
		if obj, ok := strategy(raw); ok {
			return obj, nil
		}
	}

	prefix := raw
	if len(prefix) > errorPrefixLen {
		prefix = prefix[:errorPrefixLen]
	}
	return nil, fmt.Errorf("could not extract JSON from model reply: %q", prefix)
}

// parseWhole parses the entire string as a JSON object.
func parseWhole(raw string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// parseBalancedObject finds the first span starting at a '{' whose brace
// nesting depth returns to zero and parses it. Depth tracking is required:
// first-to-last brace matching breaks on trailing text and a plain regex
// breaks on nested objects.
func parseBalancedObject(raw string) (map[string]interface{}, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(raw[start:i+1]), &obj); err != nil {
					return nil, false
				}
				return obj, true
			}
		}
	}
	return nil, false
}

// parseFencedBlock parses the contents of the first markdown code fence.
func parseFencedBlock(raw string) (map[string]interface{}, bool) {
	open := strings.Index(raw, "```")
	if open < 0 {
		return nil, false
	}
	body := raw[open+3:]
	// skip an optional language tag on the fence line
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(body[:nl])
		if firstLine == "json" || firstLine == "" {
			body = body[nl+1:]
		}
	}
	closing := strings.Index(body, "```")
	if closing < 0 {
		return nil, false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(body[:closing])), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
