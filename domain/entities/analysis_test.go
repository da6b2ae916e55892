package entities

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above range", 1.5, 1.0},
		{"below range", -0.5, 0.0},
		{"lower boundary", 0.0, 0.0},
		{"upper boundary", 1.0, 1.0},
		{"in range", 0.42, 0.42},
		{"not a number", math.NaN(), 0.0},
		{"positive infinity", math.Inf(1), 1.0},
		{"negative infinity", math.Inf(-1), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.in); got != tt.want {
				t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVerdictIsValid(t *testing.T) {
	for _, v := range []Verdict{VerdictSafe, VerdictSuspicious, VerdictLikelyScam, VerdictScam} {
		if !v.IsValid() {
			t.Errorf("Verdict %q should be valid", v)
		}
	}

	for _, v := range []Verdict{"", "safe", "MAYBE_SCAM"} {
		if v.IsValid() {
			t.Errorf("Verdict %q should not be valid", v)
		}
	}
}

func TestSeverityIsValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		if !s.IsValid() {
			t.Errorf("Severity %q should be valid", s)
		}
	}

	for _, s := range []Severity{"", "critical", "LOW"} {
		if s.IsValid() {
			t.Errorf("Severity %q should not be valid", s)
		}
	}
}
