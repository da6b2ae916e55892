package entities

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		score float64
		want  Verdict
	}{
		{0.00, VerdictSafe},
		{0.29, VerdictSafe},
		{0.30, VerdictSuspicious},
		{0.59, VerdictSuspicious},
		{0.60, VerdictLikelyScam},
		{0.84, VerdictLikelyScam},
		{0.85, VerdictScam},
		{1.00, VerdictScam},
	}

	for _, tt := range tests {
		if got := th.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	th := DefaultThresholds()
	order := map[Verdict]int{
		VerdictSafe:       0,
		VerdictSuspicious: 1,
		VerdictLikelyScam: 2,
		VerdictScam:       3,
	}

	prev := VerdictSafe
	for score := 0.0; score <= 1.0; score += 0.01 {
		got := th.Classify(score)
		if order[got] < order[prev] {
			t.Fatalf("verdict regressed from %v to %v at score %v", prev, got, score)
		}
		prev = got
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr bool
	}{
		{"defaults", DefaultThresholds(), false},
		{"zero safe", Thresholds{Safe: 0, Suspicious: 0.5, LikelyScam: 0.8}, true},
		{"not ascending", Thresholds{Safe: 0.6, Suspicious: 0.5, LikelyScam: 0.8}, true},
		{"equal cut-points", Thresholds{Safe: 0.5, Suspicious: 0.5, LikelyScam: 0.8}, true},
		{"likely scam at one", Thresholds{Safe: 0.3, Suspicious: 0.6, LikelyScam: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
