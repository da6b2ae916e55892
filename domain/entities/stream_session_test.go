package entities

import (
	"math"
	"testing"
)

func newTestSession() *StreamSession {
	return NewStreamSession(DefaultThresholds(), 0.6, 0.4)
}

func scoredResult(score float64, signals ...Signal) *AnalysisResult {
	return &AnalysisResult{
		ScamScore:      score,
		Confidence:     0.9,
		Verdict:        DefaultThresholds().Classify(score),
		Signals:        signals,
		Recommendation: "No specific recommendation.",
	}
}

func TestRunningScoreSmoothing(t *testing.T) {
	s := newTestSession()

	scores := []float64{0.1, 0.4, 0.9, 0.2, 0.6}
	want := []float64{0.07, 0.301, 0.7203, 0.35609, 0.526827}

	for i, score := range scores {
		partial, err := s.RecordChunk(scoredResult(score))
		if err != nil {
			t.Fatalf("RecordChunk returned error: %v", err)
		}
		got := math.Round(s.runningScore*1e6) / 1e6
		if got != want[i] {
			t.Errorf("after chunk %d running score = %v, want %v", i+1, got, want[i])
		}
		if partial.ChunkIndex != i+1 {
			t.Errorf("chunk index = %d, want %d", partial.ChunkIndex, i+1)
		}
	}
}

func TestPeakScoreTracking(t *testing.T) {
	s := newTestSession()

	for _, score := range []float64{0.1, 0.5, 0.3, 0.9, 0.2} {
		if _, err := s.RecordChunk(scoredResult(score)); err != nil {
			t.Fatalf("RecordChunk returned error: %v", err)
		}
	}

	if s.peakScore != 0.9 {
		t.Errorf("peak score = %v, want 0.9", s.peakScore)
	}
}

func TestScoreDelta(t *testing.T) {
	s := newTestSession()

	first, _ := s.RecordChunk(scoredResult(0.8))
	if first.ScoreDelta != 0.8 {
		t.Errorf("first delta = %v, want 0.8", first.ScoreDelta)
	}

	// running score after first chunk is 0.56; delta is computed before the
	// running score folds in the new chunk
	second, _ := s.RecordChunk(scoredResult(0.2))
	if second.ScoreDelta != round4(0.2-0.56) {
		t.Errorf("second delta = %v, want %v", second.ScoreDelta, round4(0.2-0.56))
	}
}

func TestNovelSignalDeduplication(t *testing.T) {
	s := newTestSession()

	urgency := Signal{Category: "URGENCY", Detail: "act now", Severity: SeverityHigh}
	payment := Signal{Category: "UNUSUAL_PAYMENT", Detail: "gift cards", Severity: SeverityHigh}

	first, _ := s.RecordChunk(scoredResult(0.7, urgency))
	if len(first.NewSignals) != 1 || first.NewSignals[0].Category != "URGENCY" {
		t.Errorf("first chunk new signals = %v, want [URGENCY]", first.NewSignals)
	}

	second, _ := s.RecordChunk(scoredResult(0.8, urgency, payment))
	if len(second.NewSignals) != 1 || second.NewSignals[0].Category != "UNUSUAL_PAYMENT" {
		t.Errorf("second chunk new signals = %v, want [UNUSUAL_PAYMENT]", second.NewSignals)
	}

	// full log keeps every occurrence, novel or not
	if len(s.signals) != 3 {
		t.Errorf("signal log length = %d, want 3", len(s.signals))
	}
}

func TestRecordSilence(t *testing.T) {
	s := newTestSession()

	if _, err := s.RecordChunk(scoredResult(0.6)); err != nil {
		t.Fatalf("RecordChunk returned error: %v", err)
	}
	runningBefore := s.runningScore
	peakBefore := s.peakScore

	partial, err := s.RecordSilence()
	if err != nil {
		t.Fatalf("RecordSilence returned error: %v", err)
	}

	if partial.Verdict != VerdictSafe {
		t.Errorf("silent chunk verdict = %v, want SAFE", partial.Verdict)
	}
	if partial.ScamScore != 0 {
		t.Errorf("silent chunk score = %v, want 0", partial.ScamScore)
	}
	if len(partial.Signals) != 1 || partial.Signals[0].Category != "SILENCE" {
		t.Errorf("silent chunk signals = %v, want single SILENCE signal", partial.Signals)
	}
	if s.runningScore != runningBefore {
		t.Errorf("running score changed from %v to %v on silence", runningBefore, s.runningScore)
	}
	if s.peakScore != peakBefore {
		t.Errorf("peak score changed from %v to %v on silence", peakBefore, s.peakScore)
	}
	if partial.ChunkIndex != 2 {
		t.Errorf("chunk index = %d, want 2", partial.ChunkIndex)
	}
}

func TestFinalizeCombinedScore(t *testing.T) {
	s := newTestSession()

	s.RecordChunk(scoredResult(0.9))
	s.RecordChunk(scoredResult(0.3))

	final := s.Finalize()

	if final.MaxScore != 0.9 {
		t.Errorf("max score = %v, want 0.9", final.MaxScore)
	}
	// running = 0.7*0.3 + 0.3*(0.7*0.9) = 0.399
	// combined = round(0.6*0.9 + 0.4*0.399, 4) = 0.6996
	if final.CombinedScore != 0.6996 {
		t.Errorf("combined score = %v, want 0.6996", final.CombinedScore)
	}
	if final.Verdict != VerdictLikelyScam {
		t.Errorf("verdict = %v, want LIKELY_SCAM", final.Verdict)
	}
	if final.ReviewRequired {
		t.Errorf("review should not be required, got reason %q", final.ReviewReason)
	}
	if final.TotalChunks != 2 {
		t.Errorf("total chunks = %d, want 2", final.TotalChunks)
	}
}

func TestFinalizeReviewAmbiguous(t *testing.T) {
	s := newTestSession()

	s.RecordChunk(scoredResult(0.5))
	final := s.Finalize()

	// peak 0.5, running 0.35 → combined 0.44, inside the ambiguous band
	if !final.ReviewRequired {
		t.Fatal("review should be required for an ambiguous combined score")
	}
	if final.ReviewReason != ReviewReasonAmbiguous {
		t.Errorf("review reason = %q, want %q", final.ReviewReason, ReviewReasonAmbiguous)
	}
}

func TestFinalizeReviewLowConfidence(t *testing.T) {
	s := newTestSession()

	s.RecordChunk(scoredResult(0.1))
	s.RecordChunk(scoredResult(0.2))
	final := s.Finalize()

	// combined well below the ambiguous band, but both running and peak are
	// under 0.55 on a non-empty session
	if !final.ReviewRequired {
		t.Fatal("review should be required when the model never got confident")
	}
	if final.ReviewReason != ReviewReasonLowConfidence {
		t.Errorf("review reason = %q, want %q", final.ReviewReason, ReviewReasonLowConfidence)
	}
}

func TestFinalizeEmptySession(t *testing.T) {
	s := newTestSession()
	final := s.Finalize()

	if final.TotalChunks != 0 {
		t.Errorf("total chunks = %d, want 0", final.TotalChunks)
	}
	if final.CombinedScore != 0 {
		t.Errorf("combined score = %v, want 0", final.CombinedScore)
	}
	if final.Verdict != VerdictSafe {
		t.Errorf("verdict = %v, want SAFE", final.Verdict)
	}
	if final.ReviewRequired {
		t.Error("zero-chunk session should not require review")
	}
}

func TestRecordAfterFinalize(t *testing.T) {
	s := newTestSession()
	s.Finalize()

	if s.State() != StreamStateClosed {
		t.Errorf("state = %v, want closed", s.State())
	}
	if _, err := s.RecordChunk(scoredResult(0.5)); err != ErrSessionClosed {
		t.Errorf("RecordChunk after finalize error = %v, want ErrSessionClosed", err)
	}
	if _, err := s.RecordSilence(); err != ErrSessionClosed {
		t.Errorf("RecordSilence after finalize error = %v, want ErrSessionClosed", err)
	}
}

func TestRecordChunkClampsScore(t *testing.T) {
	s := newTestSession()

	partial, _ := s.RecordChunk(scoredResult(1.5))
	if partial.ScamScore != 1.0 {
		t.Errorf("scam score = %v, want clamped 1.0", partial.ScamScore)
	}
	if s.peakScore != 1.0 {
		t.Errorf("peak score = %v, want 1.0", s.peakScore)
	}

	partial, _ = s.RecordChunk(scoredResult(-0.5))
	if partial.ScamScore != 0.0 {
		t.Errorf("scam score = %v, want clamped 0.0", partial.ScamScore)
	}
}

func TestLastRecommendationCarries(t *testing.T) {
	s := newTestSession()

	res := scoredResult(0.8)
	res.Recommendation = "Hang up immediately."
	res.TranscriptSummary = "Caller demanded gift cards."
	s.RecordChunk(res)

	empty := scoredResult(0.2)
	empty.Recommendation = ""
	empty.TranscriptSummary = ""
	s.RecordChunk(empty)

	final := s.Finalize()
	if final.Recommendation != "Hang up immediately." {
		t.Errorf("recommendation = %q, want last non-empty value", final.Recommendation)
	}
	if final.TranscriptSummary != "Caller demanded gift cards." {
		t.Errorf("transcript summary = %q, want last non-empty value", final.TranscriptSummary)
	}
}
