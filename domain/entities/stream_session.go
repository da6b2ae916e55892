package entities

import (
	"errors"
	"math"
	"time"
)

// StreamState tracks the lifecycle of a live analysis session.
type StreamState string

const (
	StreamStateActive     StreamState = "active"
	StreamStateFinalizing StreamState = "finalizing"
	StreamStateClosed     StreamState = "closed"
)

// Exponential smoothing split for the running score. Recent chunks dominate,
// but one low-risk chunk cannot erase an accumulated high-risk history.
const (
	smoothingChunk = 0.7
	smoothingPrev  = 0.3
)

// Review band and low-confidence cut-point for the finalize decision.
const (
	reviewBandLow          = 0.35
	reviewBandHigh         = 0.65
	lowConfidenceThreshold = 0.55
)

// Distinguishable reasons for the review-required flag.
const (
	ReviewReasonAmbiguous     = "ambiguous score range"
	ReviewReasonLowConfidence = "low model confidence"
)

// ErrSessionClosed is returned when a chunk is recorded after finalize.
var ErrSessionClosed = errors.New("stream session already finalized")

// SilenceSignal is reported for chunks the silence gate filtered out.
var SilenceSignal = Signal{
	Category: "SILENCE",
	Detail:   "No speech detected in this chunk",
	Severity: SeverityLow,
}

// PartialResult is the per-chunk outcome pushed to the client while the call
// is still in progress. Emitted once per processed chunk, never revisited.
type PartialResult struct {
	Type              string   `json:"type"`
	ChunkIndex        int      `json:"chunk_index"`
	TimestampMs       int64    `json:"timestamp_ms"`
	ScoreDelta        float64  `json:"score_delta"`
	NewSignals        []Signal `json:"new_signals"`
	ScamScore         float64  `json:"scam_score"`
	CumulativeScore   float64  `json:"cumulative_score"`
	MaxScore          float64  `json:"max_score"`
	Confidence        float64  `json:"confidence"`
	Verdict           Verdict  `json:"verdict"`
	Signals           []Signal `json:"signals"`
	Recommendation    string   `json:"recommendation,omitempty"`
	TranscriptSummary string   `json:"transcript_summary,omitempty"`
}

// FinalResult is the terminal verdict for a session, produced exactly once.
type FinalResult struct {
	Type              string   `json:"type"`
	TotalChunks       int      `json:"total_chunks"`
	CombinedScore     float64  `json:"combined_score"`
	MaxScore          float64  `json:"max_score"`
	Verdict           Verdict  `json:"verdict"`
	Signals           []Signal `json:"signals"`
	Recommendation    string   `json:"recommendation,omitempty"`
	TranscriptSummary string   `json:"transcript_summary,omitempty"`
	ReviewRequired    bool     `json:"review_required"`
	ReviewReason      string   `json:"review_reason,omitempty"`
}

// StreamSession accumulates per-chunk analysis results into one running
// verdict for a live call. It is the only mutable entity in the system: one
// instance per connection, mutated sequentially, destroyed on close.
type StreamSession struct {
	thresholds    Thresholds
	peakWeight    float64
	runningWeight float64

	state              StreamState
	chunkCount         int
	runningScore       float64
	peakScore          float64
	seenCategories     map[string]bool
	signals            []Signal
	lastRecommendation string
	lastSummary        string
	startedAt          time.Time
}

// NewStreamSession creates the state for one live connection. peakWeight and
// runningWeight control the finalize blend (0.6 / 0.4 by default); they are
// chosen empirically and deliberately configurable.
func NewStreamSession(thresholds Thresholds, peakWeight, runningWeight float64) *StreamSession {
	return &StreamSession{
		thresholds:     thresholds,
		peakWeight:     peakWeight,
		runningWeight:  runningWeight,
		state:          StreamStateActive,
		seenCategories: make(map[string]bool),
		startedAt:      time.Now(),
	}
}

// State returns the session lifecycle state.
func (s *StreamSession) State() StreamState {
	return s.state
}

// ChunkCount returns the number of chunks processed so far. Monotonically
// non-decreasing within a session.
func (s *StreamSession) ChunkCount() int {
	return s.chunkCount
}

// RecordChunk folds one normalized chunk result into the running state and
// returns the partial result to push to the client.
func (s *StreamSession) RecordChunk(res *AnalysisResult) (PartialResult, error) {
	if s.state != StreamStateActive {
		return PartialResult{}, ErrSessionClosed
	}

	score := Clamp(res.ScamScore)
	delta := score - s.runningScore

	s.runningScore = smoothingChunk*score + smoothingPrev*s.runningScore
	if score > s.peakScore {
		s.peakScore = score
	}

	newSignals := s.appendSignals(res.Signals)
	s.chunkCount++

	if res.Recommendation != "" {
		s.lastRecommendation = res.Recommendation
	}
	if res.TranscriptSummary != "" {
		s.lastSummary = res.TranscriptSummary
	}

	return PartialResult{
		Type:              "partial_result",
		ChunkIndex:        s.chunkCount,
		TimestampMs:       time.Since(s.startedAt).Milliseconds(),
		ScoreDelta:        round4(delta),
		NewSignals:        newSignals,
		ScamScore:         round4(score),
		CumulativeScore:   round4(s.runningScore),
		MaxScore:          round4(s.peakScore),
		Confidence:        Clamp(res.Confidence),
		Verdict:           s.thresholds.Classify(score),
		Signals:           res.Signals,
		Recommendation:    res.Recommendation,
		TranscriptSummary: res.TranscriptSummary,
	}, nil
}

// RecordSilence accounts for a chunk the silence gate skipped. The chunk
// counter advances but running and peak scores are untouched; the partial
// always reports SAFE with a single SILENCE signal.
func (s *StreamSession) RecordSilence() (PartialResult, error) {
	if s.state != StreamStateActive {
		return PartialResult{}, ErrSessionClosed
	}

	chunkSignals := []Signal{SilenceSignal}
	newSignals := s.appendSignals(chunkSignals)
	s.chunkCount++

	return PartialResult{
		Type:            "partial_result",
		ChunkIndex:      s.chunkCount,
		TimestampMs:     time.Since(s.startedAt).Milliseconds(),
		ScoreDelta:      0,
		NewSignals:      newSignals,
		ScamScore:       0,
		CumulativeScore: round4(s.runningScore),
		MaxScore:        round4(s.peakScore),
		Confidence:      1.0,
		Verdict:         VerdictSafe,
		Signals:         chunkSignals,
		Recommendation:  s.lastRecommendation,
	}, nil
}

// appendSignals adds chunk signals to the session log and returns the ones
// whose category has not been seen before, so a client can highlight what is
// new without re-rendering history.
func (s *StreamSession) appendSignals(chunkSignals []Signal) []Signal {
	newSignals := make([]Signal, 0)
	for _, sig := range chunkSignals {
		if !s.seenCategories[sig.Category] {
			s.seenCategories[sig.Category] = true
			newSignals = append(newSignals, sig)
		}
		s.signals = append(s.signals, sig)
	}
	return newSignals
}

// Finalize combines peak and running score into the terminal verdict and
// closes the session. The peak-weighted blend lets a single severe chunk
// dominate the final call even when surrounded by benign chunks.
func (s *StreamSession) Finalize() FinalResult {
	s.state = StreamStateFinalizing

	combined := round4(s.peakWeight*s.peakScore + s.runningWeight*s.runningScore)

	reviewRequired := false
	reviewReason := ""
	switch {
	case combined >= reviewBandLow && combined <= reviewBandHigh:
		reviewRequired = true
		reviewReason = ReviewReasonAmbiguous
	case s.chunkCount > 0 && s.runningScore < lowConfidenceThreshold && s.peakScore < lowConfidenceThreshold:
		reviewRequired = true
		reviewReason = ReviewReasonLowConfidence
	}

	s.state = StreamStateClosed

	return FinalResult{
		Type:              "final_result",
		TotalChunks:       s.chunkCount,
		CombinedScore:     combined,
		MaxScore:          round4(s.peakScore),
		Verdict:           s.thresholds.Classify(combined),
		Signals:           s.signals,
		Recommendation:    s.lastRecommendation,
		TranscriptSummary: s.lastSummary,
		ReviewRequired:    reviewRequired,
		ReviewReason:      reviewReason,
	}
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
