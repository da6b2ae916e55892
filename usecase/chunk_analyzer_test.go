package usecase

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/callshield/callshield/internal/observe"
)

type stubAudioScorer struct {
	reply string
	err   error
	calls int
}

func (s *stubAudioScorer) ScoreAudio(_ context.Context, _ []byte) (string, error) {
	s.calls++
	return s.reply, s.err
}

// loudWAV builds a header plus samples well above any silence threshold.
func loudWAV(n int) []byte {
	buf := make([]byte, 44+2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[44+2*i:], uint16(int16(8000)))
	}
	return buf
}

func scoreReply(score float64) string {
	return fmt.Sprintf(`{"scam_score": %v, "confidence": 0.8, "verdict": "SUSPICIOUS", "signals": [], "recommendation": "Stay alert."}`, score)
}

func newChunkAnalyzer(scorer *stubAudioScorer) *ChunkAnalyzer {
	return NewChunkAnalyzer(scorer, 4, 500, "demo", observe.DefaultMetrics(), zap.NewNop())
}

func TestAnalyzeSilentChunkSkipsModel(t *testing.T) {
	scorer := &stubAudioScorer{reply: scoreReply(0.5)}
	analyzer := newChunkAnalyzer(scorer)

	// All-zero samples are below any positive threshold.
	silent := make([]byte, 44+2*100)
	analysis, err := analyzer.Analyze(context.Background(), silent)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !analysis.Silent {
		t.Error("all-zero chunk should be silent")
	}
	if analysis.Result != nil {
		t.Error("silent chunk should carry no result")
	}
	if scorer.calls != 0 {
		t.Errorf("model called %d times for silent chunk, want 0", scorer.calls)
	}
}

func TestAnalyzeMalformedChunkTreatedAsSilent(t *testing.T) {
	scorer := &stubAudioScorer{reply: scoreReply(0.5)}
	analyzer := newChunkAnalyzer(scorer)

	tests := []struct {
		name  string
		chunk []byte
	}{
		{"empty", nil},
		{"shorter than header", []byte{1, 2, 3}},
		{"odd sample bytes", append(make([]byte, 44), 0xFF)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := analyzer.Analyze(context.Background(), tt.chunk)
			if err != nil {
				t.Fatalf("Analyze returned error: %v", err)
			}
			if !analysis.Silent {
				t.Error("malformed chunk should be treated as silent")
			}
		})
	}
	if scorer.calls != 0 {
		t.Errorf("model called %d times, want 0", scorer.calls)
	}
}

func TestAnalyzeAudibleChunk(t *testing.T) {
	scorer := &stubAudioScorer{reply: scoreReply(0.72)}
	analyzer := newChunkAnalyzer(scorer)

	analysis, err := analyzer.Analyze(context.Background(), loudWAV(200))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if analysis.Silent {
		t.Error("loud chunk should not be silent")
	}
	if analysis.Result == nil || analysis.Result.ScamScore != 0.72 {
		t.Errorf("result = %+v, want scam score 0.72", analysis.Result)
	}
	if scorer.calls != 1 {
		t.Errorf("model called %d times, want 1", scorer.calls)
	}
}

func TestAnalyzeModelFailure(t *testing.T) {
	scorer := &stubAudioScorer{err: errors.New("upstream down")}
	analyzer := newChunkAnalyzer(scorer)

	_, err := analyzer.Analyze(context.Background(), loudWAV(200))
	if !errors.Is(err, ErrModelFailure) {
		t.Errorf("err = %v, want ErrModelFailure", err)
	}
}

func TestAnalyzeUnparseableReply(t *testing.T) {
	scorer := &stubAudioScorer{reply: "I could not analyze this call, sorry."}
	analyzer := newChunkAnalyzer(scorer)

	_, err := analyzer.Analyze(context.Background(), loudWAV(200))
	if !errors.Is(err, ErrParseFailure) {
		t.Errorf("err = %v, want ErrParseFailure", err)
	}
}
