package response

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/callshield/callshield/domain/entities"
)

// Blend weights when both an audio and a text analysis exist for one call.
const (
	audioWeight = 0.6
	textWeight  = 0.4
)

// ErrNoAnalysis is returned when a report is requested with no results.
var ErrNoAnalysis = errors.New("at least one analysis result is required")

// BuildScamReport assembles the unified single-shot report from one or both
// analysis results. With both present the audio verdict dominates the blend;
// with one, its score passes through unchanged.
func BuildScamReport(mode string, audioResult, textResult *entities.AnalysisResult, startedAt time.Time) (*entities.ScamReport, error) {
	var combined float64
	switch {
	case audioResult != nil && textResult != nil:
		combined = audioWeight*audioResult.ScamScore + textWeight*textResult.ScamScore
	case audioResult != nil:
		combined = audioResult.ScamScore
	case textResult != nil:
		combined = textResult.ScamScore
	default:
		return nil, ErrNoAnalysis
	}

	elapsed := float64(time.Since(startedAt).Microseconds()) / 1000.0

	return &entities.ScamReport{
		ID:               fmt.Sprintf("analysis_%s", uuid.NewString()),
		Mode:             mode,
		AudioAnalysis:    audioResult,
		TextAnalysis:     textResult,
		CombinedScore:    math.Round(combined*10000) / 10000,
		ProcessingTimeMs: math.Round(elapsed*100) / 100,
	}, nil
}
