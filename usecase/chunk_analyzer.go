// Package usecase implements the application services: single-shot call
// analysis and per-chunk scoring for live streams. Services depend only on
// the repository interfaces; adapters are injected in main.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/callshield/callshield/domain/entities"
	"github.com/callshield/callshield/domain/repositories"
	"github.com/callshield/callshield/internal/audio"
	"github.com/callshield/callshield/internal/observe"
	"github.com/callshield/callshield/internal/response"
)

// Failure classes surfaced to transport handlers, which map them to distinct
// error codes.
var (
	// ErrModelFailure means the hosted model call itself failed.
	ErrModelFailure = errors.New("model scoring failed")

	// ErrParseFailure means the model answered but no analysis could be
	// extracted from its reply.
	ErrParseFailure = errors.New("model reply could not be parsed")
)

// ChunkAnalysis is the outcome of scoring one streaming chunk. Silent chunks
// carry no result; they never reach the model.
type ChunkAnalysis struct {
	Silent bool
	Result *entities.AnalysisResult
}

// ChunkAnalyzer gates, scores, and normalizes individual audio chunks. A
// weighted semaphore bounds concurrent model calls across all sessions.
type ChunkAnalyzer struct {
	scorer           repositories.AudioScorer
	sem              *semaphore.Weighted
	silenceThreshold float64
	provider         string
	metrics          *observe.Metrics
	logger           *zap.Logger
}

// NewChunkAnalyzer creates an analyzer with the given concurrency bound.
func NewChunkAnalyzer(scorer repositories.AudioScorer, maxConcurrent int64, silenceThreshold float64, provider string, metrics *observe.Metrics, logger *zap.Logger) *ChunkAnalyzer {
	return &ChunkAnalyzer{
		scorer:           scorer,
		sem:              semaphore.NewWeighted(maxConcurrent),
		silenceThreshold: silenceThreshold,
		provider:         provider,
		metrics:          metrics,
		logger:           logger,
	}
}

// Analyze runs one chunk through the silence gate and, when audible, the
// hosted model. Malformed audio is treated as silence rather than an error.
func (a *ChunkAnalyzer) Analyze(ctx context.Context, wav []byte) (ChunkAnalysis, error) {
	if audio.IsSilent(wav, a.silenceThreshold) {
		a.metrics.RecordChunk(ctx, "silent")
		return ChunkAnalysis{Silent: true}, nil
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return ChunkAnalysis{}, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}
	defer a.sem.Release(1)

	start := time.Now()
	raw, err := a.scorer.ScoreAudio(ctx, wav)
	a.metrics.RecordScoring(ctx, a.provider, time.Since(start).Seconds(), err)
	if err != nil {
		a.metrics.RecordChunk(ctx, "error")
		a.logger.Warn("Chunk scoring failed",
			zap.Int("chunk_bytes", len(wav)),
			zap.Error(err))
		return ChunkAnalysis{}, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	result, err := response.ParseAnalysisResult(raw)
	if err != nil {
		a.metrics.RecordChunk(ctx, "error")
		a.logger.Warn("Chunk reply unparseable", zap.Error(err))
		return ChunkAnalysis{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	a.metrics.RecordChunk(ctx, "scored")
	return ChunkAnalysis{Result: result}, nil
}
