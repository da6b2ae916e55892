package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/callshield/callshield/domain/entities"
	"github.com/callshield/callshield/domain/repositories"
	"github.com/callshield/callshield/internal/observe"
	"github.com/callshield/callshield/internal/response"
)

// Audio scores inside this band trigger a transcript second opinion when
// escalation is enabled.
const (
	escalationBandLow  = 0.35
	escalationBandHigh = 0.65
)

// AnalyzeService implements the single-shot analysis operations.
type AnalyzeService struct {
	audioScorer repositories.AudioScorer
	textScorer  repositories.TranscriptScorer
	transcriber repositories.Transcriber // optional; nil disables STT
	escalation  bool
	provider    string
	metrics     *observe.Metrics
	logger      *zap.Logger
}

// NewAnalyzeService wires the scoring clients into the analysis service.
func NewAnalyzeService(audioScorer repositories.AudioScorer, textScorer repositories.TranscriptScorer, transcriber repositories.Transcriber, escalation bool, provider string, metrics *observe.Metrics, logger *zap.Logger) *AnalyzeService {
	return &AnalyzeService{
		audioScorer: audioScorer,
		textScorer:  textScorer,
		transcriber: transcriber,
		escalation:  escalation,
		provider:    provider,
		metrics:     metrics,
		logger:      logger,
	}
}

// AnalyzeAudio scores one complete recording. An ambiguous audio score gets
// a best-effort transcript second opinion; the two scores are then blended
// in the report.
func (s *AnalyzeService) AnalyzeAudio(ctx context.Context, wav []byte) (*entities.ScamReport, error) {
	startedAt := time.Now()

	raw, err := s.audioScorer.ScoreAudio(ctx, wav)
	s.metrics.RecordScoring(ctx, s.provider, time.Since(startedAt).Seconds(), err)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, "audio", "model_error")
		return nil, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	audioResult, err := response.ParseAnalysisResult(raw)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, "audio", "parse_error")
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	var textResult *entities.AnalysisResult
	if s.escalation && audioResult.ScamScore >= escalationBandLow && audioResult.ScamScore <= escalationBandHigh {
		textResult = s.secondOpinion(ctx, wav, audioResult)
	}

	report, err := response.BuildScamReport("audio", audioResult, textResult, startedAt)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAnalysis(ctx, "audio", "ok")
	s.logger.Info("Audio analysis complete",
		zap.String("analysis_id", report.ID),
		zap.Float64("combined_score", report.CombinedScore),
		zap.String("verdict", string(audioResult.Verdict)),
		zap.Bool("escalated", textResult != nil))

	return report, nil
}

// AnalyzeTranscript scores one complete transcript.
func (s *AnalyzeService) AnalyzeTranscript(ctx context.Context, transcript string) (*entities.ScamReport, error) {
	startedAt := time.Now()

	raw, err := s.textScorer.ScoreTranscript(ctx, transcript)
	s.metrics.RecordScoring(ctx, s.provider, time.Since(startedAt).Seconds(), err)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, "text", "model_error")
		return nil, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}

	textResult, err := response.ParseAnalysisResult(raw)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, "text", "parse_error")
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	report, err := response.BuildScamReport("text", nil, textResult, startedAt)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordAnalysis(ctx, "text", "ok")
	s.logger.Info("Transcript analysis complete",
		zap.String("analysis_id", report.ID),
		zap.Float64("combined_score", report.CombinedScore),
		zap.String("verdict", string(textResult.Verdict)))

	return report, nil
}

// secondOpinion obtains a transcript and scores it through the text model.
// Every step is best effort: on any failure the audio result stands alone.
func (s *AnalyzeService) secondOpinion(ctx context.Context, wav []byte, audioResult *entities.AnalysisResult) *entities.AnalysisResult {
	transcript := s.obtainTranscript(ctx, wav, audioResult)
	if transcript == "" {
		s.logger.Debug("Escalation skipped, no transcript available")
		return nil
	}

	raw, err := s.textScorer.ScoreTranscript(ctx, transcript)
	if err != nil {
		s.logger.Warn("Escalation text scoring failed, keeping audio verdict", zap.Error(err))
		return nil
	}

	result, err := response.ParseAnalysisResult(raw)
	if err != nil {
		s.logger.Warn("Escalation reply unparseable, keeping audio verdict", zap.Error(err))
		return nil
	}

	s.logger.Info("Escalation second opinion obtained",
		zap.Float64("audio_score", audioResult.ScamScore),
		zap.Float64("text_score", result.ScamScore))
	return result
}

// obtainTranscript prefers real STT and falls back to the audio model's own
// transcript summary.
func (s *AnalyzeService) obtainTranscript(ctx context.Context, wav []byte, audioResult *entities.AnalysisResult) string {
	if s.transcriber != nil {
		transcript, err := s.transcriber.Transcribe(ctx, wav)
		if err == nil {
			return transcript
		}
		s.logger.Warn("Transcription failed, falling back to model summary", zap.Error(err))
	}
	return audioResult.TranscriptSummary
}
