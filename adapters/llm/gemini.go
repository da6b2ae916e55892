// Package llm holds the hosted-model scoring clients. Each client sends one
// prompt plus payload per call and returns the raw reply text; parsing and
// normalization happen downstream so every provider shares one pipeline.
package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/callshield/callshield/domain/repositories"
)

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

// GeminiScorer scores calls through the Google Gemini API.
type GeminiScorer struct {
	client     *genai.Client
	logger     *zap.Logger
	audioModel string
	textModel  string
	timeout    time.Duration
}

// NewGeminiScorer creates a scorer backed by the Gemini API.
func NewGeminiScorer(ctx context.Context, apiKey, audioModel, textModel string, timeout time.Duration, logger *zap.Logger) (*GeminiScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiScorer{
		client:     client,
		logger:     logger,
		audioModel: audioModel,
		textModel:  textModel,
		timeout:    timeout,
	}, nil
}

// ScoreAudio sends one WAV chunk plus the scoring prompt and returns the raw
// reply text.
func (g *GeminiScorer) ScoreAudio(ctx context.Context, wav []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(ScamAudioPrompt),
		genai.NewPartFromBytes(wav, "audio/wav"),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return g.generate(ctx, g.audioModel, contents)
}

// ScoreTranscript sends a transcript plus the scoring prompt and returns the
// raw reply text.
func (g *GeminiScorer) ScoreTranscript(ctx context.Context, transcript string) (string, error) {
	prompt := ScamTextPrompt + "\n\nTranscript:\n" + transcript
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	return g.generate(ctx, g.textModel, contents)
}

func (g *GeminiScorer) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			break
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * retryBackoff):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", repositories.ErrNoCandidates
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", repositories.ErrEmptyReply
	}
	return text, nil
}
