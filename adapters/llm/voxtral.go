package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"github.com/callshield/callshield/domain/repositories"
)

// VoxtralScorer scores calls through the Mistral API, which exposes an
// OpenAI-compatible chat completions surface. Audio goes to a Voxtral model
// as a base64 input_audio content part; transcripts go to a text model.
type VoxtralScorer struct {
	client     oai.Client
	logger     *zap.Logger
	audioModel string
	textModel  string
}

// voxtralConfig holds optional configuration for the scorer.
type voxtralConfig struct {
	baseURL string
	timeout time.Duration
}

// VoxtralOption is a functional option for VoxtralScorer.
type VoxtralOption func(*voxtralConfig)

// WithBaseURL overrides the default Mistral API base URL.
func WithBaseURL(url string) VoxtralOption {
	return func(c *voxtralConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) VoxtralOption {
	return func(c *voxtralConfig) {
		c.timeout = d
	}
}

// NewVoxtralScorer creates a scorer backed by the Mistral API.
func NewVoxtralScorer(apiKey, audioModel, textModel string, logger *zap.Logger, opts ...VoxtralOption) (*VoxtralScorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mistral API key is required")
	}

	cfg := &voxtralConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &VoxtralScorer{
		client:     oai.NewClient(reqOpts...),
		logger:     logger,
		audioModel: audioModel,
		textModel:  textModel,
	}, nil
}

// ScoreAudio sends one WAV chunk plus the scoring prompt and returns the raw
// reply text.
func (v *VoxtralScorer) ScoreAudio(ctx context.Context, wav []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(wav)

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(v.audioModel),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.InputAudioContentPart(oai.ChatCompletionContentPartInputAudioInputAudioParam{
					Data:   encoded,
					Format: "wav",
				}),
				oai.TextContentPart(ScamAudioPrompt),
			}),
		},
	}
	return v.complete(ctx, params)
}

// ScoreTranscript sends a transcript plus the scoring prompt and returns the
// raw reply text.
func (v *VoxtralScorer) ScoreTranscript(ctx context.Context, transcript string) (string, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(v.textModel),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage(ScamTextPrompt + "\n\nTranscript:\n" + transcript),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	return v.complete(ctx, params)
}

func (v *VoxtralScorer) complete(ctx context.Context, params oai.ChatCompletionNewParams) (string, error) {
	var resp *oai.ChatCompletion
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = v.client.Chat.Completions.New(ctx, params)
		if err == nil {
			break
		}

		v.logger.Warn("Chat completion failed, retrying",
			zap.String("model", string(params.Model)),
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
		return "", fmt.Errorf("voxtral chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", repositories.ErrNoCandidates
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", repositories.ErrEmptyReply
	}
	return content, nil
}
