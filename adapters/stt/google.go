// Package stt adapts Google Cloud Speech-to-Text for the escalation path,
// which needs a full-call transcript for a text second opinion.
package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/callshield/callshield/internal/audio"
)

const (
	defaultSampleRate = 16000
	languageCode      = "en-US"
)

// GoogleTranscriber implements one-shot transcription over Google Cloud
// Speech-to-Text. Credentials come from the ambient GOOGLE_APPLICATION_CREDENTIALS
// environment.
type GoogleTranscriber struct {
	logger *zap.Logger
}

// NewGoogleTranscriber creates a transcriber.
func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{logger: logger}
}

// Transcribe converts a WAV recording to text. The sample rate is read from
// the WAV header; concatenated chunk streams keep the first header's rate.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	sampleRate := audio.SampleRate(wav, defaultSampleRate)

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	g.logger.Debug("Transcribed audio for escalation",
		zap.Int("audio_bytes", len(wav)),
		zap.Int("transcript_length", len(transcript)))

	return transcript, nil
}
