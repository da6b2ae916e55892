// Package repositories defines the capabilities the core consumes from
// external collaborators. Adapters implement them; usecases depend on them.
package repositories

import (
	"context"
	"errors"
)

// Upstream failure modes surfaced as distinct errors so callers can tell a
// transport problem from a degenerate reply. Transport and HTTP errors are
// wrapped SDK errors; these sentinels cover the reply-shape cases.
var (
	// ErrNoCandidates means the model endpoint answered but the response
	// carried no usable reply structure.
	ErrNoCandidates = errors.New("model response contains no candidates")

	// ErrEmptyReply means the model produced a reply with no text content.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// AudioScorer sends one audio chunk plus the fixed scoring prompt to the
// hosted model and returns the raw reply text. The call is opaque, possibly
// slow, and individually timeboxed by the implementation.
type AudioScorer interface {
	ScoreAudio(ctx context.Context, wav []byte) (string, error)
}

// TranscriptScorer sends a complete transcript plus the fixed scoring prompt
// to the hosted model and returns the raw reply text. Used for single-shot
// transcript analysis and the second-opinion escalation path.
type TranscriptScorer interface {
	ScoreTranscript(ctx context.Context, transcript string) (string, error)
}

// Transcriber converts call audio to text for the escalation path.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}
