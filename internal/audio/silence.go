// Package audio implements the cheap local admission filter applied to raw
// audio chunks before anything is sent to the hosted model.
package audio

import (
	"encoding/binary"
	"math"
)

// DefaultSilenceThreshold is the RMS amplitude below which a chunk is
// considered silent (hold music, dead air).
const DefaultSilenceThreshold = 500.0

// wavHeaderSize is the fixed RIFF/WAVE header length preceding the PCM
// payload in the chunks clients send.
const wavHeaderSize = 44

// RMS computes the root-mean-square amplitude of 16-bit PCM samples.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// IsSilent reports whether a chunk carries no meaningful audio. The chunk is
// expected to be a WAV blob: 44-byte header followed by 16-bit little-endian
// signed PCM. Anything undecodable (too short, odd byte count) counts as
// silent; a corrupt chunk must never crash or stall a session.
func IsSilent(chunk []byte, threshold float64) bool {
	if len(chunk) < wavHeaderSize+2 {
		return true
	}

	pcm := chunk[wavHeaderSize:]
	if len(pcm)%2 != 0 {
		return true
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	return RMS(samples) < threshold
}

// SampleRate reads the sample rate field from a WAV header, or falls back to
// the given default when the payload is too short to carry one.
func SampleRate(chunk []byte, fallback int) int {
	if len(chunk) < wavHeaderSize {
		return fallback
	}
	rate := int(binary.LittleEndian.Uint32(chunk[24:28]))
	if rate <= 0 {
		return fallback
	}
	return rate
}
