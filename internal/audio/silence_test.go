package audio

import (
	"encoding/binary"
	"testing"
)

// wavBytes builds a minimal WAV-like blob: 44-byte dummy header followed by
// 16-bit little-endian PCM samples.
func wavBytes(samples []int16) []byte {
	buf := make([]byte, 44+len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}

func repeat(pattern []int16, n int) []int16 {
	out := make([]int16, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func TestIsSilent(t *testing.T) {
	tests := []struct {
		name      string
		chunk     []byte
		threshold float64
		want      bool
	}{
		{"all zeros", wavBytes(make([]int16, 100)), DefaultSilenceThreshold, true},
		{"low rms below threshold", wavBytes(repeat([]int16{10, -10}, 50)), DefaultSilenceThreshold, true},
		{"loud audio", wavBytes(repeat([]int16{20000, -20000}, 50)), DefaultSilenceThreshold, false},
		{"header only", make([]byte, 44), DefaultSilenceThreshold, true},
		{"too short for one sample", append(make([]byte, 44), 0x01), DefaultSilenceThreshold, true},
		{"empty input", nil, DefaultSilenceThreshold, true},
		{"odd byte count", append(wavBytes(repeat([]int16{20000, -20000}, 50)), 0x7f), DefaultSilenceThreshold, true},
		{"silent at high threshold", wavBytes(repeat([]int16{5000, -5000}, 50)), 30000, true},
		{"loud at low threshold", wavBytes(repeat([]int16{5000, -5000}, 50)), 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSilent(tt.chunk, tt.threshold); got != tt.want {
				t.Errorf("IsSilent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %v, want 0", got)
	}

	// constant amplitude: RMS equals the amplitude
	if got := RMS(repeat([]int16{1000, -1000}, 10)); got != 1000 {
		t.Errorf("RMS of ±1000 square wave = %v, want 1000", got)
	}
}

func TestSampleRate(t *testing.T) {
	chunk := wavBytes(make([]int16, 10))
	binary.LittleEndian.PutUint32(chunk[24:28], 16000)

	if got := SampleRate(chunk, 8000); got != 16000 {
		t.Errorf("SampleRate = %d, want 16000", got)
	}
	if got := SampleRate(nil, 8000); got != 8000 {
		t.Errorf("SampleRate fallback = %d, want 8000", got)
	}
	if got := SampleRate(make([]byte, 44), 8000); got != 8000 {
		t.Errorf("SampleRate zero field fallback = %d, want 8000", got)
	}
}
