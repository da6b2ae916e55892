package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host environment and .env
// files cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "LOG_LEVEL", "PROVIDER", "GEMINI_API_KEY", "MISTRAL_API_KEY",
		"MISTRAL_BASE_URL", "AUDIO_MODEL", "TEXT_MODEL", "MODEL_TIMEOUT_SECONDS",
		"MAX_AUDIO_SIZE_MB", "MAX_TRANSCRIPT_LENGTH", "MAX_CHUNK_BYTES",
		"MAX_CHUNKS_PER_SESSION", "RECEIVE_TIMEOUT_SECONDS", "SILENCE_RMS_THRESHOLD",
		"THRESHOLD_SAFE", "THRESHOLD_SUSPICIOUS", "THRESHOLD_LIKELY_SCAM",
		"PEAK_WEIGHT", "RUNNING_WEIGHT", "MAX_CONCURRENT_SCORING",
		"ENABLE_ESCALATION", "API_KEYS_FILE", "JWT_SECRET",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Provider != ProviderDemo {
		t.Errorf("provider = %v, want demo with no credentials", cfg.Provider)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.Stream.MaxChunkBytes != 512*1024 {
		t.Errorf("max chunk bytes = %d, want %d", cfg.Stream.MaxChunkBytes, 512*1024)
	}
	if cfg.Stream.MaxChunks != 60 {
		t.Errorf("max chunks = %d, want 60", cfg.Stream.MaxChunks)
	}
	if cfg.Stream.ReceiveTimeout != 30*time.Second {
		t.Errorf("receive timeout = %v, want 30s", cfg.Stream.ReceiveTimeout)
	}
	if cfg.Stream.SilenceRMSThreshold != 500 {
		t.Errorf("silence threshold = %v, want 500", cfg.Stream.SilenceRMSThreshold)
	}
	if cfg.Thresholds.Safe != 0.30 || cfg.Thresholds.Suspicious != 0.60 || cfg.Thresholds.LikelyScam != 0.85 {
		t.Errorf("thresholds = %+v, want 0.30/0.60/0.85", cfg.Thresholds)
	}
	if cfg.PeakWeight != 0.6 || cfg.RunningWeight != 0.4 {
		t.Errorf("finalize weights = %v/%v, want 0.6/0.4", cfg.PeakWeight, cfg.RunningWeight)
	}
	if cfg.ModelTimeout != 120*time.Second {
		t.Errorf("model timeout = %v, want 120s", cfg.ModelTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CHUNKS_PER_SESSION", "5")
	t.Setenv("RECEIVE_TIMEOUT_SECONDS", "10")
	t.Setenv("SILENCE_RMS_THRESHOLD", "750")
	t.Setenv("PEAK_WEIGHT", "0.7")
	t.Setenv("RUNNING_WEIGHT", "0.3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("port = %q, want 9000", cfg.Port)
	}
	if cfg.Stream.MaxChunks != 5 {
		t.Errorf("max chunks = %d, want 5", cfg.Stream.MaxChunks)
	}
	if cfg.Stream.ReceiveTimeout != 10*time.Second {
		t.Errorf("receive timeout = %v, want 10s", cfg.Stream.ReceiveTimeout)
	}
	if cfg.Stream.SilenceRMSThreshold != 750 {
		t.Errorf("silence threshold = %v, want 750", cfg.Stream.SilenceRMSThreshold)
	}
	if cfg.PeakWeight != 0.7 {
		t.Errorf("peak weight = %v, want 0.7", cfg.PeakWeight)
	}
}

func TestLoadProviderDetection(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != ProviderGemini {
		t.Errorf("provider = %v, want gemini", cfg.Provider)
	}
	if cfg.AudioModel != "gemini-2.0-flash" {
		t.Errorf("audio model = %q, want gemini default", cfg.AudioModel)
	}
}

func TestLoadVoxtralModels(t *testing.T) {
	clearEnv(t)
	t.Setenv("MISTRAL_API_KEY", "m-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Provider != ProviderVoxtral {
		t.Errorf("provider = %v, want voxtral", cfg.Provider)
	}
	if cfg.AudioModel != "voxtral-mini-latest" {
		t.Errorf("audio model = %q, want voxtral-mini-latest", cfg.AudioModel)
	}
	if cfg.TextModel != "mistral-large-latest" {
		t.Errorf("text model = %q, want mistral-large-latest", cfg.TextModel)
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"PROVIDER": "watson"}},
		{"gemini without key", map[string]string{"PROVIDER": "gemini"}},
		{"voxtral without key", map[string]string{"PROVIDER": "voxtral"}},
		{"descending thresholds", map[string]string{"THRESHOLD_SAFE": "0.9"}},
		{"weights not summing to one", map[string]string{"PEAK_WEIGHT": "0.9"}},
		{"zero chunk cap", map[string]string{"MAX_CHUNKS_PER_SESSION": "0"}},
		{"negative chunk bytes", map[string]string{"MAX_CHUNK_BYTES": "-1"}},
		{"zero scoring concurrency", map[string]string{"MAX_CONCURRENT_SCORING": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected a validation error, got none")
			}
		})
	}
}
