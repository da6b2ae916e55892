// Package config loads and validates the process-wide configuration. A
// single Config value is constructed in main and passed by reference; there
// are no ambient globals.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/callshield/callshield/domain/entities"
)

// Provider selects which hosted model backs the scoring client.
type Provider string

const (
	// ProviderGemini scores through the Google Gemini API.
	ProviderGemini Provider = "gemini"

	// ProviderVoxtral scores through the Mistral Voxtral chat completions
	// API (OpenAI-compatible surface).
	ProviderVoxtral Provider = "voxtral"

	// ProviderDemo serves canned replies; no credentials needed.
	ProviderDemo Provider = "demo"
)

// IsValid reports whether p is a recognised provider.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGemini, ProviderVoxtral, ProviderDemo:
		return true
	}
	return false
}

// StreamConfig bounds one live streaming session.
type StreamConfig struct {
	// MaxChunkBytes caps a single binary message. Oversized chunks are
	// rejected individually without ending the session.
	MaxChunkBytes int

	// MaxChunks caps chunks per session; reaching it finalizes.
	MaxChunks int

	// ReceiveTimeout is the longest the server waits for the next client
	// message before ending the session.
	ReceiveTimeout time.Duration

	// SilenceRMSThreshold is the RMS amplitude below which a chunk skips
	// the hosted model entirely.
	SilenceRMSThreshold float64
}

// Config is the root configuration, loaded once at startup.
type Config struct {
	Port     string
	LogLevel string

	Provider       Provider
	GeminiAPIKey   string
	MistralAPIKey  string
	MistralBaseURL string
	AudioModel     string
	TextModel      string
	ModelTimeout   time.Duration

	MaxAudioSizeMB      int
	MaxTranscriptLength int

	Stream StreamConfig

	Thresholds    entities.Thresholds
	PeakWeight    float64
	RunningWeight float64

	MaxConcurrentScoring int
	EnableEscalation     bool

	APIKeysFile string
	JWTSecret   string
}

// Load reads configuration from the environment (and a .env file when
// present), applies defaults, and validates the result.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     envString("PORT", "8080"),
		LogLevel: envString("LOG_LEVEL", "info"),

		Provider:       Provider(envString("PROVIDER", "")),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		MistralAPIKey:  os.Getenv("MISTRAL_API_KEY"),
		MistralBaseURL: envString("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		AudioModel:     envString("AUDIO_MODEL", ""),
		TextModel:      envString("TEXT_MODEL", ""),
		ModelTimeout:   time.Duration(envInt("MODEL_TIMEOUT_SECONDS", 120)) * time.Second,

		MaxAudioSizeMB:      envInt("MAX_AUDIO_SIZE_MB", 25),
		MaxTranscriptLength: envInt("MAX_TRANSCRIPT_LENGTH", 10000),

		Stream: StreamConfig{
			MaxChunkBytes:       envInt("MAX_CHUNK_BYTES", 512*1024),
			MaxChunks:           envInt("MAX_CHUNKS_PER_SESSION", 60),
			ReceiveTimeout:      time.Duration(envInt("RECEIVE_TIMEOUT_SECONDS", 30)) * time.Second,
			SilenceRMSThreshold: envFloat("SILENCE_RMS_THRESHOLD", 500),
		},

		Thresholds: entities.Thresholds{
			Safe:       envFloat("THRESHOLD_SAFE", 0.30),
			Suspicious: envFloat("THRESHOLD_SUSPICIOUS", 0.60),
			LikelyScam: envFloat("THRESHOLD_LIKELY_SCAM", 0.85),
		},
		PeakWeight:    envFloat("PEAK_WEIGHT", 0.6),
		RunningWeight: envFloat("RUNNING_WEIGHT", 0.4),

		MaxConcurrentScoring: envInt("MAX_CONCURRENT_SCORING", 8),
		EnableEscalation:     envBool("ENABLE_ESCALATION", true),

		APIKeysFile: envString("API_KEYS_FILE", "api_keys.json"),
		JWTSecret:   envString("JWT_SECRET", ""),
	}

	if cfg.Provider == "" {
		cfg.Provider = detectProvider(cfg)
	}
	applyModelDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// detectProvider picks a provider from the credentials on hand. With no
// credentials at all the server runs in demo mode.
func detectProvider(cfg *Config) Provider {
	switch {
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	case cfg.MistralAPIKey != "":
		return ProviderVoxtral
	default:
		return ProviderDemo
	}
}

func applyModelDefaults(cfg *Config) {
	if cfg.AudioModel == "" {
		switch cfg.Provider {
		case ProviderGemini:
			cfg.AudioModel = "gemini-2.0-flash"
		case ProviderVoxtral:
			cfg.AudioModel = "voxtral-mini-latest"
		}
	}
	if cfg.TextModel == "" {
		switch cfg.Provider {
		case ProviderGemini:
			cfg.TextModel = "gemini-2.0-flash"
		case ProviderVoxtral:
			cfg.TextModel = "mistral-large-latest"
		}
	}
}

// Validate checks cross-field consistency. Limits must be configurable but
// still sane.
func (c *Config) Validate() error {
	if !c.Provider.IsValid() {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Provider == ProviderGemini && c.GeminiAPIKey == "" {
		return fmt.Errorf("provider gemini requires GEMINI_API_KEY")
	}
	if c.Provider == ProviderVoxtral && c.MistralAPIKey == "" {
		return fmt.Errorf("provider voxtral requires MISTRAL_API_KEY")
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid verdict thresholds: %w", err)
	}

	if c.PeakWeight < 0 || c.RunningWeight < 0 {
		return fmt.Errorf("finalize weights must be non-negative")
	}
	if math.Abs(c.PeakWeight+c.RunningWeight-1.0) > 0.001 {
		return fmt.Errorf("finalize weights must sum to 1.0, got %v", c.PeakWeight+c.RunningWeight)
	}

	if c.Stream.MaxChunkBytes <= 0 {
		return fmt.Errorf("MAX_CHUNK_BYTES must be positive, got %d", c.Stream.MaxChunkBytes)
	}
	if c.Stream.MaxChunks <= 0 {
		return fmt.Errorf("MAX_CHUNKS_PER_SESSION must be positive, got %d", c.Stream.MaxChunks)
	}
	if c.Stream.ReceiveTimeout <= 0 {
		return fmt.Errorf("RECEIVE_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxConcurrentScoring <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_SCORING must be positive, got %d", c.MaxConcurrentScoring)
	}

	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
