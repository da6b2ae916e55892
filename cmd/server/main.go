package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/callshield/callshield/adapters/llm"
	"github.com/callshield/callshield/adapters/stt"
	"github.com/callshield/callshield/domain/repositories"
	"github.com/callshield/callshield/internal/api"
	"github.com/callshield/callshield/internal/auth"
	"github.com/callshield/callshield/internal/config"
	"github.com/callshield/callshield/internal/observe"
	"github.com/callshield/callshield/internal/stream"
	"github.com/callshield/callshield/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet.
		panic("invalid configuration: " + err.Error())
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "callshield",
		ServiceVersion: api.Version,
	})
	if err != nil {
		logger.Fatal("Failed to initialize metrics provider", zap.Error(err))
	}
	defer shutdownMetrics(ctx)

	metrics := observe.DefaultMetrics()

	audioScorer, textScorer, err := buildScorers(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize scoring client", zap.Error(err))
	}
	logger.Info("Scoring provider ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String("audio_model", cfg.AudioModel),
		zap.String("text_model", cfg.TextModel))

	// STT is optional; without Google credentials the escalation path falls
	// back to the audio model's own transcript summary.
	var transcriber repositories.Transcriber
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		transcriber = stt.NewGoogleTranscriber(logger)
		logger.Info("Escalation transcriber enabled")
	}

	analyzeService := usecase.NewAnalyzeService(audioScorer, textScorer, transcriber,
		cfg.EnableEscalation, string(cfg.Provider), metrics, logger)
	chunkAnalyzer := usecase.NewChunkAnalyzer(audioScorer, int64(cfg.MaxConcurrentScoring),
		cfg.Stream.SilenceRMSThreshold, string(cfg.Provider), metrics, logger)
	streamHandler := stream.NewHandler(cfg.Stream, cfg.Thresholds,
		cfg.PeakWeight, cfg.RunningWeight, chunkAnalyzer, metrics, logger)

	keyStore := auth.NewKeyStore(cfg.APIKeysFile, logger)
	authn := auth.NewAuthenticator(keyStore, cfg.JWTSecret, logger)
	if keyStore.Enabled() {
		logger.Info("API key authentication enabled", zap.String("keys_file", cfg.APIKeysFile))
	} else {
		logger.Warn("No API keys configured, endpoints are open")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.NewServer(cfg, analyzeService, streamHandler, authn, logger).Register(e)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildScorers selects the hosted-model client for the configured provider.
func buildScorers(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.AudioScorer, repositories.TranscriptScorer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		scorer, err := llm.NewGeminiScorer(ctx, cfg.GeminiAPIKey, cfg.AudioModel, cfg.TextModel, cfg.ModelTimeout, logger)
		if err != nil {
			return nil, nil, err
		}
		return scorer, scorer, nil

	case config.ProviderVoxtral:
		scorer, err := llm.NewVoxtralScorer(cfg.MistralAPIKey, cfg.AudioModel, cfg.TextModel, logger,
			llm.WithBaseURL(cfg.MistralBaseURL),
			llm.WithTimeout(cfg.ModelTimeout))
		if err != nil {
			return nil, nil, err
		}
		return scorer, scorer, nil

	default:
		scorer := llm.NewDemoScorer()
		return scorer, scorer, nil
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
