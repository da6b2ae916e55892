// Package api registers the HTTP surface: health, single-shot analysis,
// token exchange, the metrics scrape endpoint, and the streaming upgrade.
package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/callshield/callshield/internal/auth"
	"github.com/callshield/callshield/internal/config"
	"github.com/callshield/callshield/internal/stream"
	"github.com/callshield/callshield/usecase"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// analyzeRatePerSecond bounds single-shot analysis requests per client IP.
const analyzeRatePerSecond = 10

// Server wires handlers to their collaborators.
type Server struct {
	cfg           *config.Config
	analyze       *usecase.AnalyzeService
	streamHandler *stream.Handler
	authn         *auth.Authenticator
	logger        *zap.Logger
}

// NewServer creates the HTTP layer.
func NewServer(cfg *config.Config, analyze *usecase.AnalyzeService, streamHandler *stream.Handler, authn *auth.Authenticator, logger *zap.Logger) *Server {
	return &Server{
		cfg:           cfg,
		analyze:       analyze,
		streamHandler: streamHandler,
		authn:         authn,
		logger:        logger,
	}
}

// Register attaches all routes to the echo instance.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/api/health", s.health)
	e.POST("/api/auth/token", s.issueToken)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	analyze := e.Group("/api/analyze",
		s.authn.Middleware(),
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(analyzeRatePerSecond))))
	analyze.POST("/audio", s.analyzeAudio)
	analyze.POST("/transcript", s.analyzeTranscript)

	e.GET("/ws/stream", s.wsStream)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Provider: string(s.cfg.Provider),
		Version:  Version,
	})
}

func (s *Server) analyzeAudio(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "missing_file",
			Detail: "Multipart field 'file' is required.",
		})
	}

	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".wav" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid_file_type",
			Detail: "Only .wav recordings are supported.",
		})
	}

	maxBytes := int64(s.cfg.MaxAudioSizeMB) << 20
	if fileHeader.Size > maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:  "file_too_large",
			Detail: "Recording exceeds the configured size limit.",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}
	defer file.Close()

	wav, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.logger.Error("Failed to read uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	report, err := s.analyze.AnalyzeAudio(c.Request().Context(), wav)
	if err != nil {
		return s.analysisError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) analyzeTranscript(c echo.Context) error {
	var req TranscriptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid_request",
			Detail: "Body must be JSON with a 'transcript' field.",
		})
	}

	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "empty_transcript",
			Detail: "Transcript must not be empty.",
		})
	}
	if len(transcript) > s.cfg.MaxTranscriptLength {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:  "transcript_too_long",
			Detail: "Transcript exceeds the configured length limit.",
		})
	}

	report, err := s.analyze.AnalyzeTranscript(c.Request().Context(), transcript)
	if err != nil {
		return s.analysisError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// analysisError maps pipeline failures to the error taxonomy. Upstream
// problems surface as 502, everything else as 500.
func (s *Server) analysisError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrModelFailure):
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:  "model_error",
			Detail: "The scoring model could not process the request.",
		})
	case errors.Is(err, usecase.ErrParseFailure):
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:  "parse_error",
			Detail: "The scoring model returned an unusable reply.",
		})
	default:
		s.logger.Error("Analysis failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}
}

func (s *Server) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil || req.APIKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "missing_api_key",
			Detail: "Body must be JSON with an 'api_key' field.",
		})
	}

	token, expiresAt, err := s.authn.IssueToken(req.APIKey)
	if err != nil {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:  "invalid_api_key",
			Detail: "Invalid or inactive API key.",
		})
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// wsStream authorizes the connection before the upgrade; once upgraded the
// controller owns the socket.
func (s *Server) wsStream(c echo.Context) error {
	if !s.authn.AllowWebSocket(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:  "invalid_api_key",
			Detail: "A valid API key or bearer token is required.",
		})
	}
	return s.streamHandler.Handle(c)
}
