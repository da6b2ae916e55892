// Package stream owns the WebSocket session controller for live call
// analysis. One connection maps to one session: chunks are scored strictly
// in arrival order, while the receive loop stays responsive to control
// messages and the receive timeout.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/callshield/callshield/domain/entities"
	"github.com/callshield/callshield/internal/config"
	"github.com/callshield/callshield/internal/observe"
	"github.com/callshield/callshield/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Outbound buffer per connection.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Analyzer scores one audio chunk through the full gate/score/normalize
// pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, wav []byte) (usecase.ChunkAnalysis, error)
}

// Handler upgrades connections and runs one controller per session.
type Handler struct {
	cfg           config.StreamConfig
	thresholds    entities.Thresholds
	peakWeight    float64
	runningWeight float64
	analyzer      Analyzer
	metrics       *observe.Metrics
	logger        *zap.Logger
}

// NewHandler creates the streaming handler.
func NewHandler(cfg config.StreamConfig, thresholds entities.Thresholds, peakWeight, runningWeight float64, analyzer Analyzer, metrics *observe.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:           cfg,
		thresholds:    thresholds,
		peakWeight:    peakWeight,
		runningWeight: runningWeight,
		analyzer:      analyzer,
		metrics:       metrics,
		logger:        logger,
	}
}

// inboundMessage is one frame read from the peer.
type inboundMessage struct {
	messageType int
	data        []byte
}

// scoringOutcome is the result of one off-loop scoring call.
type scoringOutcome struct {
	analysis usecase.ChunkAnalysis
	err      error
}

// session holds the per-connection plumbing around the aggregator entity.
type session struct {
	id      string
	conn    *websocket.Conn
	inbound chan inboundMessage
	send    chan []byte
	closed  chan struct{}
	logger  *zap.Logger
}

// Handle runs the full lifetime of one streaming connection.
func (h *Handler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	id := uuid.NewString()
	s := &session{
		id:      id,
		conn:    conn,
		inbound: make(chan inboundMessage, 8),
		send:    make(chan []byte, sendBufferSize),
		closed:  make(chan struct{}),
		logger:  h.logger.With(zap.String("session_id", id)),
	}

	// Oversized chunks are rejected per-chunk by the controller, so the
	// transport limit sits well above the configured cap.
	conn.SetReadLimit(4 * int64(h.cfg.MaxChunkBytes))

	ctx := context.Background()
	h.metrics.ActiveSessions.Add(ctx, 1)
	defer h.metrics.ActiveSessions.Add(ctx, -1)

	go s.writePump()
	go s.readPump()

	h.runController(ctx, s)

	close(s.closed)
	close(s.send)
	return nil
}

// runController is the sequential per-session loop. Scoring runs off-loop so
// control messages and the receive timeout stay live while a model call is
// in flight; chunks arriving meanwhile queue in order.
func (h *Handler) runController(ctx context.Context, s *session) {
	sess := entities.NewStreamSession(h.thresholds, h.peakWeight, h.runningWeight)
	s.logger.Info("Stream session started",
		zap.Int("max_chunks", h.cfg.MaxChunks),
		zap.Int("max_chunk_bytes", h.cfg.MaxChunkBytes))

	s.sendJSON(newConnectedMessage())

	timer := time.NewTimer(h.cfg.ReceiveTimeout)
	defer timer.Stop()

	var inflight chan scoringOutcome
	var pending [][]byte
	endRequested := false

	for {
		select {
		case msg, ok := <-s.inbound:
			if !ok {
				// Peer went away; nothing left to tell it.
				s.logger.Info("Client disconnected",
					zap.Int("chunks", sess.ChunkCount()))
				return
			}

			// The timeout clock measures client liveness, so any client
			// message resets it, even while scoring is in flight.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(h.cfg.ReceiveTimeout)

			switch msg.messageType {
			case websocket.TextMessage:
				control, err := ParseControl(msg.data)
				if err != nil {
					s.logger.Warn("Ignoring malformed control message", zap.Error(err))
					continue
				}
				if control.Type != controlEndStream {
					s.logger.Warn("Ignoring unknown control type",
						zap.String("type", control.Type))
					continue
				}
				endRequested = true
				pending = nil
				if inflight == nil {
					h.finalize(ctx, s, sess)
					return
				}
				// Let the in-flight call land, then finalize.

			case websocket.BinaryMessage:
				if endRequested {
					continue
				}
				if len(msg.data) > h.cfg.MaxChunkBytes {
					h.metrics.RecordChunk(ctx, "rejected")
					s.sendJSON(newErrorMessage(fmt.Sprintf(
						"chunk of %d bytes exceeds the %d byte limit", len(msg.data), h.cfg.MaxChunkBytes)))
					continue
				}
				// The queue is bounded by the remaining chunk budget; chunks
				// beyond it are rejected up front instead of buffering.
				queued := len(pending)
				if inflight != nil {
					queued++
				}
				if sess.ChunkCount()+queued >= h.cfg.MaxChunks {
					h.metrics.RecordChunk(ctx, "rejected")
					s.sendJSON(newErrorMessage(fmt.Sprintf(
						"session limit of %d chunks reached, chunk dropped", h.cfg.MaxChunks)))
					continue
				}
				if inflight != nil {
					pending = append(pending, msg.data)
					continue
				}
				inflight = h.dispatch(ctx, msg.data)

			default:
				s.logger.Warn("Ignoring unexpected message type",
					zap.Int("type", msg.messageType))
			}

		case outcome := <-inflight:
			inflight = nil
			h.applyOutcome(s, sess, outcome)

			if endRequested || sess.ChunkCount() >= h.cfg.MaxChunks {
				h.finalize(ctx, s, sess)
				return
			}
			if len(pending) > 0 {
				next := pending[0]
				pending = pending[1:]
				inflight = h.dispatch(ctx, next)
			}

		case <-timer.C:
			// Liveness failure is terminal: an error, no final result.
			s.logger.Warn("Receive timeout, ending session",
				zap.Duration("timeout", h.cfg.ReceiveTimeout),
				zap.Int("chunks", sess.ChunkCount()))
			s.sendJSON(newErrorMessage(fmt.Sprintf(
				"no data received within %s, closing session", h.cfg.ReceiveTimeout)))
			return
		}
	}
}

// dispatch runs one scoring call off-loop and delivers its outcome.
func (h *Handler) dispatch(ctx context.Context, chunk []byte) chan scoringOutcome {
	ch := make(chan scoringOutcome, 1)
	go func() {
		analysis, err := h.analyzer.Analyze(ctx, chunk)
		ch <- scoringOutcome{analysis: analysis, err: err}
	}()
	return ch
}

// applyOutcome folds one scoring outcome into the session. A failed chunk
// yields a per-chunk error and leaves all scores untouched.
func (h *Handler) applyOutcome(s *session, sess *entities.StreamSession, outcome scoringOutcome) {
	if outcome.err != nil {
		s.logger.Warn("Chunk scoring failed", zap.Error(outcome.err))
		s.sendJSON(newErrorMessage("chunk processing failed: " + outcome.err.Error()))
		return
	}

	var partial entities.PartialResult
	var err error
	if outcome.analysis.Silent {
		partial, err = sess.RecordSilence()
	} else {
		partial, err = sess.RecordChunk(outcome.analysis.Result)
	}
	if err != nil {
		s.logger.Warn("Dropping chunk result", zap.Error(err))
		return
	}
	s.sendJSON(partial)
}

func (h *Handler) finalize(ctx context.Context, s *session, sess *entities.StreamSession) {
	final := sess.Finalize()
	s.sendJSON(final)
	s.logger.Info("Stream session finalized",
		zap.Int("total_chunks", final.TotalChunks),
		zap.Float64("combined_score", final.CombinedScore),
		zap.String("verdict", string(final.Verdict)),
		zap.Bool("review_required", final.ReviewRequired))
}

// sendJSON queues one outbound message. Sends are best-effort; a slow or
// gone peer must never stall the controller.
func (s *session) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode outbound message", zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("Outbound buffer full, dropping message")
	}
}

// readPump forwards frames from the connection to the controller. It exits
// when the peer disconnects or the controller is done.
func (s *session) readPump() {
	defer close(s.inbound)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		select {
		case s.inbound <- inboundMessage{messageType: messageType, data: data}:
		case <-s.closed:
			return
		}
	}
}

// writePump serializes all writes to the connection. When the send channel
// closes it writes a close frame and tears the connection down, which also
// unblocks readPump.
func (s *session) writePump() {
	defer s.conn.Close()

	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("Failed to write message", zap.Error(err))
			// Keep draining so the controller never blocks on send.
		}
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
