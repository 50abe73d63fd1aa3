package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/middleware"
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/response"
	"github.com/examprep/mcq-backend/internal/service"
	ws "github.com/examprep/mcq-backend/internal/websocket"
)

const outboundBuffer = 8

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams quiz snapshots and accepts quiz actions over WebSocket.
type WSHandler struct {
	quizService *service.QuizService
	limiter     *middleware.RateLimiter
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. limiter may be nil.
func NewWSHandler(quizService *service.QuizService, limiter *middleware.RateLimiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		limiter:     limiter,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream?token=
// Sends the current snapshot on connect and after every change.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	sessionID := claims.SessionID

	snapshots, unsubscribe, err := h.quizService.Subscribe(sessionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Quiz stream connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	outbound := make(chan interface{}, outboundBuffer)
	if snap, err := h.quizService.Snapshot(sessionID); err == nil {
		outbound <- ws.NewSnapshot(snap)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, wsLog, snapshots, outbound)
		// Unblock the reader once the stream can no longer be written.
		conn.Close()
	}()

	h.readLoop(ctx, conn, wsLog, sessionID, outbound)
	cancel()
	<-writerDone
	wsLog.Info().Msg("Quiz stream disconnected")
}

// writeLoop is the only goroutine that writes to conn.
func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, snapshots <-chan quiz.Snapshot, outbound <-chan interface{}) {
	for {
		var msg interface{}
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				// Session closed or swept.
				_ = ws.WriteError(conn, response.GetMessage(response.ErrSessionNotFound))
				return
			}
			msg = ws.NewSnapshot(snap)
		case msg = <-outbound:
		}

		if err := ws.WriteTyped(conn, msg); err != nil {
			log.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, sessionID uuid.UUID, outbound chan<- interface{}) {
	reply := func(v interface{}) {
		select {
		case outbound <- v:
		case <-ctx.Done():
		}
	}

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if isBadPayload(err) {
				reply(ws.NewError(response.GetMessage(response.ErrInvalidPayload)))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			} else {
				log.Debug().Msg("Connection closed")
			}
			return
		}

		if msg.Action != ws.ActionPing && h.limiter != nil && !h.limiter.Allow("session:"+sessionID.String()) {
			reply(ws.NewError(response.GetMessage(response.ErrRateLimitExceeded)))
			continue
		}

		if out := h.dispatch(ctx, log, sessionID, &msg); out != nil {
			reply(out)
		}
	}
}

// dispatch applies one action. Applied actions reach the client through the
// subscription; the returned value is an extra direct reply, if any.
func (h *WSHandler) dispatch(ctx context.Context, log zerolog.Logger, sessionID uuid.UUID, msg *ws.RequestPayload) interface{} {
	var (
		snap    quiz.Snapshot
		applied bool
		err     error
	)

	switch msg.Action {
	case ws.ActionPing:
		h.quizService.Touch(sessionID)
		return ws.PongResponse{Event: ws.EventPong}
	case ws.ActionSelect:
		key, ok := quiz.ParseOptionKey(msg.Option)
		if !ok {
			return ws.NewError(response.GetMessage(response.ErrInvalidOption))
		}
		snap, applied, err = h.quizService.Select(sessionID, key)
	case ws.ActionAdvance:
		snap, applied, err = h.quizService.Advance(sessionID)
	case ws.ActionRestart:
		snap, applied, err = h.quizService.Restart(sessionID)
	case ws.ActionLoad:
		_, err = h.quizService.Load(ctx, sessionID, msg.Language)
		applied = true
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		return ws.NewError("unknown action: " + string(msg.Action))
	}

	if err != nil {
		return ws.NewError(response.GetMessage(response.ErrSessionNotFound))
	}
	if !applied {
		// Nothing was published; echo the unchanged state.
		return ws.NewSnapshot(snap)
	}
	return nil
}

func isBadPayload(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
