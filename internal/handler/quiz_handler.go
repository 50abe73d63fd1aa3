package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/middleware"
	"github.com/examprep/mcq-backend/internal/model"
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/response"
	"github.com/examprep/mcq-backend/internal/service"
	"github.com/examprep/mcq-backend/internal/validator"
)

// QuizHandler handles the quiz REST endpoints.
type QuizHandler struct {
	quizService *service.QuizService
	loadWait    time.Duration
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler. loadWait bounds how long start
// and load requests wait for the bank before answering.
func NewQuizHandler(quizService *service.QuizService, loadWait time.Duration, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		loadWait:    loadWait,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// ListLanguages godoc
// GET /api/v1/languages
func (h *QuizHandler) ListLanguages(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"languages": h.quizService.Languages(c.Request.Context()),
		"default":   h.quizService.ResolveLanguage(""),
	})
}

// StartSession godoc
// POST /api/v1/quiz/sessions
// Creates a session, issues its token and begins loading the requested bank.
func (h *QuizHandler) StartSession(c *gin.Context) {
	var req model.StartQuizRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	ticket, done, err := h.quizService.Start(c.Request.Context(), req.Language)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to start quiz session")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	waitForLoad(c.Request.Context(), done, h.loadWait)

	snap, err := h.quizService.Snapshot(ticket.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, model.StartQuizResponse{Session: ticket, Snapshot: snap})
}

// GetSession godoc
// GET /api/v1/quiz/session
func (h *QuizHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, err := h.quizService.Snapshot(claims.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// LoadBank godoc
// POST /api/v1/quiz/session/load
// Switches the session to another language, discarding any in-flight load.
func (h *QuizHandler) LoadBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.LoadBankRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	done, err := h.quizService.Load(c.Request.Context(), claims.SessionID, req.Language)
	if err != nil {
		h.fail(c, err)
		return
	}
	waitForLoad(c.Request.Context(), done, h.loadWait)

	snap, err := h.quizService.Snapshot(claims.SessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

// Answer godoc
// POST /api/v1/quiz/session/answer
// Records the selection for the current question. A second selection on the
// same question is ignored and reported with applied=false.
func (h *QuizHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		code := response.ErrValidation
		if _, bad := fields["option"]; bad && req.Option != "" {
			code = response.ErrInvalidOption
		}
		response.FailWithFields(c, http.StatusBadRequest, code, fields)
		return
	}

	key, ok := quiz.ParseOptionKey(req.Option)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidOption)
		return
	}

	snap, applied, err := h.quizService.Select(claims.SessionID, key)
	h.respondAction(c, snap, applied, err)
}

// Advance godoc
// POST /api/v1/quiz/session/advance
func (h *QuizHandler) Advance(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, applied, err := h.quizService.Advance(claims.SessionID)
	h.respondAction(c, snap, applied, err)
}

// Restart godoc
// POST /api/v1/quiz/session/restart
// Reshuffles the already loaded bank; no refetch happens.
func (h *QuizHandler) Restart(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap, applied, err := h.quizService.Restart(claims.SessionID)
	h.respondAction(c, snap, applied, err)
}

func (h *QuizHandler) respondAction(c *gin.Context, snap quiz.Snapshot, applied bool, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, model.ActionResponse{Applied: applied, Snapshot: snap})
}

func (h *QuizHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	h.log.Error().Err(err).Msg("Quiz request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// waitForLoad blocks until done closes, max elapses or ctx ends.
func waitForLoad(ctx context.Context, done <-chan struct{}, max time.Duration) {
	if max <= 0 {
		return
	}
	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	case <-ctx.Done():
	}
}
