package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/database"
	"github.com/examprep/mcq-backend/internal/handler"
	"github.com/examprep/mcq-backend/internal/logger"
	"github.com/examprep/mcq-backend/internal/middleware"
	"github.com/examprep/mcq-backend/internal/quiz"
	"github.com/examprep/mcq-backend/internal/router"
	"github.com/examprep/mcq-backend/internal/service"
	"github.com/examprep/mcq-backend/internal/source"
	"github.com/examprep/mcq-backend/internal/validator"
	"github.com/examprep/mcq-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("question_source", cfg.QuestionSource).
		Strs("languages", cfg.Languages).
		Msg("Starting MCQ Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Question Source ───────────────────────────────────────────────
	var (
		bankSource quiz.QuestionSource
		lister     service.LanguageLister
	)
	switch cfg.QuestionSource {
	case config.SourcePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		pg := source.NewPostgresSource(pool)
		bankSource, lister = pg, pg
	case config.SourceFile:
		bankSource = source.NewFileSource(cfg.BankDir, cfg.Languages)
	default:
		log.Fatal().Str("question_source", cfg.QuestionSource).Msg("Unknown QUESTION_SOURCE")
	}

	// ─── Connect to Redis (optional bank cache) ────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	var cached *source.CachedSource
	if rdb != nil {
		defer rdb.Close()
		cached = source.NewCachedSource(bankSource, rdb, cfg.BankCacheTTL, log)
		bankSource = cached
	}

	// ─── Initialize Services ──────────────────────────────────────────
	quizService := service.NewQuizService(cfg, bankSource, log)
	if lister != nil {
		quizService.WithLanguageLister(lister)
	}
	defer quizService.Close()

	// ─── Prewarm Redis Cache ───────────────────────────────────────────
	// Load every playable bank into Redis before accepting traffic.
	if cached != nil {
		if err := cached.Prewarm(ctx, quizService.Languages(ctx)); err != nil {
			log.Warn().Err(err).Msg("Cache prewarm failed")
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.ActionRatePerMinute > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.ActionRatePerMinute, time.Minute)
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Quiz: handler.NewQuizHandler(quizService, cfg.LoadWait, log),
		WS:   handler.NewWSHandler(quizService, limiter, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	sweeper := worker.NewSessionSweeper(quizService, cfg.SessionIdle, log)
	go sweeper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(quizService, limiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the sweeper; deferred calls close sessions and connections.
	workerCancel()

	log.Info().Int("open_sessions", quizService.Count()).Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
