package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/examprep/mcq-backend/internal/config"
	"github.com/examprep/mcq-backend/internal/handler"
	"github.com/examprep/mcq-backend/internal/middleware"
	"github.com/examprep/mcq-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Quiz *handler.QuizHandler
	WS   *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable action rate limiting.
func SetupRouter(
	tokens middleware.TokenValidator,
	limiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	actionLimit := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		actionLimit = limiter.Middleware()
	}

	// ─── 1. Public Group ───────────────────────────────────────────────
	api := router.Group("/api/v1")
	{
		api.GET("/languages", middleware.CacheControl(300), handlers.Quiz.ListLanguages)
		api.POST("/quiz/sessions", middleware.NoStore(), actionLimit, handlers.Quiz.StartSession)
	}

	// ─── 2. Session Group (Quiz Token) ─────────────────────────────────
	session := router.Group("/api/v1/quiz/session")
	session.Use(middleware.NoStore(), middleware.RequireQuizToken(tokens))
	{
		session.GET("", handlers.Quiz.GetSession)
		session.POST("/load", actionLimit, handlers.Quiz.LoadBank)
		session.POST("/answer", actionLimit, handlers.Quiz.Answer)
		session.POST("/advance", actionLimit, handlers.Quiz.Advance)
		session.POST("/restart", actionLimit, handlers.Quiz.Restart)
	}

	// ─── 3. WebSocket Group (Quiz Token via ?token=) ───────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireQuizToken(tokens))
	{
		ws.GET("/quiz/stream", handlers.WS.QuizStream)
	}

	return router
}
