package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cirqle-backend/config"
	_ "cirqle-backend/docs" // Important for Swagger
	"cirqle-backend/internal/delivery/http/middleware"
	v1 "cirqle-backend/internal/delivery/http/v1"
	"cirqle-backend/internal/domain"
	"cirqle-backend/internal/repository/memory"
	"cirqle-backend/internal/usecase"
	"cirqle-backend/pkg/auth"
	"cirqle-backend/pkg/gemini"
	"cirqle-backend/pkg/logger"
	"cirqle-backend/pkg/redis"
	"cirqle-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Cirqle API
// @version         1.0
// @description     Session-driven backend for the Cirqle social matching app.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting cirqle backend", "port", cfg.Port, "mode", cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Redis (optional, shared rate limit counters)
	var pingRedis func(context.Context) error
	if cfg.UpstashRedisURL != "" {
		if err := redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
			logger.Log.Warn("Redis unavailable - rate limiting falls back to memory", "error", err)
		} else {
			pingRedis = redis.HealthCheck
			defer redis.Close()
		}
	}

	// 4. Setup Activity Generator
	var generator domain.ActivityGenerator
	if cfg.HasGemini() {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Log.Error("Failed to create Gemini client - serving fallback suggestions", "error", err)
		} else {
			generator = client
			logger.Log.Info("Gemini generator enabled", "model", cfg.GeminiModel)
		}
	} else {
		logger.Log.Warn("GEMINI_API_KEY not set - serving fallback suggestions")
	}

	// 5. Setup Repositories & UseCases
	sessionRepo := memory.NewSessionRepository()
	suggestionUC := usecase.NewSuggestionUsecase(generator, cfg.GeminiTimeout)
	sessionUC := usecase.NewSessionUsecase(sessionRepo, suggestionUC, validation.New(), usecase.SessionOptions{
		Timing: domain.DefaultMatchingTiming(),
		TTL:    cfg.SessionTTL,
	})
	healthUC := usecase.NewHealthUsecase(sessionRepo, suggestionUC, pingRedis)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	go sessionUC.RunJanitor(janitorCtx, time.Minute)

	// 6. Setup Router
	rateLimiter := middleware.NewRateLimiter(redis.Client())
	defer rateLimiter.Close()

	router := v1.NewRouter(v1.RouterDeps{
		SessionUC:   sessionUC,
		HealthUC:    healthUC,
		Issuer:      auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		RateLimiter: rateLimiter,
		Config:      cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	stopJanitor()
	sessionUC.Shutdown()

	logger.Log.Info("Server exiting")
}
