package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// newRouter builds the gin engine with recovery, request logging and all routes.
func newRouter(h *Handler, cfg *Config) *gin.Engine {
	if !cfg.isDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)
	return router
}

// corsHandler wraps the router so browser clients on CORS_ORIGINS can call the API.
func corsHandler(cfg *Config, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	}).Handler(next)
}

// gracefulShutdown waits for SIGINT/SIGTERM, then gives in-flight requests
// five seconds to finish.
func gracefulShutdown(ctx context.Context, server *http.Server, done chan<- struct{}) {
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shut down")
	}
	close(done)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)
	if cfg.DBUrl == "" {
		log.Fatal().Msg("DB_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := getDBPool(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer pool.Close()

	targets, err := newTargetCache(cfg.Nutrition, cfg.Strategy, cfg.TargetsCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid nutrition configuration")
	}

	h := &Handler{
		db:            pool,
		targets:       targets,
		openAIKey:     cfg.OpenAIKey,
		openAIBaseURL: cfg.OpenAIBaseURL,
		openAIModel:   cfg.OpenAIModel,
	}
	if h.openAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, meal estimates are disabled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler(cfg, newRouter(h, cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go gracefulShutdown(ctx, server, done)

	log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Str("strategy", cfg.Strategy).Msg("server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server error")
	}

	<-done
	log.Info().Msg("server exited")
}
