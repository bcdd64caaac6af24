package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"lg/nutriflex-api/internal/nutrition"
)

// Handler holds shared dependencies (db pool, target calculator, LLM config) for all route handlers.
type Handler struct {
	db      *pgxpool.Pool
	targets *targetCache

	openAIKey     string
	openAIBaseURL string // overridable for tests
	openAIModel   string
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Scan errors other than ErrNoRows are logged (usually a struct/column mismatch).
func queryOne[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Error().Err(err).Msg("[queryOne] query failed")
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Error().Err(err).Msg("[queryOne] scan failed")
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Error().Err(err).Msg("[queryMany] query failed")
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Error().Err(err).Msg("[queryMany] scan failed")
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// engineStatus maps a nutrition engine error to an HTTP status. Malformed
// input is the caller's fault; a well-formed request the engine refuses on
// safety grounds is unprocessable.
func engineStatus(err error) int {
	switch {
	case errors.Is(err, nutrition.ErrInvalidProfile), errors.Is(err, nutrition.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, nutrition.ErrUnsafeTarget), errors.Is(err, nutrition.ErrExcessTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errProfileIncomplete):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// engineError answers with the status engineStatus picks. Unexpected errors
// are logged and hidden behind a generic message.
func engineError(c *gin.Context, err error) {
	status := engineStatus(err)
	if status == http.StatusInternalServerError {
		reqLog(c).Error().Err(err).Msg("nutrition calculation failed")
		apiError(c, status, "failed to compute targets")
		return
	}
	apiError(c, status, err.Error())
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool and pings it.
func getDBPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 5 * time.Minute
	// Simple protocol avoids "cached plan must not change result type" after migrations.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/api/login", h.login)
	router.POST("/api/targets/preview", h.previewTargets)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.GET("/profile/strategies", h.getStrategies)
	api.GET("/meal-log/daily", h.getDailySummary)
	api.GET("/meal-log/week-summary", h.getWeekSummary)
	api.POST("/meal-log/entries", h.createMealEntry)
	api.PUT("/meal-log/entries/:id", h.updateMealEntry)
	api.DELETE("/meal-log/entries/:id", h.deleteMealEntry)
	api.POST("/meals/estimate", h.estimateMeal)
	api.POST("/banking-plans", h.createBankingPlan)
	api.GET("/banking-plans", h.getBankingDays)
	api.GET("/weight-log", h.getWeightLog)
	api.POST("/weight-log", h.upsertWeightEntry)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)
}
