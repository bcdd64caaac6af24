package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"lg/nutriflex-api/internal/nutrition"
)

// Config is the process configuration, read once at startup from .env and the environment.
type Config struct {
	Port        string
	DBUrl       string
	AppEnv      string
	LogLevel    string
	CORSOrigins []string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// Strategy is the macro split used for profiles that don't pick one.
	Strategy         string
	TargetsCacheSize int
	Nutrition        nutrition.Config
}

// loadConfig reads .env (if present) and the environment. Malformed numbers
// are reported rather than replaced with defaults.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		DBUrl:         getEnv("DB_URL", ""),
		AppEnv:        normalizeEnv(getEnv("APP_ENV", "production")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: strings.TrimRight(getEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Strategy:      getEnv("NUTRITION_STRATEGY", "balanced"),
		Nutrition:     nutrition.DefaultConfig(),
	}

	var err error
	if cfg.Nutrition.DeficitKcal, err = getEnvFloat("NUTRITION_DEFICIT_KCAL", nutrition.DefaultDeficitKcal); err != nil {
		return nil, err
	}
	if cfg.Nutrition.SurplusKcal, err = getEnvFloat("NUTRITION_SURPLUS_KCAL", nutrition.DefaultSurplusKcal); err != nil {
		return nil, err
	}
	if cfg.Nutrition.MinCalories, err = getEnvFloat("NUTRITION_MIN_CALORIES", nutrition.DefaultMinCalories); err != nil {
		return nil, err
	}
	if cfg.Nutrition.DailyCapKcal, err = getEnvFloat("NUTRITION_BANKING_CAP_KCAL", nutrition.DefaultDailyCapKcal); err != nil {
		return nil, err
	}
	if cfg.TargetsCacheSize, err = getEnvInt("TARGETS_CACHE_SIZE", 1024); err != nil {
		return nil, err
	}

	split, ok := nutrition.StrategySplit(cfg.Strategy)
	if !ok {
		return nil, fmt.Errorf("NUTRITION_STRATEGY must be one of: %s", strings.Join(nutrition.StrategyNames(), ", "))
	}
	cfg.Nutrition.Split = split
	if cfg.TargetsCacheSize <= 0 {
		return nil, fmt.Errorf("TARGETS_CACHE_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) isDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
