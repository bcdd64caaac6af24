package main

import (
	"reflect"
	"testing"

	"lg/nutriflex-api/internal/nutrition"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "NUTRITION_DEFICIT_KCAL", "NUTRITION_SURPLUS_KCAL",
		"NUTRITION_MIN_CALORIES", "NUTRITION_BANKING_CAP_KCAL", "NUTRITION_STRATEGY", "TARGETS_CACHE_SIZE",
		"CORS_ORIGINS", "OPENAI_BASE_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "3000")
	t.Setenv("NUTRITION_STRATEGY", "balanced")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Nutrition != nutrition.DefaultConfig() {
		t.Errorf("nutrition config = %+v, want defaults", cfg.Nutrition)
	}
	if cfg.TargetsCacheSize != 1024 {
		t.Errorf("cache size = %d, want 1024", cfg.TargetsCacheSize)
	}
	if cfg.OpenAIBaseURL != "https://api.openai.com" {
		t.Errorf("base url = %q, trailing slash not trimmed", cfg.OpenAIBaseURL)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("blank CORS_ORIGINS should give no origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("NUTRITION_SURPLUS_KCAL", "500")
	t.Setenv("NUTRITION_BANKING_CAP_KCAL", "350")
	t.Setenv("NUTRITION_STRATEGY", "mediterranean")
	t.Setenv("TARGETS_CACHE_SIZE", "64")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.isDevelopment() {
		t.Errorf("APP_ENV=dev should be development, got %q", cfg.AppEnv)
	}
	if cfg.Nutrition.SurplusKcal != 500 || cfg.Nutrition.DailyCapKcal != 350 {
		t.Errorf("overrides not applied: %+v", cfg.Nutrition)
	}
	if cfg.Nutrition.Split != nutrition.MediterraneanSplit {
		t.Errorf("split = %+v, want mediterranean", cfg.Nutrition.Split)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad float", "NUTRITION_DEFICIT_KCAL", "lots"},
		{"bad int", "TARGETS_CACHE_SIZE", "1.5"},
		{"zero cache", "TARGETS_CACHE_SIZE", "0"},
		{"unknown strategy", "NUTRITION_STRATEGY", "keto"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := loadConfig(); err == nil {
				t.Errorf("%s=%q: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestNormalizeEnv(t *testing.T) {
	tests := map[string]string{
		"Dev":     "development",
		"local":   "development",
		" PROD ":  "production",
		"testing": "test",
		"staging": "staging",
	}
	for in, want := range tests {
		if got := normalizeEnv(in); got != want {
			t.Errorf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
