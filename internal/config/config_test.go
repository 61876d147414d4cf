package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "STORE_BACKEND", "HISTORY_KEY", "DISPATCH_DELAY", "TRACKING_TICK", "TRACKING_STEP", "ETA_WINDOW", "GEMINI_MODEL_ID", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Fatalf("expected memory store by default, got %s", cfg.StoreBackend)
	}
	if cfg.HistoryKey != "bookingHistory" {
		t.Fatalf("expected default history key, got %s", cfg.HistoryKey)
	}
	if cfg.DispatchDelay != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s dispatch delay, got %s", cfg.DispatchDelay)
	}
	if cfg.TrackingTick != 200*time.Millisecond {
		t.Fatalf("expected 200ms tick, got %s", cfg.TrackingTick)
	}
	if cfg.TrackingStep != 0.5 {
		t.Fatalf("expected 0.5 step, got %v", cfg.TrackingStep)
	}
	if cfg.ETAWindow != 15*time.Minute {
		t.Fatalf("expected 15m eta window, got %s", cfg.ETAWindow)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModelID)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("DISPATCH_DELAY", "10ms")
	t.Setenv("TRACKING_STEP", "2.5")
	t.Setenv("ASSISTANT_RATE_BURST", "9")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, ,https://ambu.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.StoreBackend != StoreRedis {
		t.Fatalf("expected normalized redis backend, got %q", cfg.StoreBackend)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.DispatchDelay != 10*time.Millisecond {
		t.Fatalf("expected dispatch delay override, got %s", cfg.DispatchDelay)
	}
	if cfg.TrackingStep != 2.5 {
		t.Fatalf("expected step override, got %v", cfg.TrackingStep)
	}
	if cfg.AssistantRateBurst != 9 {
		t.Fatalf("expected burst override, got %d", cfg.AssistantRateBurst)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://ambu.example" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DISPATCH_DELAY", "soon")
	t.Setenv("TRACKING_STEP", "fast")
	cfg := Load()
	if cfg.DispatchDelay != 2500*time.Millisecond {
		t.Fatalf("expected default delay on parse failure, got %s", cfg.DispatchDelay)
	}
	if cfg.TrackingStep != 0.5 {
		t.Fatalf("expected default step on parse failure, got %v", cfg.TrackingStep)
	}
}

func TestDisplayLocation(t *testing.T) {
	cfg := &Config{DisplayTimezone: "Not/AZone"}
	if cfg.DisplayLocation() != time.UTC {
		t.Fatalf("expected UTC fallback for unknown zone")
	}
	var nilCfg *Config
	if nilCfg.DisplayLocation() != time.UTC {
		t.Fatalf("expected UTC for nil config")
	}
}
