package bootstrap

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/ambu-dispatch/internal/assistant"
	"github.com/wolfman30/ambu-dispatch/internal/clock"
	appconfig "github.com/wolfman30/ambu-dispatch/internal/config"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
	"github.com/wolfman30/ambu-dispatch/internal/history"
	"github.com/wolfman30/ambu-dispatch/internal/kvstore"
	"github.com/wolfman30/ambu-dispatch/internal/observability/metrics"
	"github.com/wolfman30/ambu-dispatch/internal/tracking"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

// BuildController wires the booking lifecycle over kv.
func BuildController(ctx context.Context, cfg *appconfig.Config, kv kvstore.Store, reg prometheus.Registerer, logger *logging.Logger) *dispatch.Controller {
	if logger == nil {
		logger = logging.Default()
	}
	if kv == nil {
		kv = kvstore.NewMemory()
	}
	return dispatch.NewController(ctx, dispatch.Options{
		History:       history.NewStore(kv, cfg.HistoryKey),
		Clock:         clock.Real(),
		Logger:        logger.With("component", "dispatch"),
		Metrics:       metrics.NewDispatchMetrics(reg),
		DispatchDelay: cfg.DispatchDelay,
		Tracking: tracking.Params{
			Step:      cfg.TrackingStep,
			Interval:  cfg.TrackingTick,
			ETAWindow: cfg.ETAWindow,
		},
		Location: cfg.DisplayLocation(),
	})
}

// BuildAssistant returns the first-aid proxy. Without an API key every
// reply is the network fallback.
func BuildAssistant(cfg *appconfig.Config, reg prometheus.Registerer, logger *logging.Logger) *assistant.Proxy {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.With("component", "assistant")

	var factory assistant.SessionFactory
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Warn("GEMINI_API_KEY not set; assistant will answer with fallbacks only")
	} else {
		gemini, err := assistant.NewGeminiSessionFactory(cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("assistant disabled", "error", err)
		} else {
			factory = gemini
			logger.Info("assistant enabled", "model", cfg.GeminiModelID)
		}
	}

	return assistant.NewProxy(assistant.ProxyOptions{
		Factory:     factory,
		Instruction: assistant.SystemInstruction,
		Timeout:     cfg.AssistantTimeout,
		Logger:      logger,
		Metrics:     metrics.NewAssistantMetrics(reg),
	})
}
