package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/ambu-dispatch/internal/api/router"
	"github.com/wolfman30/ambu-dispatch/internal/app/bootstrap"
	"github.com/wolfman30/ambu-dispatch/internal/assistant"
	"github.com/wolfman30/ambu-dispatch/internal/booking"
	appconfig "github.com/wolfman30/ambu-dispatch/internal/config"
	"github.com/wolfman30/ambu-dispatch/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ambu-dispatch/internal/http/middleware"
	"github.com/wolfman30/ambu-dispatch/internal/kvstore"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

const formTTL = 30 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting ambu-dispatch API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	ctx := context.Background()
	store, closeStore, err := bootstrap.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg, metricsHandler := setupMetrics()
	app := buildApp(ctx, cfg, store, reg, metricsHandler, logger)
	defer app.close()

	// Create HTTP server. WriteTimeout stays zero for the booking stream.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Closing the controller ends open booking streams.
	app.close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

type application struct {
	handler http.Handler
	close   func()
}

func buildApp(ctx context.Context, cfg *appconfig.Config, store kvstore.Store, reg *prometheus.Registry, metricsHandler http.Handler, logger *logging.Logger) *application {
	ctl := bootstrap.BuildController(ctx, cfg, store, reg, logger)
	// One assistant transcript per process, like the single booking controller.
	proxy := bootstrap.BuildAssistant(cfg, reg, logger)

	handler := router.New(&router.Config{
		Logger:             logger,
		Catalog:            handlers.NewCatalogHandler(),
		Forms:              handlers.NewFormsHandler(booking.NewFormStore(formTTL), ctl, logger),
		Booking:            handlers.NewBookingHandler(ctl, logger, originChecker(cfg.CORSAllowedOrigins)),
		Assistant:          handlers.NewAssistantHandler(assistant.NewConversation(proxy)),
		AssistantLimiter:   httpmiddleware.NewRateLimiter(cfg.AssistantRateLimit, cfg.AssistantRateBurst),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	var once sync.Once
	return &application{
		handler: handler,
		close: func() {
			once.Do(func() {
				ctl.Close()
				if err := proxy.Close(); err != nil {
					logger.Warn("failed to close assistant session", "error", err)
				}
			})
		},
	}
}

// originChecker allows WebSocket upgrades from the CORS allowlist. An
// empty list keeps gorilla's same-origin default.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
