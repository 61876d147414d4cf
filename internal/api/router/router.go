package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/ambu-dispatch/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/ambu-dispatch/internal/http/middleware"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Health             http.HandlerFunc
	Catalog            *handlers.CatalogHandler
	Forms              *handlers.FormsHandler
	Booking            *handlers.BookingHandler
	Assistant          *handlers.AssistantHandler
	AssistantLimiter   *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	health := cfg.Health
	if health == nil {
		health = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}
	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// The WebSocket stream cannot sit behind a compressing writer.
		if cfg.Booking != nil {
			api.Get("/booking/stream", cfg.Booking.Stream)
		}

		api.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))

			if cfg.Catalog != nil {
				r.Route("/catalog", func(c chi.Router) {
					c.Get("/cities", cfg.Catalog.Cities)
					c.Get("/cities/{city}/hospitals", cfg.Catalog.Hospitals)
					c.Get("/ambulance-types", cfg.Catalog.AmbulanceTypes)
				})
			}
			if cfg.Forms != nil {
				r.Route("/forms", func(f chi.Router) {
					f.Post("/", cfg.Forms.Create)
					f.Route("/{id}", func(form chi.Router) {
						form.Get("/", cfg.Forms.Get)
						form.Patch("/", cfg.Forms.Update)
						form.Post("/next", cfg.Forms.Next)
						form.Post("/back", cfg.Forms.Back)
						form.Post("/location", cfg.Forms.Location)
						form.Post("/submit", cfg.Forms.Submit)
					})
				})
			}
			if cfg.Booking != nil {
				r.Route("/booking", func(b chi.Router) {
					b.Get("/", cfg.Booking.Get)
					b.Post("/", cfg.Booking.Submit)
					b.Post("/cancel", cfg.Booking.Cancel)
					b.Get("/history", cfg.Booking.History)
				})
			}
			if cfg.Assistant != nil {
				r.Route("/assistant", func(a chi.Router) {
					a.Get("/messages", cfg.Assistant.Messages)
					send := http.Handler(http.HandlerFunc(cfg.Assistant.Send))
					if cfg.AssistantLimiter != nil {
						send = httpmiddleware.RateLimit(cfg.AssistantLimiter)(send)
					}
					a.Method(http.MethodPost, "/messages", send)
				})
			}
		})
	})

	return r
}
