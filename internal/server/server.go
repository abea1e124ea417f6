// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"chanscope/internal/config"
	"chanscope/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	natsConn *nats.Conn,
	eventsTopic string,
	channelHandler *handlers.ChannelHandler,
	analysisHandler *handlers.AnalysisHandler,
	logger *zap.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Channels API
			r.Route("/channels", func(r chi.Router) {
				r.Get("/", channelHandler.ListChannels)
				r.Post("/import", channelHandler.ImportChannel)
				r.Get("/{id}", channelHandler.GetChannel)
				r.Post("/{id}/analyze", analysisHandler.StartAnalysis)
			})

			// Analysis API
			r.Route("/analysis", func(r chi.Router) {
				r.Get("/{taskID}", analysisHandler.GetTask)
			})

			// Connections API
			r.Get("/connections", channelHandler.GetConnections)

			// Stats API
			r.Get("/stats/overview", channelHandler.GetOverview)

			// Monitoring alerts
			r.Get("/alerts", channelHandler.GetAlerts)
		})
	})

	// WebSocket endpoint for analysis task progress
	router.Get("/ws/analysis/{taskID}", handlers.AnalysisWebSocketHandler(natsConn, eventsTopic, logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
