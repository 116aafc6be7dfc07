package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/api/handlers"
	"github.com/deinvis/catalogo/internal/api/middleware"
	"github.com/deinvis/catalogo/internal/config"
	"github.com/deinvis/catalogo/internal/controllers"
	"github.com/deinvis/catalogo/internal/models"
)

// Server represents the HTTP server
type Server struct {
	server     *http.Server
	db         *models.Database
	ingestCtrl *controllers.IngestController
	logger     *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, db *models.Database, ingestCtrl *controllers.IngestController, logger *logrus.Logger) *Server {
	s := &Server{
		db:         db,
		ingestCtrl: ingestCtrl,
		logger:     logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.db, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.db, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	mux.Handle("/metrics", promhttp.Handler())

	playlistHandler := handlers.NewPlaylistHandler(s.db, s.ingestCtrl, s.logger)
	mux.HandleFunc("/api/playlists", playlistHandler.HandleCollection)
	mux.HandleFunc("/api/playlists/", playlistHandler.HandleItem)

	catalogHandler := handlers.NewCatalogHandler(s.db, s.logger)
	mux.HandleFunc("/api/channels", catalogHandler.HandleChannels)
	mux.HandleFunc("/api/movies", catalogHandler.HandleMovies)
	mux.HandleFunc("/api/series/", catalogHandler.HandleEpisodes)
	mux.HandleFunc("/api/data", catalogHandler.HandleClear)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
