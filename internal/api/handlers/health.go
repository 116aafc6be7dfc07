package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/models"
)

// HealthHandler reports liveness of the daemon and its catalog store
type HealthHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *models.Database, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// ServeHTTP handles the health check endpoint. The catalog store is probed
// with a read transaction; a failed probe turns the response into a 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]string{
		"service":  "catalogo",
		"status":   "healthy",
		"database": "up",
	}

	status := http.StatusOK
	if err := h.db.Ping(); err != nil {
		h.logger.WithError(err).Error("Health check failed to reach the catalog store")
		response["status"] = "unhealthy"
		response["database"] = "down"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
