package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse summarizes the stored catalog across all playlists
type StatusResponse struct {
	TotalPlaylists int            `json:"total_playlists"`
	Pending        int            `json:"pending"`
	Processing     int            `json:"processing"`
	Completed      int            `json:"completed"`
	Failed         int            `json:"failed"`
	Channels       int            `json:"channels"`
	Movies         int            `json:"movies"`
	Series         int            `json:"series"`
	Episodes       int            `json:"episodes"`
	BySource       map[string]int `json:"playlists_by_source"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	playlists, err := h.db.GetAllPlaylists()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get playlists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalPlaylists: len(playlists),
		BySource:       make(map[string]int),
	}

	for _, pl := range playlists {
		switch pl.Status {
		case models.StatusPending:
			response.Pending++
		case models.StatusProcessing:
			response.Processing++
		case models.StatusCompleted:
			response.Completed++
		case models.StatusFailed:
			response.Failed++
		}

		response.BySource[string(pl.Source)]++

		response.Channels += pl.ChannelCount
		response.Movies += pl.MovieCount
		response.Series += pl.SeriesCount
		response.Episodes += pl.EpisodeCount
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
