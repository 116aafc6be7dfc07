package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/models"
)

// CatalogHandler serves the cross-playlist lookups: channel variants by base
// name, movie instances by title and year, and a series' episodes. These are
// scoped to completed playlists only, optionally narrowed by an explicit
// playlist id list.
type CatalogHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *models.Database, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		db:     db,
		logger: logger,
	}
}

// HandleChannels serves GET /api/channels?base=...&playlists=a,b
func (h *CatalogHandler) HandleChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	baseName := r.URL.Query().Get("base")
	if baseName == "" {
		http.Error(w, "base is required", http.StatusBadRequest)
		return
	}

	playlistIDs, err := h.activePlaylists(r)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve playlists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	channels, err := h.db.GetChannelsByBaseName(baseName, playlistIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query channel variants")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// HandleMovies serves GET /api/movies?title=...&year=...&playlists=a,b
func (h *CatalogHandler) HandleMovies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	playlistIDs, err := h.activePlaylists(r)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve playlists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	movies, err := h.db.GetMoviesByTitleYear(title, queryInt(r, "year"), playlistIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query movie instances")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

// HandleEpisodes serves GET /api/series/{id}/episodes?playlists=a,b
func (h *CatalogHandler) HandleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/series/"), "/"), "/")
	if len(parts) != 2 || parts[1] != "episodes" {
		http.NotFound(w, r)
		return
	}
	seriesID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "Invalid series id", http.StatusBadRequest)
		return
	}

	playlistIDs, err := h.activePlaylists(r)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve playlists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	episodes, err := h.db.GetEpisodesForSeries(seriesID, playlistIDs)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query episodes")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

// HandleClear serves DELETE /api/data, wiping all stores
func (h *CatalogHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.db.ClearAllAppData(); err != nil {
		h.logger.WithError(err).Error("Failed to clear data")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activePlaylists resolves the playlist scope: every completed playlist,
// intersected with the explicit ?playlists= list when one is given. Pending,
// processing and failed playlists are never exposed to aggregate queries.
func (h *CatalogHandler) activePlaylists(r *http.Request) ([]string, error) {
	completed, err := h.db.GetCompletedPlaylistIDs()
	if err != nil {
		return nil, err
	}

	raw := r.URL.Query().Get("playlists")
	if raw == "" {
		return completed, nil
	}

	allowed := make(map[string]struct{}, len(completed))
	for _, id := range completed {
		allowed[id] = struct{}{}
	}

	var out []string
	for _, id := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(id)
		if _, ok := allowed[trimmed]; ok {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
