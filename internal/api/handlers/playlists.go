package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"

	"github.com/deinvis/catalogo/internal/controllers"
	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/services/xtream"
)

// PlaylistHandler serves the playlist collection: listing, adding sources,
// refreshing, deleting, and the per-playlist catalog reads.
type PlaylistHandler struct {
	db         *models.Database
	ingestCtrl *controllers.IngestController
	logger     *logrus.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(db *models.Database, ingestCtrl *controllers.IngestController, logger *logrus.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		db:         db,
		ingestCtrl: ingestCtrl,
		logger:     logger,
	}
}

// AddPlaylistRequest is the body of POST /api/playlists
type AddPlaylistRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"` // file | url | xtream

	Content string `json:"content,omitempty"` // file: raw M3U document
	URL     string `json:"url,omitempty"`     // url: remote M3U location

	Host     string `json:"host,omitempty"` // xtream
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// HandleCollection serves /api/playlists
func (h *PlaylistHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPost:
		h.add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleItem serves /api/playlists/{id}[/...]
func (h *PlaylistHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/playlists/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	playlistID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, playlistID)
		case http.MethodDelete:
			h.delete(w, playlistID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch strings.Join(parts[1:], "/") {
	case "refresh":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.refresh(w, r, playlistID)
	case "items":
		h.items(w, r, playlistID)
	case "genres":
		h.genres(w, r, playlistID)
	case "channels/grouped":
		h.groupedChannels(w, r, playlistID)
	default:
		http.NotFound(w, r)
	}
}

func (h *PlaylistHandler) list(w http.ResponseWriter) {
	playlists, err := h.db.GetAllPlaylists()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list playlists")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (h *PlaylistHandler) add(w http.ResponseWriter, r *http.Request) {
	var req AddPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	var pl *models.Playlist
	var err error

	switch models.SourceType(req.Source) {
	case models.SourceFile:
		if req.Content == "" {
			http.Error(w, "content is required for file sources", http.StatusBadRequest)
			return
		}
		pl, err = h.ingestCtrl.AddM3UFile(r.Context(), req.Name, req.Content)
	case models.SourceURL:
		if req.URL == "" {
			http.Error(w, "url is required for url sources", http.StatusBadRequest)
			return
		}
		pl, err = h.ingestCtrl.AddM3UURL(r.Context(), req.Name, req.URL)
	case models.SourceXtream:
		if req.Host == "" || req.Username == "" {
			http.Error(w, "host and username are required for xtream sources", http.StatusBadRequest)
			return
		}
		pl, err = h.ingestCtrl.AddXtream(r.Context(), req.Name, req.Host, req.Username, req.Password)
	default:
		http.Error(w, "source must be file, url or xtream", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.WithError(err).WithField("name", req.Name).Error("Ingestion failed")
		if errors.Is(err, xtream.ErrAuthFailed) {
			// Surface the metadata too: the playlist exists in failed state
			writeJSON(w, http.StatusUnauthorized, pl)
			return
		}
		if pl != nil {
			writeJSON(w, http.StatusBadGateway, pl)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, pl)
}

func (h *PlaylistHandler) get(w http.ResponseWriter, playlistID string) {
	pl, err := h.db.GetPlaylist(playlistID)
	if err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to get playlist")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pl)
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, playlistID string) {
	if err := h.ingestCtrl.DeletePlaylist(playlistID); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to delete playlist")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistHandler) refresh(w http.ResponseWriter, r *http.Request, playlistID string) {
	if err := h.ingestCtrl.RefreshPlaylist(r.Context(), playlistID); err != nil {
		h.logger.WithError(err).WithField("playlist_id", playlistID).Error("Refresh failed")
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.get(w, playlistID)
}

func (h *PlaylistHandler) items(w http.ResponseWriter, r *http.Request, playlistID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := models.ItemQuery{
		Group:  r.URL.Query().Get("group"),
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	var result interface{}
	var err error

	switch models.ItemType(r.URL.Query().Get("type")) {
	case models.ItemTypeChannel:
		result, err = h.db.GetChannels(playlistID, query)
	case models.ItemTypeMovie:
		result, err = h.db.GetMovies(playlistID, query)
	case models.ItemTypeSeries:
		result, err = h.db.GetSeriesWithEpisodeCounts(playlistID, query)
	default:
		http.Error(w, "type must be channel, movie or series", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.logger.WithError(err).Error("Failed to query items")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PlaylistHandler) genres(w http.ResponseWriter, r *http.Request, playlistID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemType := models.ItemType(r.URL.Query().Get("type"))
	if itemType == "" {
		itemType = models.ItemTypeChannel
	}

	genres, err := h.db.GetAllGenres(playlistID, itemType)
	if err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to list genres")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *PlaylistHandler) groupedChannels(w http.ResponseWriter, r *http.Request, playlistID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Aggregation only reflects completed playlists, like the cross-playlist
	// endpoints
	pl, err := h.db.GetPlaylist(playlistID)
	if err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		h.logger.WithError(err).Error("Failed to get playlist")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if pl.Status != models.StatusCompleted {
		writeJSON(w, http.StatusOK, []*models.ChannelGroup{})
		return
	}

	channels, err := h.db.GetChannels(playlistID, models.ItemQuery{
		Group:  r.URL.Query().Get("group"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to query channels")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.AggregateChannels(channels))
}
