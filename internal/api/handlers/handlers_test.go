package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/config"
	"github.com/deinvis/catalogo/internal/controllers"
	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/services/relay"
)

const sampleM3U = `#EXTM3U
#EXTINF:-1 group-title="Canais | Esportes",ESPN FHD
http://host/live/1001.ts
#EXTINF:-1 group-title="Canais | Esportes",ESPN HD
http://host/live/1002.ts
#EXTINF:-1 group-title="Filmes",Interestelar (2014)
http://host/movie/3001.mp4
#EXTINF:-1 group-title="Séries | Drama",Dark S01E01
http://host/series/2001.mp4
`

type fixture struct {
	db        *models.Database
	playlists *PlaylistHandler
	catalog   *CatalogHandler
	ctrl      *controllers.IngestController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "catalogo.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{FetchTimeoutSeconds: 5}
	fetcher := relay.NewClient("", 5*time.Second, logger)
	ctrl := controllers.NewIngestController(db, fetcher, cfg, logger)

	return &fixture{
		db:        db,
		playlists: NewPlaylistHandler(db, ctrl, logger),
		catalog:   NewCatalogHandler(db, logger),
		ctrl:      ctrl,
	}
}

func (f *fixture) addFilePlaylist(t *testing.T, name string) *models.Playlist {
	t.Helper()

	pl, err := f.ctrl.AddM3UFile(context.Background(), name, sampleM3U)
	if err != nil {
		t.Fatalf("AddM3UFile failed: %v", err)
	}
	return pl
}

func TestAddPlaylistEndpoint(t *testing.T) {
	f := newFixture(t)

	body := `{"name":"Minha Lista","source":"file","content":` + strconv.Quote(sampleM3U) + `}`
	req := httptest.NewRequest(http.MethodPost, "/api/playlists", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.playlists.HandleCollection(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, expected 201: %s", rec.Code, rec.Body.String())
	}

	var pl models.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &pl); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if pl.Status != models.StatusCompleted {
		t.Errorf("Status = %q, expected completed", pl.Status)
	}
	if pl.ChannelCount != 2 || pl.MovieCount != 1 || pl.EpisodeCount != 1 {
		t.Errorf("Counts = %d/%d/%d", pl.ChannelCount, pl.MovieCount, pl.EpisodeCount)
	}

	// And it shows up in the listing
	req = httptest.NewRequest(http.MethodGet, "/api/playlists", nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleCollection(rec, req)

	var listed []models.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("Failed to decode listing: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("Expected 1 playlist, got %d", len(listed))
	}
}

func TestAddPlaylistValidation(t *testing.T) {
	f := newFixture(t)

	bodies := []string{
		`{"source":"file","content":"#EXTM3U"}`,     // no name
		`{"name":"x","source":"carrier-pigeon"}`,    // unknown source
		`{"name":"x","source":"url"}`,               // url source without url
		`{"name":"x","source":"file"}`,              // file source without content
		`{"name":"x","source":"xtream","host":""}`,  // xtream without host
	}

	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/api/playlists", strings.NewReader(body))
		rec := httptest.NewRecorder()
		f.playlists.HandleCollection(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %s: status = %d, expected 400", body, rec.Code)
		}
	}
}

func TestGetPlaylistNotFound(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/nope", nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, expected 404", rec.Code)
	}
}

func TestPlaylistItems(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/items?type=channel&group=ESPORTES", nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d: %s", rec.Code, rec.Body.String())
	}
	var channels []models.Channel
	if err := json.Unmarshal(rec.Body.Bytes(), &channels); err != nil {
		t.Fatalf("Failed to decode channels: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("Expected 2 channels, got %d", len(channels))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/items?type=series", nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)

	var series []models.SeriesWithCount
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("Failed to decode series: %v", err)
	}
	if len(series) != 1 || series[0].EpisodeCount != 1 {
		t.Errorf("Series listing = %+v", series)
	}

	// Unknown type is rejected
	req = httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/items?type=podcast", nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, expected 400 for unknown type", rec.Code)
	}
}

func TestPlaylistGenres(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")

	// type defaults to channel
	req := httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/genres", nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)

	var genres []string
	if err := json.Unmarshal(rec.Body.Bytes(), &genres); err != nil {
		t.Fatalf("Failed to decode genres: %v", err)
	}
	if len(genres) != 1 || genres[0] != "ESPORTES" {
		t.Errorf("Genres = %v, expected [ESPORTES]", genres)
	}
}

func TestGroupedChannelsEndpoint(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/channels/grouped", nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)

	var groups []models.ChannelGroup
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("Failed to decode groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if groups[0].BaseName != "ESPN" || groups[0].SourceCount != 2 {
		t.Errorf("Group = %+v", groups[0])
	}
	if len(groups[0].Qualities) != 2 {
		t.Errorf("Qualities = %v", groups[0].Qualities)
	}
}

func TestGenresAndGroupedChannelsHiddenForNonCompleted(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")
	if err := f.db.SetPlaylistStatus(pl.ID, models.StatusFailed, "boom"); err != nil {
		t.Fatalf("SetPlaylistStatus failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/genres", nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var genres []string
	if err := json.Unmarshal(rec.Body.Bytes(), &genres); err != nil {
		t.Fatalf("Failed to decode genres: %v", err)
	}
	if len(genres) != 0 {
		t.Errorf("Failed playlist still exposes genres: %v", genres)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID+"/channels/grouped", nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var groups []models.ChannelGroup
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("Failed to decode groups: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Failed playlist still exposes channel groups: %v", groups)
	}

	// Unknown playlists are a 404, not an empty listing
	req = httptest.NewRequest(http.MethodGet, "/api/playlists/nope/genres", nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, expected 404", rec.Code)
	}
}

func TestDeletePlaylistEndpoint(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")

	req := httptest.NewRequest(http.MethodDelete, "/api/playlists/"+pl.ID, nil)
	rec := httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, expected 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/playlists/"+pl.ID, nil)
	rec = httptest.NewRecorder()
	f.playlists.HandleItem(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, expected 404 after delete", rec.Code)
	}
}

func TestChannelVariantsScopedToCompleted(t *testing.T) {
	f := newFixture(t)
	pl1 := f.addFilePlaylist(t, "Lista 1")
	pl2 := f.addFilePlaylist(t, "Lista 2")

	// A playlist that later fails keeps its data but leaves the scope
	if err := f.db.SetPlaylistStatus(pl2.ID, models.StatusFailed, "boom"); err != nil {
		t.Fatalf("SetPlaylistStatus failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/channels?base=ESPN", nil)
	rec := httptest.NewRecorder()
	f.catalog.HandleChannels(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var variants []models.Channel
	if err := json.Unmarshal(rec.Body.Bytes(), &variants); err != nil {
		t.Fatalf("Failed to decode variants: %v", err)
	}
	for _, v := range variants {
		if v.PlaylistID != pl1.ID {
			t.Errorf("Variant from non-completed playlist %q leaked", v.PlaylistID)
		}
	}
	if len(variants) != 2 {
		t.Errorf("Expected 2 variants, got %d", len(variants))
	}

	// Explicit scope cannot resurrect a non-completed playlist
	req = httptest.NewRequest(http.MethodGet, "/api/channels?base=ESPN&playlists="+pl2.ID, nil)
	rec = httptest.NewRecorder()
	f.catalog.HandleChannels(rec, req)

	variants = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &variants); err != nil {
		t.Fatalf("Failed to decode variants: %v", err)
	}
	if len(variants) != 0 {
		t.Errorf("Expected no variants, got %d", len(variants))
	}
}

func TestMovieInstancesEndpoint(t *testing.T) {
	f := newFixture(t)
	f.addFilePlaylist(t, "Lista 1")
	f.addFilePlaylist(t, "Lista 2")

	req := httptest.NewRequest(http.MethodGet, "/api/movies?title="+
		"Interestelar+%282014%29&year=2014", nil)
	rec := httptest.NewRecorder()
	f.catalog.HandleMovies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var instances []models.Movie
	if err := json.Unmarshal(rec.Body.Bytes(), &instances); err != nil {
		t.Fatalf("Failed to decode instances: %v", err)
	}
	if len(instances) != 2 {
		t.Errorf("Expected 2 instances, got %d", len(instances))
	}

	// title is mandatory
	req = httptest.NewRequest(http.MethodGet, "/api/movies?year=2014", nil)
	rec = httptest.NewRecorder()
	f.catalog.HandleMovies(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, expected 400", rec.Code)
	}
}

func TestEpisodesEndpoint(t *testing.T) {
	f := newFixture(t)
	pl := f.addFilePlaylist(t, "Lista")

	series, err := f.db.GetSeries(pl.ID, models.ItemQuery{})
	if err != nil || len(series) != 1 {
		t.Fatalf("GetSeries = %d series, err %v", len(series), err)
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/series/"+strconv.FormatUint(series[0].ID, 10)+"/episodes", nil)
	rec := httptest.NewRecorder()
	f.catalog.HandleEpisodes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var episodes []models.Episode
	if err := json.Unmarshal(rec.Body.Bytes(), &episodes); err != nil {
		t.Fatalf("Failed to decode episodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Errorf("Expected 1 episode, got %d", len(episodes))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/series/not-a-number/episodes", nil)
	rec = httptest.NewRecorder()
	f.catalog.HandleEpisodes(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, expected 400", rec.Code)
	}
}

func TestClearDataEndpoint(t *testing.T) {
	f := newFixture(t)
	f.addFilePlaylist(t, "Lista")

	req := httptest.NewRequest(http.MethodDelete, "/api/data", nil)
	rec := httptest.NewRecorder()
	f.catalog.HandleClear(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Status = %d, expected 204", rec.Code)
	}

	playlists, err := f.db.GetAllPlaylists()
	if err != nil {
		t.Fatalf("GetAllPlaylists failed: %v", err)
	}
	if len(playlists) != 0 {
		t.Errorf("Expected no playlists after clear, got %d", len(playlists))
	}
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture(t)
	f.addFilePlaylist(t, "Lista 1")
	pl2 := f.addFilePlaylist(t, "Lista 2")
	if err := f.db.SetPlaylistStatus(pl2.ID, models.StatusFailed, "boom"); err != nil {
		t.Fatalf("SetPlaylistStatus failed: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := NewStatusHandler(f.db, logger)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if status.TotalPlaylists != 2 || status.Completed != 1 || status.Failed != 1 {
		t.Errorf("Status = %+v", status)
	}
	if status.Channels != 4 || status.Episodes != 2 {
		t.Errorf("Item totals = channels %d, episodes %d", status.Channels, status.Episodes)
	}
	if status.BySource["file"] != 2 {
		t.Errorf("BySource = %v", status.BySource)
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := NewHealthHandler(f.db, logger)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, expected 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["service"] != "catalogo" || body["status"] != "healthy" || body["database"] != "up" {
		t.Errorf("Unexpected health payload: %v", body)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /health status = %d, expected 405", rec.Code)
	}
}

func TestHealthEndpointReportsStoreDown(t *testing.T) {
	f := newFixture(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := NewHealthHandler(f.db, logger)

	f.db.Close()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, expected 503", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "unhealthy" || body["database"] != "down" {
		t.Errorf("Unexpected health payload: %v", body)
	}
}
