package controllers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/config"
	"github.com/deinvis/catalogo/internal/metrics"
	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/playlist"
	"github.com/deinvis/catalogo/internal/services/relay"
	"github.com/deinvis/catalogo/internal/services/xtream"
)

// IngestController orchestrates playlist ingestion: it creates playlist
// metadata, fetches/parses source catalogs, walks the status machine
// (pending -> processing -> completed | failed) and hands the classified
// entries to the storage engine. Ingestion of one playlist is mutually
// exclusive: concurrent runs for the same id are serialized here, since the
// storage engine only guarantees atomicity per call.
type IngestController struct {
	db      *models.Database
	fetcher *relay.Client
	cfg     *config.Config
	logger  *logrus.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-playlist ingestion locks
}

// NewIngestController creates a new ingest controller
func NewIngestController(db *models.Database, fetcher *relay.Client, cfg *config.Config, logger *logrus.Logger) *IngestController {
	return &IngestController{
		db:      db,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// AddM3UFile ingests an uploaded M3U document. The raw document is not
// retained, so file playlists cannot be refreshed later.
func (c *IngestController) AddM3UFile(ctx context.Context, name, content string) (*models.Playlist, error) {
	pl := &models.Playlist{
		ID:     uuid.NewString(),
		Name:   name,
		Source: models.SourceFile,
		Status: models.StatusPending,
	}
	if err := c.db.CreatePlaylist(pl); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	err := c.ingest(ctx, pl, func(ctx context.Context) ([]*models.Entry, error) {
		return playlist.ParseM3U(content, pl.ID, c.cfg.MaxItemsPerSource), nil
	})
	return c.reload(pl.ID, err)
}

// AddM3UURL registers a remote M3U playlist and ingests it.
func (c *IngestController) AddM3UURL(ctx context.Context, name, sourceURL string) (*models.Playlist, error) {
	pl := &models.Playlist{
		ID:     uuid.NewString(),
		Name:   name,
		Source: models.SourceURL,
		URL:    sourceURL,
		Status: models.StatusPending,
	}
	if err := c.db.CreatePlaylist(pl); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	err := c.ingest(ctx, pl, c.fetchM3U(pl))
	return c.reload(pl.ID, err)
}

// AddXtream registers an Xtream panel source and ingests its catalog.
func (c *IngestController) AddXtream(ctx context.Context, name, host, username, password string) (*models.Playlist, error) {
	pl := &models.Playlist{
		ID:       uuid.NewString(),
		Name:     name,
		Source:   models.SourceXtream,
		Host:     host,
		Username: username,
		Password: password,
		Status:   models.StatusPending,
	}
	if err := c.db.CreatePlaylist(pl); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	err := c.ingest(ctx, pl, c.fetchXtream(pl))
	return c.reload(pl.ID, err)
}

// RefreshPlaylist re-ingests a url or xtream playlist. The previous snapshot
// stays visible until the new one commits; a failed refresh leaves it
// untouched.
func (c *IngestController) RefreshPlaylist(ctx context.Context, playlistID string) error {
	pl, err := c.db.GetPlaylist(playlistID)
	if err != nil {
		return fmt.Errorf("playlist %s: %w", playlistID, err)
	}
	if !pl.Source.Refreshable() {
		return fmt.Errorf("playlist %s has a non-refreshable source %q", playlistID, pl.Source)
	}

	switch pl.Source {
	case models.SourceURL:
		return c.ingest(ctx, pl, c.fetchM3U(pl))
	default:
		return c.ingest(ctx, pl, c.fetchXtream(pl))
	}
}

// RefreshAll re-ingests every refreshable playlist, continuing past
// individual failures.
func (c *IngestController) RefreshAll(ctx context.Context) {
	playlists, err := c.db.GetAllPlaylists()
	if err != nil {
		c.logger.WithError(err).Error("Failed to list playlists for refresh")
		return
	}

	for _, pl := range playlists {
		if !pl.Source.Refreshable() {
			continue
		}
		if err := c.RefreshPlaylist(ctx, pl.ID); err != nil {
			c.logger.WithError(err).WithField("playlist_id", pl.ID).Error("Refresh failed")
		}
	}
}

// DeletePlaylist removes a playlist and its whole catalog.
func (c *IngestController) DeletePlaylist(playlistID string) error {
	lock := c.lockFor(playlistID)
	lock.Lock()
	defer lock.Unlock()

	if err := c.db.DeletePlaylistAndItems(playlistID); err != nil {
		return err
	}

	c.logger.WithField("playlist_id", playlistID).Info("Playlist deleted")
	c.updatePlaylistGauge()
	return nil
}

type fetchFunc func(ctx context.Context) ([]*models.Entry, error)

func (c *IngestController) fetchM3U(pl *models.Playlist) fetchFunc {
	return func(ctx context.Context) ([]*models.Entry, error) {
		content, err := c.fetcher.FetchText(ctx, pl.URL)
		if err != nil {
			return nil, err
		}
		return playlist.ParseM3U(content, pl.ID, c.cfg.MaxItemsPerSource), nil
	}
}

func (c *IngestController) fetchXtream(pl *models.Playlist) fetchFunc {
	return func(ctx context.Context) ([]*models.Entry, error) {
		client, err := xtream.NewClient(pl.Host, pl.Username, pl.Password, c.cfg.MaxItemsPerSource, c.logger)
		if err != nil {
			return nil, err
		}
		return client.FetchItems(ctx, pl.ID)
	}
}

// ingest runs one fetch-classify-store cycle under the playlist's lock.
// Fetch and storage errors mark the playlist failed with a descriptive
// message; prior catalog data is only replaced inside the storage
// transaction, so it survives any failure.
func (c *IngestController) ingest(ctx context.Context, pl *models.Playlist, fetch fetchFunc) error {
	lock := c.lockFor(pl.ID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	log := c.logger.WithFields(logrus.Fields{
		"playlist_id": pl.ID,
		"name":        pl.Name,
		"source":      pl.Source,
	})
	log.Info("Starting ingestion")

	if err := c.db.SetPlaylistStatus(pl.ID, models.StatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark playlist processing: %w", err)
	}

	entries, err := fetch(ctx)
	if err != nil {
		log.WithError(err).Error("Source fetch failed")
		c.markFailed(pl, err)
		return err
	}

	if err := c.db.AddPlaylistWithItems(pl.ID, entries); err != nil {
		log.WithError(err).Error("Storage transaction failed")
		c.markFailed(pl, err)
		return err
	}

	counts := countByType(entries)
	for itemType, count := range counts {
		metrics.RecordItemsIngested(string(itemType), count)
	}
	metrics.RecordIngestResult(string(pl.Source), "success")
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	c.updatePlaylistGauge()

	log.WithFields(logrus.Fields{
		"items":       len(entries),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Ingestion completed")

	return nil
}

func (c *IngestController) markFailed(pl *models.Playlist, cause error) {
	metrics.RecordIngestResult(string(pl.Source), "failure")
	if err := c.db.SetPlaylistStatus(pl.ID, models.StatusFailed, cause.Error()); err != nil {
		c.logger.WithError(err).WithField("playlist_id", pl.ID).Error("Failed to mark playlist failed")
	}
}

// reload returns the up-to-date playlist record after an add, preserving the
// ingestion error so callers can report both.
func (c *IngestController) reload(playlistID string, ingestErr error) (*models.Playlist, error) {
	pl, err := c.db.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	return pl, ingestErr
}

func (c *IngestController) lockFor(playlistID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[playlistID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[playlistID] = lock
	}
	return lock
}

func (c *IngestController) updatePlaylistGauge() {
	playlists, err := c.db.GetAllPlaylists()
	if err != nil {
		return
	}
	metrics.PlaylistsTracked.Set(float64(len(playlists)))
}

func countByType(entries []*models.Entry) map[models.ItemType]int {
	counts := make(map[models.ItemType]int)
	for _, entry := range entries {
		counts[entry.Type]++
	}
	return counts
}
