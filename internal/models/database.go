package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"

	"github.com/deinvis/catalogo/internal/utils"
)

// Database wraps the bolthold store holding the five catalog collections:
// playlists, channels, movies, series and episodes. Multi-store writes
// (ingest, cascading delete) run inside a single bbolt transaction, so a
// playlist's catalog is either fully present or fully absent.
type Database struct {
	store  *bolthold.Store
	genres *cache.Cache // distinct-genre listings, flushed on every write
}

// NewDatabase opens (creating if needed) the database file
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{
		store:  store,
		genres: cache.New(10*time.Minute, 30*time.Minute),
	}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Ping verifies the underlying store is still reachable by opening a
// read transaction
func (db *Database) Ping() error {
	return db.store.Bolt().View(func(*bbolt.Tx) error {
		return nil
	})
}

// Playlist operations

// CreatePlaylist persists a new playlist record. The caller assigns the ID.
func (db *Database) CreatePlaylist(playlist *Playlist) error {
	playlist.CreatedAt = time.Now()
	playlist.UpdatedAt = time.Now()
	if playlist.Status == "" {
		playlist.Status = StatusPending
	}
	return db.store.Insert(playlist.ID, playlist)
}

// UpdatePlaylist updates an existing playlist record
func (db *Database) UpdatePlaylist(playlist *Playlist) error {
	playlist.UpdatedAt = time.Now()
	return db.store.Update(playlist.ID, playlist)
}

// GetPlaylist retrieves a playlist by ID
func (db *Database) GetPlaylist(id string) (*Playlist, error) {
	var playlist Playlist
	if err := db.store.Get(id, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// GetAllPlaylists retrieves every playlist record
func (db *Database) GetAllPlaylists() ([]*Playlist, error) {
	var playlists []*Playlist
	err := db.store.Find(&playlists, nil)
	return playlists, err
}

// GetCompletedPlaylistIDs returns the ids of playlists whose last ingestion
// completed. Only these are exposed to genre and cross-playlist queries.
func (db *Database) GetCompletedPlaylistIDs() ([]string, error) {
	var playlists []*Playlist
	err := db.store.Find(&playlists,
		bolthold.Where("Status").Eq(StatusCompleted).Index("Status"))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(playlists))
	for _, p := range playlists {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// SetPlaylistStatus moves a playlist through its status machine
// (pending -> processing -> completed | failed). A failed status keeps the
// last successful snapshot's records untouched.
func (db *Database) SetPlaylistStatus(id string, status Status, lastError string) error {
	playlist, err := db.GetPlaylist(id)
	if err != nil {
		return err
	}
	playlist.Status = status
	playlist.LastError = lastError
	return db.UpdatePlaylist(playlist)
}

// Ingest

// AddPlaylistWithItems atomically replaces a playlist's catalog with the
// given classified entries. Within one transaction it (a) drops the previous
// snapshot, (b) creates one Series record per distinct series title found in
// episode and series-summary entries, (c) inserts channels and movies,
// (d) inserts episodes with their resolved series id, and (e) updates the
// playlist counts and marks it completed. Any failure aborts the whole
// transaction: no partial playlist is ever visible.
func (db *Database) AddPlaylistWithItems(playlistID string, entries []*Entry) error {
	now := time.Now()

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var playlist Playlist
		if err := db.store.TxGet(tx, playlistID, &playlist); err != nil {
			return fmt.Errorf("playlist %s: %w", playlistID, err)
		}

		if err := db.txDeleteItems(tx, playlistID); err != nil {
			return err
		}

		// Phase 1: series records, so every episode can reference its series
		drafts := collectSeriesDrafts(entries)
		seriesIDs := make(map[string]uint64, len(drafts))
		for _, draft := range drafts {
			record := &Series{
				PlaylistID: playlistID,
				Title:      draft.title,
				LogoURL:    draft.logo,
				Genre:      draft.genre,
				Year:       draft.year,
				CreatedAt:  now,
			}
			if err := db.store.TxInsert(tx, bolthold.NextSequence(), record); err != nil {
				return fmt.Errorf("failed to insert series %q: %w", draft.title, err)
			}
			seriesIDs[draft.key] = record.ID
		}

		// Phase 2 and 3: channels, movies, then episodes
		var channels, movies, episodes int
		for _, entry := range entries {
			switch entry.Type {
			case ItemTypeChannel:
				if entry.Channel == nil {
					return fmt.Errorf("channel entry %q is missing its details", entry.Title)
				}
				record := &Channel{
					PlaylistID: playlistID,
					Title:      entry.Title,
					StreamURL:  entry.StreamURL,
					LogoURL:    entry.LogoURL,
					GroupTitle: entry.GroupTitle,
					BaseName:   entry.Channel.BaseName,
					Quality:    entry.Channel.Quality,
					CreatedAt:  now,
				}
				if err := db.store.TxInsert(tx, bolthold.NextSequence(), record); err != nil {
					return fmt.Errorf("failed to insert channel %q: %w", entry.Title, err)
				}
				channels++

			case ItemTypeMovie:
				if entry.Movie == nil {
					return fmt.Errorf("movie entry %q is missing its details", entry.Title)
				}
				record := &Movie{
					PlaylistID: playlistID,
					Title:      entry.Title,
					StreamURL:  entry.StreamURL,
					LogoURL:    entry.LogoURL,
					Genre:      entry.GroupTitle,
					Year:       intOrZero(entry.Movie.Year),
					CreatedAt:  now,
				}
				if err := db.store.TxInsert(tx, bolthold.NextSequence(), record); err != nil {
					return fmt.Errorf("failed to insert movie %q: %w", entry.Title, err)
				}
				movies++

			case ItemTypeEpisode:
				if entry.Episode == nil {
					return fmt.Errorf("episode entry %q is missing its details", entry.Title)
				}
				seriesID, ok := seriesIDs[seriesKey(entry.Episode.SeriesTitle)]
				if !ok {
					return fmt.Errorf("no series record for episode %q", entry.Title)
				}
				record := &Episode{
					PlaylistID:    playlistID,
					SeriesID:      seriesID,
					Title:         entry.Title,
					StreamURL:     entry.StreamURL,
					LogoURL:       entry.LogoURL,
					SeasonNumber:  intOrZero(entry.Episode.SeasonNumber),
					EpisodeNumber: intOrZero(entry.Episode.EpisodeNumber),
					CreatedAt:     now,
				}
				if err := db.store.TxInsert(tx, bolthold.NextSequence(), record); err != nil {
					return fmt.Errorf("failed to insert episode %q: %w", entry.Title, err)
				}
				episodes++
			}
		}

		playlist.Status = StatusCompleted
		playlist.LastError = ""
		playlist.ItemCount = len(entries)
		playlist.ChannelCount = channels
		playlist.MovieCount = movies
		playlist.SeriesCount = len(drafts)
		playlist.EpisodeCount = episodes
		playlist.UpdatedAt = now
		playlist.LastSyncedAt = &now

		return db.store.TxUpdate(tx, playlistID, &playlist)
	})

	if err == nil {
		db.genres.Flush()
	}
	return err
}

// DeletePlaylistAndItems removes a playlist and, cascading, every channel,
// movie, series and episode it owns, in one transaction.
func (db *Database) DeletePlaylistAndItems(playlistID string) error {
	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		if err := db.txDeleteItems(tx, playlistID); err != nil {
			return err
		}
		return db.store.TxDelete(tx, playlistID, &Playlist{})
	})

	if err == nil {
		db.genres.Flush()
	}
	return err
}

// ClearAllAppData wipes all five stores
func (db *Database) ClearAllAppData() error {
	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		for _, dataType := range []interface{}{&Episode{}, &Series{}, &Movie{}, &Channel{}, &Playlist{}} {
			if err := db.store.TxDeleteMatching(tx, dataType, nil); err != nil {
				return err
			}
		}
		return nil
	})

	if err == nil {
		db.genres.Flush()
	}
	return err
}

func (db *Database) txDeleteItems(tx *bbolt.Tx, playlistID string) error {
	for _, dataType := range []interface{}{&Episode{}, &Series{}, &Movie{}, &Channel{}} {
		query := bolthold.Where("PlaylistID").Eq(playlistID).Index("PlaylistID")
		if err := db.store.TxDeleteMatching(tx, dataType, query); err != nil {
			return fmt.Errorf("failed to delete items of playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// Paginated reads

// ItemQuery narrows and pages one catalog read. Group filters on the
// normalized group/genre label; Search is a case/accent-insensitive title
// substring filter; Limit <= 0 means unlimited.
type ItemQuery struct {
	Group  string
	Search string
	Limit  int
	Offset int
}

// GetChannels returns a page of a playlist's channels, in title order.
func (db *Database) GetChannels(playlistID string, q ItemQuery) ([]*Channel, error) {
	query := ownedQuery(playlistID, "GroupTitle", q).SortBy("Title")
	var channels []*Channel
	if err := db.store.Find(&channels, query); err != nil {
		return nil, err
	}
	return pageFiltered(channels, q, func(c *Channel) string { return c.Title }), nil
}

// GetMovies returns a page of a playlist's movies, in title order.
func (db *Database) GetMovies(playlistID string, q ItemQuery) ([]*Movie, error) {
	query := ownedQuery(playlistID, "Genre", q).SortBy("Title")
	var movies []*Movie
	if err := db.store.Find(&movies, query); err != nil {
		return nil, err
	}
	return pageFiltered(movies, q, func(m *Movie) string { return m.Title }), nil
}

// GetSeries returns a page of a playlist's series aggregates, in title order.
func (db *Database) GetSeries(playlistID string, q ItemQuery) ([]*Series, error) {
	query := ownedQuery(playlistID, "Genre", q).SortBy("Title")
	var series []*Series
	if err := db.store.Find(&series, query); err != nil {
		return nil, err
	}
	return pageFiltered(series, q, func(s *Series) string { return s.Title }), nil
}

// ownedQuery builds the index-backed part of a paginated read: playlist
// ownership plus the optional group/genre equality. Skip/Limit are pushed
// down only when no search filter runs afterwards.
func ownedQuery(playlistID, groupField string, q ItemQuery) *bolthold.Query {
	query := bolthold.Where("PlaylistID").Eq(playlistID).Index("PlaylistID")
	if q.Group != "" {
		query = query.And(groupField).Eq(q.Group)
	}
	if q.Search == "" {
		if q.Offset > 0 {
			query = query.Skip(q.Offset)
		}
		if q.Limit > 0 {
			query = query.Limit(q.Limit)
		}
	}
	return query
}

// pageFiltered applies the search filter and manual paging for queries whose
// filter cannot be expressed on an index.
func pageFiltered[T any](items []T, q ItemQuery, title func(T) string) []T {
	if q.Search == "" {
		return items
	}

	needle := utils.Normalize(q.Search)
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(utils.Normalize(title(item)), needle) {
			matched = append(matched, item)
		}
	}

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}

// GetAllGenres returns the distinct, sorted normalized group/genre values
// present for a playlist and item type. Playlists whose last ingestion did
// not complete expose no genres, even when records from an earlier snapshot
// are still stored. Results are cached until the next write.
func (db *Database) GetAllGenres(playlistID string, itemType ItemType) ([]string, error) {
	playlist, err := db.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.Status != StatusCompleted {
		return []string{}, nil
	}

	cacheKey := "genres:" + playlistID + ":" + string(itemType)
	if cached, ok := db.genres.Get(cacheKey); ok {
		return cached.([]string), nil
	}

	seen := make(map[string]struct{})
	query := bolthold.Where("PlaylistID").Eq(playlistID).Index("PlaylistID")

	switch itemType {
	case ItemTypeChannel:
		var channels []*Channel
		if err := db.store.Find(&channels, query); err != nil {
			return nil, err
		}
		for _, c := range channels {
			if c.GroupTitle != "" {
				seen[c.GroupTitle] = struct{}{}
			}
		}
	case ItemTypeMovie:
		var movies []*Movie
		if err := db.store.Find(&movies, query); err != nil {
			return nil, err
		}
		for _, m := range movies {
			if m.Genre != "" {
				seen[m.Genre] = struct{}{}
			}
		}
	case ItemTypeSeries, ItemTypeEpisode:
		var series []*Series
		if err := db.store.Find(&series, query); err != nil {
			return nil, err
		}
		for _, s := range series {
			if s.Genre != "" {
				seen[s.Genre] = struct{}{}
			}
		}
	default:
		return nil, fmt.Errorf("unknown item type %q", itemType)
	}

	genres := make([]string, 0, len(seen))
	for genre := range seen {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	db.genres.Set(cacheKey, genres, cache.DefaultExpiration)
	return genres, nil
}

// Cross-playlist lookups

// GetChannelsByBaseName returns every quality/source variant of one logical
// channel across the given playlists, for playback selection.
func (db *Database) GetChannelsByBaseName(baseName string, playlistIDs []string) ([]*Channel, error) {
	if len(playlistIDs) == 0 {
		return nil, nil
	}
	var channels []*Channel
	err := db.store.Find(&channels,
		bolthold.Where("BaseName").Eq(baseName).Index("BaseName").
			And("PlaylistID").In(toInterfaces(playlistIDs)...))
	return channels, err
}

// GetMoviesByTitleYear returns the instances of one movie across the given
// playlists. Matching is exact on (title, year); near-duplicate titles with
// inconsistent year tagging stay separate.
func (db *Database) GetMoviesByTitleYear(title string, year int, playlistIDs []string) ([]*Movie, error) {
	if len(playlistIDs) == 0 {
		return nil, nil
	}
	var movies []*Movie
	err := db.store.Find(&movies,
		bolthold.Where("Title").Eq(title).Index("Title").
			And("Year").Eq(year).
			And("PlaylistID").In(toInterfaces(playlistIDs)...))
	return movies, err
}

// GetEpisodesForSeries returns a series' episodes across the given
// playlists, ordered by season then episode.
func (db *Database) GetEpisodesForSeries(seriesID uint64, playlistIDs []string) ([]*Episode, error) {
	if len(playlistIDs) == 0 {
		return nil, nil
	}
	var episodes []*Episode
	err := db.store.Find(&episodes,
		bolthold.Where("SeriesID").Eq(seriesID).Index("SeriesID").
			And("PlaylistID").In(toInterfaces(playlistIDs)...).
			SortBy("SeasonNumber", "EpisodeNumber"))
	return episodes, err
}

// GetSeriesByID retrieves one series aggregate
func (db *Database) GetSeriesByID(id uint64) (*Series, error) {
	var series Series
	if err := db.store.Get(id, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// CountEpisodesForSeries counts the episodes owned by one series
func (db *Database) CountEpisodesForSeries(seriesID uint64) (int, error) {
	return db.store.Count(&Episode{},
		bolthold.Where("SeriesID").Eq(seriesID).Index("SeriesID"))
}

// Series draft aggregation (phase 1 of ingest)

type seriesDraft struct {
	key   string
	title string
	logo  string
	genre string
	year  int

	logoFromPilot bool // logo came from an S1E1 episode, the preferred source
}

func seriesKey(title string) string {
	return utils.Normalize(title)
}

// collectSeriesDrafts pre-scans entries and folds episodes and series
// summaries into one draft per distinct series title, keeping the most
// complete logo/year/genre seen and preferring the S1E1 episode's logo as
// the representative one. First-seen order is preserved.
func collectSeriesDrafts(entries []*Entry) []*seriesDraft {
	byKey := make(map[string]*seriesDraft)
	var ordered []*seriesDraft

	draftFor := func(key, title string) *seriesDraft {
		if draft, ok := byKey[key]; ok {
			return draft
		}
		draft := &seriesDraft{key: key, title: title}
		byKey[key] = draft
		ordered = append(ordered, draft)
		return draft
	}

	for _, entry := range entries {
		switch entry.Type {
		case ItemTypeEpisode:
			details := entry.Episode
			if details == nil {
				continue
			}
			draft := draftFor(seriesKey(details.SeriesTitle), details.SeriesTitle)

			isPilot := intOrZero(details.SeasonNumber) == 1 && intOrZero(details.EpisodeNumber) == 1
			if entry.LogoURL != "" && (draft.logo == "" || (isPilot && !draft.logoFromPilot)) {
				draft.logo = entry.LogoURL
				draft.logoFromPilot = isPilot
			}
			if draft.year == 0 {
				draft.year = intOrZero(details.Year)
			}
			if draft.genre == "" {
				draft.genre = entry.GroupTitle
			}

		case ItemTypeSeries:
			if entry.Series == nil {
				continue
			}
			draft := draftFor(seriesKey(entry.Title), entry.Title)
			if entry.LogoURL != "" && draft.logo == "" {
				draft.logo = entry.LogoURL
			}
			if draft.year == 0 {
				draft.year = intOrZero(entry.Series.Year)
			}
			if draft.genre == "" {
				draft.genre = entry.GroupTitle
			}
		}
	}

	return ordered
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func toInterfaces(ids []string) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
