package models

import "time"

// Playlist is the persisted metadata for one added source (M3U file/URL or
// Xtream panel). Catalog records reference it by ID and are owned by it:
// deleting a playlist cascades to its channels, movies, series and episodes.
type Playlist struct {
	ID   string `boltholdKey:"ID" json:"id"` // UUID assigned when the source is added
	Name string `json:"name"`

	Source SourceType `json:"source"`

	// URL source
	URL string `json:"url,omitempty"`

	// Xtream source
	Host     string `json:"host,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"-"`

	Status    Status `boltholdIndex:"Status" json:"status"`
	LastError string `json:"last_error,omitempty"` // message of the most recent failed ingestion

	// Counts from the last completed ingestion
	ItemCount    int `json:"item_count"`
	ChannelCount int `json:"channel_count"`
	MovieCount   int `json:"movie_count"`
	SeriesCount  int `json:"series_count"`
	EpisodeCount int `json:"episode_count"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"` // last successful ingestion, nil if never completed
}
