package models

import "time"

// Channel is one persisted live-channel variant. Several channels with the
// same (PlaylistID, BaseName) are quality/source variants of one logical
// channel; they are grouped at read time, never merged at write time.
type Channel struct {
	ID         uint64 `boltholdKey:"ID" json:"id"`
	PlaylistID string `boltholdIndex:"PlaylistID" json:"playlist_id"`

	Title      string `json:"title"` // full display name, including any quality suffix
	StreamURL  string `json:"stream_url"`
	LogoURL    string `json:"logo_url"`
	GroupTitle string `json:"group_title"` // normalized group label
	BaseName   string `boltholdIndex:"BaseName" json:"base_name"` // name with quality suffix stripped
	Quality    string `json:"quality"` // FHD, HD, 4K, ... empty if none recognized

	CreatedAt time.Time `json:"created_at"`
}

// Movie is one persisted movie instance. Duplicate titles across playlists
// are kept separate in storage and matched only at query time by
// (title, year).
type Movie struct {
	ID         uint64 `boltholdKey:"ID" json:"id"`
	PlaylistID string `boltholdIndex:"PlaylistID" json:"playlist_id"`

	Title     string `boltholdIndex:"Title" json:"title"`
	StreamURL string `json:"stream_url"`
	LogoURL   string `json:"logo_url"`
	Genre     string `json:"genre"` // normalized group label
	Year      int    `json:"year"`  // 0 if unknown

	CreatedAt time.Time `json:"created_at"`
}

// Series is the aggregate a playlist's episodes hang off. Unique per
// (PlaylistID, Title); created lazily when the first episode of that title
// is ingested and enriched as later episodes are seen.
type Series struct {
	ID         uint64 `boltholdKey:"ID" json:"id"`
	PlaylistID string `boltholdIndex:"PlaylistID" json:"playlist_id"`

	Title   string `json:"title"`
	LogoURL string `json:"logo_url"`
	Genre   string `json:"genre"`
	Year    int    `json:"year"` // 0 if unknown

	CreatedAt time.Time `json:"created_at"`
}

// Episode is one playable episode belonging to a Series.
type Episode struct {
	ID         uint64 `boltholdKey:"ID" json:"id"`
	PlaylistID string `boltholdIndex:"PlaylistID" json:"playlist_id"`
	SeriesID   uint64 `boltholdIndex:"SeriesID" json:"series_id"`

	Title         string `json:"title"`
	StreamURL     string `json:"stream_url"`
	LogoURL       string `json:"logo_url"`
	SeasonNumber  int    `json:"season_number"`  // 0 if unparsable
	EpisodeNumber int    `json:"episode_number"` // 0 if unparsable

	CreatedAt time.Time `json:"created_at"`
}
