package models

// ItemType represents the kind of catalog item an entry was classified as
type ItemType string

const (
	ItemTypeChannel ItemType = "channel"
	ItemTypeMovie   ItemType = "movie"
	// ItemTypeSeries is a series summary without episodes, as returned by
	// Xtream panel listings
	ItemTypeSeries  ItemType = "series"
	ItemTypeEpisode ItemType = "series_episode"
)

// SourceType represents where a playlist came from
type SourceType string

const (
	SourceFile   SourceType = "file"
	SourceURL    SourceType = "url"
	SourceXtream SourceType = "xtream"
)

// Refreshable reports whether a source of this type can be re-ingested.
// File uploads are one-shot: the raw document is not retained.
func (s SourceType) Refreshable() bool {
	return s == SourceURL || s == SourceXtream
}

// Status represents the ingestion state of a playlist
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)
