package models

// Entry is one classified playlist entry produced by the M3U parser or the
// Xtream adapter, before it is persisted. It is a tagged union: Type says
// which of the detail pointers is set, and exactly one of them is non-nil
// (Channel for ItemTypeChannel, Movie for ItemTypeMovie, Episode for
// ItemTypeEpisode, Series for ItemTypeSeries).
type Entry struct {
	PlaylistID string
	Type       ItemType

	Title     string
	StreamURL string
	LogoURL   string

	TVGID   string
	TVGName string

	// GroupTitle is the normalized group/genre label, empty if the source
	// carried none
	GroupTitle string

	Channel *ChannelDetails
	Movie   *MovieDetails
	Episode *EpisodeDetails
	Series  *SeriesDetails
}

// ChannelDetails carries the channel-specific fields of an Entry.
type ChannelDetails struct {
	BaseName string
	Quality  string
}

// MovieDetails carries the movie-specific fields of an Entry.
type MovieDetails struct {
	Year *int
}

// EpisodeDetails carries the episode-specific fields of an Entry.
type EpisodeDetails struct {
	SeriesTitle   string
	SeasonNumber  *int
	EpisodeNumber *int
	Year          *int
}

// SeriesDetails carries the fields of a series summary Entry (Xtream series
// listings produce one summary per series, not one entry per episode).
type SeriesDetails struct {
	Year *int
}
