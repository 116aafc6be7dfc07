package models

import "sort"

// ChannelGroup is the read-time aggregation of one logical channel: every
// stored variant sharing a base name, summarized for display.
type ChannelGroup struct {
	BaseName    string   `json:"base_name"`
	LogoURL     string   `json:"logo_url"`
	GroupTitle  string   `json:"group_title"`
	Qualities   []string `json:"qualities"`
	SourceCount int      `json:"source_count"`
}

// AggregateChannels groups channel records by base name, producing one card
// per logical channel: representative logo (first record exposing one),
// sorted distinct qualities, and the variant count. Records are never merged
// in storage; this is a pure view.
func AggregateChannels(channels []*Channel) []*ChannelGroup {
	byBase := make(map[string]*ChannelGroup)
	qualities := make(map[string]map[string]struct{})
	var ordered []*ChannelGroup

	for _, channel := range channels {
		group, ok := byBase[channel.BaseName]
		if !ok {
			group = &ChannelGroup{
				BaseName:   channel.BaseName,
				GroupTitle: channel.GroupTitle,
			}
			byBase[channel.BaseName] = group
			qualities[channel.BaseName] = make(map[string]struct{})
			ordered = append(ordered, group)
		}

		group.SourceCount++
		if group.LogoURL == "" && channel.LogoURL != "" {
			group.LogoURL = channel.LogoURL
		}
		if channel.Quality != "" {
			qualities[channel.BaseName][channel.Quality] = struct{}{}
		}
	}

	for _, group := range ordered {
		set := qualities[group.BaseName]
		group.Qualities = make([]string, 0, len(set))
		for quality := range set {
			group.Qualities = append(group.Qualities, quality)
		}
		sort.Strings(group.Qualities)
	}

	return ordered
}

// SeriesWithCount annotates a series aggregate with its episode count for
// display.
type SeriesWithCount struct {
	Series
	EpisodeCount int `json:"episode_count"`
}

// GetSeriesWithEpisodeCounts returns a page of a playlist's series, each
// annotated with the number of episodes it owns.
func (db *Database) GetSeriesWithEpisodeCounts(playlistID string, q ItemQuery) ([]*SeriesWithCount, error) {
	series, err := db.GetSeries(playlistID, q)
	if err != nil {
		return nil, err
	}

	annotated := make([]*SeriesWithCount, 0, len(series))
	for _, s := range series {
		count, err := db.CountEpisodesForSeries(s.ID)
		if err != nil {
			return nil, err
		}
		annotated = append(annotated, &SeriesWithCount{Series: *s, EpisodeCount: count})
	}
	return annotated, nil
}
