// Package classify infers the catalog type of a raw playlist entry and
// extracts its type-specific fields. Playlist sources carry no reliable type
// tag, so type is inferred from name, stream URL and category text by an
// ordered list of rules; the order is behaviorally significant and encodes
// real-world provider quirks, so it must not be reshuffled.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/utils"
)

// shortNameMax is the rune length under which an upper-case, year-free,
// parenthesis-free name is assumed to be a channel. Tuned against real
// playlist samples, not derived.
const shortNameMax = 25

var (
	// qualityPattern matches a trailing quality token. The [\s\-|]* run
	// before the token is deliberately folded into the base-name strip, so
	// "ESPN FHD", "ESPN - FHD" and "ESPN | FHD" all reduce to base "ESPN"
	// and group as variants of one channel. The original spelling survives
	// in the item title, only the derived base name loses the separator.
	qualityPattern = regexp.MustCompile(`(?i)^(.*?)[\s\-|]*\b(4K|UHD|FHD|HD|SD|1080p|720p|HEVC)\b\s*(\([^)]*\))?\s*$`)

	// Season/episode spellings, tried in order: S01E06, Season 1 Episode 6,
	// "- S 1 E 6"
	seasonEpisodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bS(\d{1,3})\s*E(\d{1,3})\b`),
		regexp.MustCompile(`(?i)\bSeason\s*(\d{1,3})\s*(?:Episode|Ep)\.?\s*(\d{1,3})\b`),
		regexp.MustCompile(`(?i)-\s*S\s*(\d{1,3})\s*E\s*(\d{1,3})\b`),
	}

	yearPattern      = regexp.MustCompile(`\((\d{4})\)`)
	bareYearPattern  = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	liveExtensions   = []string{".ts", ".m3u8"}
	videoExtensions  = []string{".mp4", ".mkv", ".avi"}
	channelGroupToks = []string{"canal", "canais", "channel"}
	seriesGroupToks  = []string{"serie", "series", "novela", "tv show", "show"}
	movieGroupToks   = []string{"filme", "movie", "vod", "cinema"}
)

// Classify infers the item type of one playlist entry from its display name,
// stream URL and raw group/category text. It is a pure function and always
// resolves to some type; a wrong guess is a data-quality issue, never an
// error. Rules are evaluated top to bottom, first match wins:
//
//  1. live container extension, channel-words in the group, or a "24h"
//     marker in the name -> channel
//  2. season/episode pattern in the name -> series episode
//  3. trailing quality token, or a short fully-upper-case name with no
//     parenthesis and no year -> channel
//  4. group mentions series but not movies -> series episode;
//     movies but not series -> movie
//  5. video container extension -> movie if the name carries "(YYYY)", else
//     by group mention, else movie
//  6. anything else -> channel
func Classify(name, streamURL, groupTitle string) models.ItemType {
	normName := utils.Normalize(name)
	normGroup := utils.Normalize(groupTitle)
	urlLower := strings.ToLower(strings.TrimSpace(streamURL))

	// Rule 1: definitive channel signals
	if hasAnySuffix(urlPath(urlLower), liveExtensions) ||
		containsAny(normGroup, channelGroupToks) ||
		strings.Contains(normName, "24h") {
		return models.ItemTypeChannel
	}

	// Rule 2: definitive series signal
	if matchSeasonEpisode(name) != nil {
		return models.ItemTypeEpisode
	}

	// Rule 3: channel-shaped name
	if extractQuality(name) != "" || isShortUpperName(name) {
		return models.ItemTypeChannel
	}

	groupSeries := containsAny(normGroup, seriesGroupToks)
	groupMovie := containsAny(normGroup, movieGroupToks)

	// Rule 4: group-exclusivity
	if groupSeries && !groupMovie {
		return models.ItemTypeEpisode
	}
	if groupMovie && !groupSeries {
		return models.ItemTypeMovie
	}

	// Rule 5: video-file fallback, defaulting ambiguous files to movie
	if hasAnySuffix(urlPath(urlLower), videoExtensions) {
		if ExtractMovieYear(name) != nil {
			return models.ItemTypeMovie
		}
		if groupSeries {
			return models.ItemTypeEpisode
		}
		return models.ItemTypeMovie
	}

	// Rule 6: unrecognized stream shape defaults to live content
	return models.ItemTypeChannel
}

// ExtractChannelDetails strips a trailing quality token from a channel name,
// yielding the base channel name that variants are grouped by, and the
// quality label upper-cased. Never fails: with no recognized token the base
// name is the full name and the quality is empty.
func ExtractChannelDetails(name string) models.ChannelDetails {
	trimmed := strings.TrimSpace(name)

	m := qualityPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return models.ChannelDetails{BaseName: trimmed}
	}

	base := strings.TrimSpace(m[1])
	if base == "" {
		// Name was nothing but the quality token; keep the original so the
		// grouping key is never empty
		base = trimmed
	}

	return models.ChannelDetails{
		BaseName: base,
		Quality:  strings.ToUpper(m[2]),
	}
}

// ExtractSeriesDetails parses a series title plus optional season and episode
// numbers out of an episode display name. The series title is the text
// preceding the season/episode match, falling back to the full name.
func ExtractSeriesDetails(name string) models.EpisodeDetails {
	trimmed := strings.TrimSpace(name)
	details := models.EpisodeDetails{SeriesTitle: trimmed, Year: ExtractMovieYear(trimmed)}

	m := matchSeasonEpisode(trimmed)
	if m == nil {
		return details
	}

	if season, err := strconv.Atoi(m.season); err == nil {
		details.SeasonNumber = &season
	}
	if episode, err := strconv.Atoi(m.episode); err == nil {
		details.EpisodeNumber = &episode
	}

	title := strings.TrimSpace(strings.Trim(trimmed[:m.start], " -|:"))
	if title == "" {
		// Match sat at the front; take whatever follows it instead
		title = strings.TrimSpace(strings.Trim(trimmed[m.end:], " -|:"))
	}
	if title != "" {
		details.SeriesTitle = stripYearMarker(title)
	}

	return details
}

// ExtractMovieYear extracts a 4-digit year from a "(YYYY)" marker in a title.
// Returns nil if absent.
func ExtractMovieYear(name string) *int {
	m := yearPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &year
}

type seasonEpisodeMatch struct {
	season, episode string
	start, end      int
}

func matchSeasonEpisode(name string) *seasonEpisodeMatch {
	for _, p := range seasonEpisodePatterns {
		idx := p.FindStringSubmatchIndex(name)
		if idx == nil {
			continue
		}
		return &seasonEpisodeMatch{
			season:  name[idx[2]:idx[3]],
			episode: name[idx[4]:idx[5]],
			start:   idx[0],
			end:     idx[1],
		}
	}
	return nil
}

func extractQuality(name string) string {
	m := qualityPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[2])
}

func stripYearMarker(title string) string {
	return strings.TrimSpace(yearPattern.ReplaceAllString(title, ""))
}

// isShortUpperName reports whether a name looks like a plain channel ident:
// short, no lower-case letters, no parenthesis, no year-like token.
func isShortUpperName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > shortNameMax {
		return false
	}
	if strings.ContainsAny(trimmed, "()") {
		return false
	}
	if bareYearPattern.MatchString(trimmed) {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func urlPath(rawURL string) string {
	// Query strings routinely carry filenames; only the path decides the
	// container extension
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func containsAny(s string, tokens []string) bool {
	if s == "" {
		return false
	}
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
