// Package playlist parses raw M3U documents into classified catalog entries.
package playlist

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/deinvis/catalogo/internal/classify"
	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/utils"
)

// Recognized #EXTINF attribute keys, matched case-insensitively.
var attrPattern = regexp.MustCompile(`(?i)([a-z][a-z0-9\-]*)="([^"]*)"`)

// ParseM3U walks an M3U document line by line and returns the classified
// entries it contains. An #EXTINF line opens an entry; the next non-comment,
// non-blank line is its stream URL. Malformed or incomplete blocks (an URL
// with no preceding #EXTINF, an #EXTINF with no URL before end of input, a
// missing title) are skipped without failing the parse. limit > 0 stops
// parsing once that many entries have been produced.
func ParseM3U(content, playlistID string, limit int) []*models.Entry {
	entries := make([]*models.Entry, 0, 128)

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pending *extinf

	for scanner.Scan() {
		if limit > 0 && len(entries) >= limit {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF:") {
			// A previous #EXTINF without a URL is dropped here
			pending = parseExtinf(line)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		// Non-comment line: stream URL completing the pending entry, or a
		// stray URL to skip
		if pending == nil {
			continue
		}
		if entry := buildEntry(pending, line, playlistID); entry != nil {
			entries = append(entries, entry)
		}
		pending = nil
	}

	return entries
}

// extinf holds one parsed #EXTINF header while its URL line is awaited.
type extinf struct {
	title string
	attrs map[string]string
}

func parseExtinf(line string) *extinf {
	header := strings.TrimPrefix(line, "#EXTINF:")

	e := &extinf{attrs: make(map[string]string, 4)}
	for _, m := range attrPattern.FindAllStringSubmatch(header, -1) {
		e.attrs[strings.ToLower(m[1])] = m[2]
	}

	// Display title is the text after the last comma
	if i := strings.LastIndex(header, ","); i >= 0 {
		e.title = strings.TrimSpace(header[i+1:])
	}
	if e.title == "" {
		e.title = e.attrs["tvg-name"]
	}

	return e
}

func buildEntry(e *extinf, streamURL, playlistID string) *models.Entry {
	if e.title == "" || streamURL == "" {
		return nil
	}

	groupRaw := e.attrs["group-title"]

	entry := &models.Entry{
		PlaylistID: playlistID,
		Type:       classify.Classify(e.title, streamURL, groupRaw),
		Title:      e.title,
		StreamURL:  streamURL,
		LogoURL:    e.attrs["tvg-logo"],
		TVGID:      e.attrs["tvg-id"],
		TVGName:    e.attrs["tvg-name"],
		GroupTitle: utils.NormalizeGroupTitle(groupRaw),
	}

	switch entry.Type {
	case models.ItemTypeChannel:
		details := classify.ExtractChannelDetails(e.title)
		entry.Channel = &details
	case models.ItemTypeMovie:
		entry.Movie = &models.MovieDetails{Year: classify.ExtractMovieYear(e.title)}
	case models.ItemTypeEpisode:
		details := classify.ExtractSeriesDetails(e.title)
		entry.Episode = &details
	}

	return entry
}
