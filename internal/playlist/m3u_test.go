package playlist

import (
	"fmt"
	"strings"
	"testing"

	"github.com/deinvis/catalogo/internal/models"
)

func TestParseM3UChannel(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-id="espn.br" tvg-name="ESPN FHD" tvg-logo="http://logos/espn.png" group-title="Canais | Esportes",ESPN FHD
http://host/live/user/pass/1001.ts`

	entries := ParseM3U(content, "pl-1", 0)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Type != models.ItemTypeChannel {
		t.Fatalf("Expected channel, got %q", entry.Type)
	}
	if entry.PlaylistID != "pl-1" {
		t.Errorf("PlaylistID = %q", entry.PlaylistID)
	}
	if entry.Title != "ESPN FHD" {
		t.Errorf("Title = %q", entry.Title)
	}
	if entry.StreamURL != "http://host/live/user/pass/1001.ts" {
		t.Errorf("StreamURL = %q", entry.StreamURL)
	}
	if entry.LogoURL != "http://logos/espn.png" {
		t.Errorf("LogoURL = %q", entry.LogoURL)
	}
	if entry.TVGID != "espn.br" {
		t.Errorf("TVGID = %q", entry.TVGID)
	}
	if entry.GroupTitle != "ESPORTES" {
		t.Errorf("GroupTitle = %q, expected ESPORTES", entry.GroupTitle)
	}
	if entry.Channel == nil {
		t.Fatal("Channel details missing")
	}
	if entry.Channel.BaseName != "ESPN" || entry.Channel.Quality != "FHD" {
		t.Errorf("Channel details = %+v", entry.Channel)
	}
}

func TestParseM3UEpisode(t *testing.T) {
	content := `#EXTM3U
#EXTINF:-1 tvg-logo="http://logos/dark.png" group-title="Séries | Drama",Dark S01E03
http://host/series/user/pass/2001.mp4`

	entries := ParseM3U(content, "pl-1", 0)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Type != models.ItemTypeEpisode {
		t.Fatalf("Expected episode, got %q", entry.Type)
	}
	if entry.GroupTitle != "DRAMA" {
		t.Errorf("GroupTitle = %q, expected DRAMA", entry.GroupTitle)
	}
	if entry.Episode == nil {
		t.Fatal("Episode details missing")
	}
	if entry.Episode.SeriesTitle != "Dark" {
		t.Errorf("SeriesTitle = %q, expected Dark", entry.Episode.SeriesTitle)
	}
	if entry.Episode.SeasonNumber == nil || *entry.Episode.SeasonNumber != 1 {
		t.Errorf("SeasonNumber = %v", entry.Episode.SeasonNumber)
	}
	if entry.Episode.EpisodeNumber == nil || *entry.Episode.EpisodeNumber != 3 {
		t.Errorf("EpisodeNumber = %v", entry.Episode.EpisodeNumber)
	}
}

func TestParseM3UMovie(t *testing.T) {
	content := `#EXTINF:-1 group-title="Filmes | Ficção",Interestelar (2014)
http://host/movie/user/pass/3001.mp4`

	entries := ParseM3U(content, "pl-1", 0)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Type != models.ItemTypeMovie {
		t.Fatalf("Expected movie, got %q", entry.Type)
	}
	if entry.Movie == nil {
		t.Fatal("Movie details missing")
	}
	if entry.Movie.Year == nil || *entry.Movie.Year != 2014 {
		t.Errorf("Year = %v, expected 2014", entry.Movie.Year)
	}
	if entry.GroupTitle != "FICCAO" {
		t.Errorf("GroupTitle = %q, expected FICCAO", entry.GroupTitle)
	}
}

func TestParseM3UMalformedBlocks(t *testing.T) {
	content := `#EXTM3U
http://host/orphan-url.ts
#EXTINF:-1 group-title="Canais",
http://host/no-title.ts
#EXTINF:-1,CNN
# a stray comment between header and url
http://host/live/4001.ts
#EXTINF:-1,Dangling Header Without URL`

	entries := ParseM3U(content, "pl-1", 0)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "CNN" {
		t.Errorf("Title = %q, expected CNN", entries[0].Title)
	}
	if entries[0].StreamURL != "http://host/live/4001.ts" {
		t.Errorf("StreamURL = %q", entries[0].StreamURL)
	}
}

func TestParseM3UTitleFallsBackToTVGName(t *testing.T) {
	content := `#EXTINF:-1 tvg-name="Globo SP",
http://host/live/5001.ts`

	entries := ParseM3U(content, "pl-1", 0)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "Globo SP" {
		t.Errorf("Title = %q, expected Globo SP", entries[0].Title)
	}
}

func TestParseM3ULimit(t *testing.T) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "#EXTINF:-1,Channel %d UPPER\nhttp://host/live/%d.ts\n", i, i)
	}

	entries := ParseM3U(b.String(), "pl-1", 3)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries with limit, got %d", len(entries))
	}

	entries = ParseM3U(b.String(), "pl-1", 0)
	if len(entries) != 10 {
		t.Fatalf("Expected all 10 entries without limit, got %d", len(entries))
	}
}
