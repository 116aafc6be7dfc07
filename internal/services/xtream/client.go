// Package xtream queries an Xtream Codes panel's control API and maps its
// catalog into the same classified-entry shape the M3U parser produces, so
// storage stays source-agnostic.
package xtream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deinvis/catalogo/internal/classify"
	"github.com/deinvis/catalogo/internal/models"
	"github.com/deinvis/catalogo/internal/utils"
)

// ErrAuthFailed is returned when the panel explicitly rejects the
// credentials (auth=0 in a response). Distinct from an empty catalog.
var ErrAuthFailed = errors.New("xtream panel rejected credentials")

const maxResponseSize = 64 * 1024 * 1024

// Client wraps the player_api.php control API of one Xtream panel.
type Client struct {
	host       string // normalized: has a scheme, no trailing slash
	username   string
	password   string
	maxItems   int // global cap across all three listings, 0 = uncapped
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a client for one panel. The host may omit the scheme.
func NewClient(host, username, password string, maxItems int, logger *logrus.Logger) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("xtream host is required")
	}
	if username == "" {
		return nil, fmt.Errorf("xtream username is required")
	}

	return &Client{
		host:       normalizeHost(host),
		username:   username,
		password:   password,
		maxItems:   maxItems,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

func normalizeHost(host string) string {
	trimmed := strings.TrimSpace(host)
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// API response shapes. Panels are inconsistent about field types, so the
// loose ones (year) are decoded as interface{} and coerced.

type category struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
}

type liveStream struct {
	StreamID   int    `json:"stream_id"`
	Name       string `json:"name"`
	StreamIcon string `json:"stream_icon"`
	CategoryID string `json:"category_id"`
}

type vodStream struct {
	StreamID           int         `json:"stream_id"`
	Name               string      `json:"name"`
	StreamIcon         string      `json:"stream_icon"`
	CategoryID         string      `json:"category_id"`
	ContainerExtension string      `json:"container_extension"`
	Year               interface{} `json:"year"`
	ReleaseDate        string      `json:"release_date"`
}

type seriesListing struct {
	SeriesID    int    `json:"series_id"`
	Name        string `json:"name"`
	Cover       string `json:"cover"`
	CategoryID  string `json:"category_id"`
	ReleaseDate string `json:"release_date"`
}

// FetchItems pulls the panel's full catalog: the three category listings to
// build the id -> name lookup, then live streams, VOD streams and series
// listings, mapped into classified entries. Series come back as one summary
// entry each, not one per episode.
func (c *Client) FetchItems(ctx context.Context, playlistID string) ([]*models.Entry, error) {
	categories, err := c.fetchCategories(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, 1024)

	live, err := c.fetchLiveStreams(ctx)
	if err != nil {
		return nil, err
	}
	for _, stream := range live {
		if c.capped(len(entries)) {
			break
		}
		entries = append(entries, c.liveEntry(playlistID, stream, categories))
	}

	vod, err := c.fetchVODStreams(ctx)
	if err != nil {
		return nil, err
	}
	for _, stream := range vod {
		if c.capped(len(entries)) {
			break
		}
		entries = append(entries, c.vodEntry(playlistID, stream, categories))
	}

	series, err := c.fetchSeries(ctx)
	if err != nil {
		return nil, err
	}
	for _, listing := range series {
		if c.capped(len(entries)) {
			break
		}
		entries = append(entries, c.seriesEntry(playlistID, listing, categories))
	}

	c.logger.WithFields(logrus.Fields{
		"live":   len(live),
		"vod":    len(vod),
		"series": len(series),
		"total":  len(entries),
	}).Info("Fetched Xtream catalog")

	return entries, nil
}

func (c *Client) capped(count int) bool {
	return c.maxItems > 0 && count >= c.maxItems
}

func (c *Client) fetchCategories(ctx context.Context) (map[string]string, error) {
	lookup := make(map[string]string)
	for _, action := range []string{"get_live_categories", "get_vod_categories", "get_series_categories"} {
		var categories []category
		if err := c.getList(ctx, action, &categories); err != nil {
			return nil, err
		}
		for _, cat := range categories {
			lookup[cat.CategoryID] = cat.CategoryName
		}
	}
	return lookup, nil
}

func (c *Client) fetchLiveStreams(ctx context.Context) ([]liveStream, error) {
	var streams []liveStream
	err := c.getList(ctx, "get_live_streams", &streams)
	return streams, err
}

func (c *Client) fetchVODStreams(ctx context.Context) ([]vodStream, error) {
	var streams []vodStream
	err := c.getList(ctx, "get_vod_streams", &streams)
	return streams, err
}

func (c *Client) fetchSeries(ctx context.Context) ([]seriesListing, error) {
	var listings []seriesListing
	err := c.getList(ctx, "get_series", &listings)
	return listings, err
}

// getList performs one control API call. Non-2xx responses and transport
// failures are errors; an explicit auth=0 body is ErrAuthFailed; an empty or
// malformed body is treated as an empty list, since flaky panels routinely
// return garbage for one listing while the others are fine.
func (c *Client) getList(ctx context.Context, action string, result interface{}) error {
	params := url.Values{}
	params.Set("username", c.username)
	params.Set("password", c.password)
	params.Set("action", action)

	apiURL := c.host + "/player_api.php?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xtream request %s failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("xtream request %s returned status %d", action, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", action, err)
	}

	if authRejected(body) {
		return ErrAuthFailed
	}

	if err := json.Unmarshal(body, result); err != nil {
		c.logger.WithFields(logrus.Fields{
			"action": action,
			"error":  err,
		}).Warn("Malformed panel response, treating as empty")
	}

	return nil
}

// authRejected detects the panel's explicit credential rejection: an object
// body whose user_info carries auth=0.
func authRejected(body []byte) bool {
	var probe struct {
		UserInfo *struct {
			Auth int `json:"auth"`
		} `json:"user_info"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false // list responses are arrays and land here
	}
	return probe.UserInfo != nil && probe.UserInfo.Auth == 0
}

// Entry mapping

func (c *Client) liveEntry(playlistID string, stream liveStream, categories map[string]string) *models.Entry {
	group := categories[stream.CategoryID]
	details := classify.ExtractChannelDetails(stream.Name)

	return &models.Entry{
		PlaylistID: playlistID,
		Type:       models.ItemTypeChannel,
		Title:      stream.Name,
		StreamURL:  fmt.Sprintf("%s/live/%s/%s/%d.ts", c.host, c.username, c.password, stream.StreamID),
		LogoURL:    stream.StreamIcon,
		GroupTitle: utils.NormalizeGroupTitle(group),
		Channel:    &details,
	}
}

func (c *Client) vodEntry(playlistID string, stream vodStream, categories map[string]string) *models.Entry {
	group := categories[stream.CategoryID]

	ext := stream.ContainerExtension
	if ext == "" {
		ext = "mp4"
	}

	year := coerceYear(stream.Year)
	if year == nil {
		year = yearFromReleaseDate(stream.ReleaseDate)
	}
	if year == nil {
		year = classify.ExtractMovieYear(stream.Name)
	}

	return &models.Entry{
		PlaylistID: playlistID,
		Type:       models.ItemTypeMovie,
		Title:      stream.Name,
		StreamURL:  fmt.Sprintf("%s/movie/%s/%s/%d.%s", c.host, c.username, c.password, stream.StreamID, ext),
		LogoURL:    stream.StreamIcon,
		GroupTitle: utils.NormalizeGroupTitle(group),
		Movie:      &models.MovieDetails{Year: year},
	}
}

func (c *Client) seriesEntry(playlistID string, listing seriesListing, categories map[string]string) *models.Entry {
	group := categories[listing.CategoryID]

	return &models.Entry{
		PlaylistID: playlistID,
		Type:       models.ItemTypeSeries,
		Title:      listing.Name,
		// Symbolic identifier, not directly playable; episode enumeration
		// happens on demand via get_series_info
		StreamURL:  fmt.Sprintf("series://%d", listing.SeriesID),
		LogoURL:    listing.Cover,
		GroupTitle: utils.NormalizeGroupTitle(group),
		Series:     &models.SeriesDetails{Year: yearFromReleaseDate(listing.ReleaseDate)},
	}
}

// coerceYear accepts the number or numeric-string forms panels use for the
// year field. Non-numeric values yield nil.
func coerceYear(v interface{}) *int {
	switch year := v.(type) {
	case float64:
		y := int(year)
		if y > 0 {
			return &y
		}
	case string:
		if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil && y > 0 {
			return &y
		}
	}
	return nil
}

func yearFromReleaseDate(date string) *int {
	if len(date) < 4 {
		return nil
	}
	if y, err := strconv.Atoi(date[:4]); err == nil && y > 0 {
		return &y
	}
	return nil
}
