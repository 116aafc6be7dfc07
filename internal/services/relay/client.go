// Package relay fetches remote playlist documents, optionally through a
// same-origin HTTP relay that forwards the target URL and returns its body
// verbatim. The relay itself is an external collaborator; this client only
// speaks to it.
package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const maxDocumentSize = 128 * 1024 * 1024

// Client retrieves remote text documents with bounded retries.
type Client struct {
	relayURL   string // empty means fetch targets directly
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a fetch client. relayURL, when set, is the relay
// endpoint; the target is passed as its url query parameter.
func NewClient(relayURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		relayURL:   relayURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchText downloads the target URL and returns its body as text. Transport
// failures and 5xx responses are retried with exponential backoff; 4xx
// responses fail immediately.
func (c *Client) FetchText(ctx context.Context, target string) (string, error) {
	requestURL := target
	if c.relayURL != "" {
		requestURL = c.relayURL + "?url=" + url.QueryEscape(target)
	}

	var body string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", "catalogo/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("fetch returned status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("fetch returned status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		body = string(data)
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", target, err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":        target,
		"size_bytes": len(body),
		"via_relay":  c.relayURL != "",
	}).Debug("Fetched remote document")

	return body, nil
}
