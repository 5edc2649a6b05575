// Package jellyfin samples active playback sessions from a Jellyfin
// (or Emby-compatible) media server.
package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/throttlarr/throttlarr/apierr"
)

// Client wraps the Jellyfin sessions API
type Client struct {
	baseURL          string
	apiToken         string
	activeWithinSecs int
	httpClient       *http.Client
	logger           zerolog.Logger
}

// NewClient creates a new Jellyfin client
func NewClient(baseURL, apiToken string, activeWithinSecs int, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("jellyfin URL is required")
	}
	if apiToken == "" {
		return nil, fmt.Errorf("jellyfin API token is required")
	}
	if activeWithinSecs <= 0 {
		return nil, fmt.Errorf("jellyfin active window must be positive")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiToken:         apiToken,
		activeWithinSecs: activeWithinSecs,
		httpClient:       httpClient,
		logger:           logger,
	}, nil
}

// CountActiveSessions returns the number of playback sessions active
// within the configured trailing window. Only cardinality matters, so the
// body is decoded as a generic value and anything that is not a JSON
// array counts as zero sessions. An unreadable payload shape must not be
// confused with an active-session determination, and must not kill the
// loop.
func (c *Client) CountActiveSessions(ctx context.Context) (int, error) {
	const op = "jellyfin.sessions"

	requestURL := fmt.Sprintf("%s/Sessions?activeWithinSeconds=%s",
		c.baseURL, strconv.Itoa(c.activeWithinSecs))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, apierr.Transientf(op, err, "failed to create request")
	}
	req.Header.Set("Authorization", "MediaBrowser Token="+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apierr.Transientf(op, err, "request failed")
	}
	defer resp.Body.Close()

	// The API token is static operator config with nothing to renew, so
	// a 401 here is no different from any other bad status: transient
	// until the operator fixes it.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return 0, apierr.FromStatusTransient(op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, apierr.Transientf(op, err, "failed to read response body")
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Debug().Err(err).Msg("Sessions body is not valid JSON, counting zero sessions")
		return 0, nil
	}

	sessions, ok := payload.([]interface{})
	if !ok {
		c.logger.Debug().Msg("Sessions body is not an array, counting zero sessions")
		return 0, nil
	}

	c.logger.Debug().Int("count", len(sessions)).Msg("Sampled active sessions")
	return len(sessions), nil
}

// TestConnection performs one sample to verify address and token.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.CountActiveSessions(ctx)
	return err
}
