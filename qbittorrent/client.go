package qbittorrent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/throttlarr/throttlarr/apierr"
)

// Client talks to the qBittorrent WebUI API. It deliberately does not
// manage the session itself: Login hands the session cookie back to the
// caller, and every credential-bearing call takes it as an argument, so
// the control loop owns the credential lifecycle.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates a new qBittorrent client
func NewClient(baseURL, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("qbittorrent URL is required")
	}
	if username == "" {
		return nil, fmt.Errorf("qbittorrent username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("qbittorrent password is required")
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
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
		userAgent:  options.userAgent,
		logger:     logger,
	}, nil
}

// Login authenticates against the WebUI and returns the session cookie.
// It never retries; the caller decides whether a failure means wait,
// re-authenticate, or give up.
func (c *Client) Login(ctx context.Context) (Credential, error) {
	const op = "qbittorrent.login"

	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", apierr.Transientf(op, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent rejects logins without a matching Referer (CSRF check).
	req.Header.Set("Referer", c.baseURL)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierr.Transientf(op, err, "request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", apierr.FromStatus(op, resp.StatusCode)
	}

	cookie := resp.Header.Get("Set-Cookie")
	if cookie == "" {
		return "", apierr.Protocol(op, "no session cookie returned on login")
	}

	c.logger.Debug().Msg("Authenticated with qBittorrent")
	return Credential(cookie), nil
}

// SetUploadLimit applies a global upload speed limit in bytes/s, where 0
// means unlimited. Applying the same limit twice is a no-op on the
// qBittorrent side, so callers can re-apply unconditionally.
func (c *Client) SetUploadLimit(ctx context.Context, cred Credential, bytesPerSec int64) error {
	const op = "qbittorrent.setUploadLimit"

	form := url.Values{
		"limit": {strconv.FormatInt(bytesPerSec, 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v2/transfer/setUploadLimit", strings.NewReader(form.Encode()))
	if err != nil {
		return apierr.Transientf(op, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", cred.String())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Transientf(op, err, "request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return apierr.FromStatus(op, resp.StatusCode)
	}

	c.logger.Debug().Int64("limit", bytesPerSec).Msg("Applied upload limit")
	return nil
}

// defaultTimeout bounds each request so a hung remote cannot stall the
// control loop past one cycle's worth of staleness.
const defaultTimeout = 30 * time.Second
