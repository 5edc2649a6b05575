package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/throttlarr/throttlarr/apierr"
	"github.com/throttlarr/throttlarr/qbittorrent"
)

// errReauthenticate signals that the inner poll loop exited because the
// session stopped being accepted and a fresh login is needed.
var errReauthenticate = errors.New("re-authentication required")

// Options configures a Controller.
type Options struct {
	// PollInterval is both the steady-state cycle period and the wait
	// before retrying a failed login.
	PollInterval time.Duration
	// UploadLimit is the cap in bytes/s applied while throttled.
	UploadLimit int64
	// SampleFailureLimit is the number of consecutive sampling failures
	// tolerated before the loop gives up. 1 makes the first failure
	// fatal.
	SampleFailureLimit int
}

// Controller runs the control loop. It owns the single in-memory session
// credential, replacing it wholesale whenever qBittorrent stops accepting
// it. One Controller runs one sequential loop; nothing here is safe for
// concurrent use and nothing needs to be.
type Controller struct {
	torrent  TorrentClient
	sessions SessionCounter
	logger   zerolog.Logger
	opts     Options
}

// New creates a Controller.
func New(torrent TorrentClient, sessions SessionCounter, logger zerolog.Logger, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.SampleFailureLimit <= 0 {
		opts.SampleFailureLimit = 1
	}
	return &Controller{
		torrent:  torrent,
		sessions: sessions,
		logger:   logger,
		opts:     opts,
	}
}

// Run executes the loop until a fatal condition or context cancellation.
// The returned error is nil only on cancellation; everything else is a
// condition the process should exit non-zero for.
func (c *Controller) Run(ctx context.Context) error {
	for {
		cred, err := c.authenticate(ctx)
		if err != nil {
			return c.finish(ctx, err)
		}

		err = c.poll(ctx, cred)
		if errors.Is(err, errReauthenticate) {
			continue
		}
		return c.finish(ctx, err)
	}
}

// finish folds cancellation into a clean nil return so callers only see
// real failures.
func (c *Controller) finish(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		c.logger.Info().Msg("Control loop stopped")
		return nil
	}
	return err
}

// authenticate obtains a fresh session credential. Transient login
// failures are retried after one poll interval; a credential rejection or
// a login that violates the protocol is fatal, because retrying with the
// same credentials would only hammer the WebUI until someone fixes the
// config.
func (c *Controller) authenticate(ctx context.Context) (qbittorrent.Credential, error) {
	for {
		cred, err := c.torrent.Login(ctx)
		if err == nil {
			c.logger.Info().Msg("Authenticated with qBittorrent")
			return cred, nil
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		switch apierr.KindOf(err) {
		case apierr.AuthRejected, apierr.ProtocolViolation:
			c.logger.Error().
				Err(err).
				Int("status", apierr.StatusOf(err)).
				Msg("qBittorrent login rejected, check credentials")
			return "", fmt.Errorf("authentication failed: %w", err)
		default:
			c.logger.Warn().
				Err(err).
				Dur("retry_in", c.opts.PollInterval).
				Msg("qBittorrent login failed, retrying")
			if err := c.sleep(ctx); err != nil {
				return "", err
			}
		}
	}
}

// poll is the inner loop: sample, decide, apply, sleep. It returns
// errReauthenticate when the credential stops being accepted, or a fatal
// error when sampling fails too many times in a row.
func (c *Controller) poll(ctx context.Context, cred qbittorrent.Credential) error {
	failures := 0

	for {
		count, err := c.sessions.CountActiveSessions(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			c.logger.Error().
				Err(err).
				Int("consecutive_failures", failures).
				Int("failure_limit", c.opts.SampleFailureLimit).
				Msg("Failed to sample active sessions")
			if failures >= c.opts.SampleFailureLimit {
				return fmt.Errorf("session sampling failed: %w", err)
			}
			if err := c.sleep(ctx); err != nil {
				return err
			}
			continue
		}
		failures = 0

		limit := DecideLimit(count, c.opts.UploadLimit)
		c.logger.Debug().
			Int("active_sessions", count).
			Stringer("level", DecideLevel(count)).
			Int64("limit", limit).
			Msg("Applying upload limit")

		// Re-applied every cycle whether or not it changed; the call is
		// idempotent and reasserting it heals external edits.
		if err := c.torrent.SetUploadLimit(ctx, cred, limit); err != nil {
			if apierr.IsAuthRejected(err) {
				c.logger.Info().
					Int("status", apierr.StatusOf(err)).
					Msg("Session no longer accepted, re-authenticating")
				return errReauthenticate
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().
				Err(err).
				Msg("Failed to apply upload limit, will retry next cycle")
		}

		if err := c.sleep(ctx); err != nil {
			return err
		}
	}
}

// sleep waits one poll interval or until the context is done.
func (c *Controller) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.opts.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
