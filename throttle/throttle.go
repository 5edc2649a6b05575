// Package throttle contains the session-driven throttling control loop:
// the decision function mapping active playback sessions to an upload
// limit, and the nested authenticate/poll state machine that applies it.
package throttle

import (
	"context"

	"github.com/throttlarr/throttlarr/qbittorrent"
)

// Level is the binary throttle decision.
type Level int

const (
	// Unthrottled removes the upload cap (limit 0 = unlimited).
	Unthrottled Level = iota
	// Throttled caps uploads at the configured ceiling.
	Throttled
)

// String implements fmt.Stringer.
func (l Level) String() string {
	if l == Throttled {
		return "throttled"
	}
	return "unthrottled"
}

// DecideLevel maps an active-session count to a throttle level. Any
// active session throttles; magnitude is irrelevant.
func DecideLevel(activeSessions int) Level {
	if activeSessions > 0 {
		return Throttled
	}
	return Unthrottled
}

// DecideLimit maps an active-session count to the upload limit to apply,
// in bytes/s. Exactly 0 (unlimited) or the ceiling, never anything in
// between.
func DecideLimit(activeSessions int, ceiling int64) int64 {
	if DecideLevel(activeSessions) == Throttled {
		return ceiling
	}
	return 0
}

// TorrentClient is the part of the torrent client the loop consumes.
type TorrentClient interface {
	Login(ctx context.Context) (qbittorrent.Credential, error)
	SetUploadLimit(ctx context.Context, cred qbittorrent.Credential, bytesPerSec int64) error
}

// SessionCounter samples the media server for active playback sessions.
type SessionCounter interface {
	CountActiveSessions(ctx context.Context) (int, error)
}
