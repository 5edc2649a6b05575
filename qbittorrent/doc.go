// Package qbittorrent provides a client for the qBittorrent Web API.
//
// Unlike general-purpose qBittorrent libraries, this client keeps the
// session credential outside the client: Login returns the cookie and
// credential-bearing calls take it back as an argument. That lets the
// throttling loop decide when a 401/403 means "log in again" rather than
// having the client re-authenticate behind its back.
//
// Every failure is classified via the apierr package so callers branch on
// apierr.Kind instead of inspecting status codes or error strings.
//
// # Usage
//
//	client, err := qbittorrent.NewClient(url, username, password, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cred, err := client.Login(ctx)
//	if err != nil {
//	    // apierr.KindOf(err) decides retry vs. fatal
//	}
//
//	err = client.SetUploadLimit(ctx, cred, 1000)
package qbittorrent
