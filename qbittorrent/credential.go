package qbittorrent

// Credential is the opaque session cookie returned by a successful login.
// It lives only in memory: the control loop holds one at a time and
// replaces it wholesale whenever the WebUI stops accepting it.
type Credential string

// IsZero reports whether no credential is held.
func (c Credential) IsZero() bool {
	return c == ""
}

// String returns the cookie verbatim, as sent in the Cookie header.
func (c Credential) String() string {
	return string(c)
}
