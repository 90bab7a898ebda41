package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

// DefaultIPFSGateway is the HTTP gateway used to fetch ipfs:// references.
const DefaultIPFSGateway = "https://dweb.link/ipfs/"

const ipfsScheme = "ipfs://"

var (
	// ErrNotFound is returned when a remote resource doesn't exist (HTTP 404).
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, non-2xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with the standard request timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// RewriteIPFS converts an ipfs://<cid> reference into a gateway URL.
// Other references are returned trimmed but otherwise unchanged. An empty
// gateway selects [DefaultIPFSGateway].
//
//	RewriteIPFS("ipfs://bafy.../1.png", "") // "https://dweb.link/ipfs/bafy.../1.png"
func RewriteIPFS(ref, gateway string) string {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, ipfsScheme) {
		return ref
	}
	if gateway == "" {
		gateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + strings.TrimPrefix(ref, ipfsScheme)
}

// PathEscape percent-encodes a string for use as a single URL path segment.
func PathEscape(s string) string { return url.PathEscape(s) }

// URLEncode percent-encodes a string for use in URL query values.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
