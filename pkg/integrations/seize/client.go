package seize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
)

const (
	// DefaultBaseURL is the public 6529 API.
	DefaultBaseURL = "https://api.6529.io"

	// LogPageSize is the page_size requested from the profile-logs feed.
	// A page shorter than this ends pagination.
	LogPageSize = 100

	// MaxLogPages bounds pagination for profiles with very long histories.
	MaxLogPages = 200

	logTypeProfileCreated = "PROFILE_CREATED"
	namespace             = "seize"
)

// Client provides access to the 6529 API for identity and profile-log
// lookups. It embeds [integrations.Client], so responses are cached under
// the "seize" namespace and transient failures are retried.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL  string
	maxPages int
	logger   *log.Logger
}

// Option configures a [Client].
type Option func(*options)

type options struct {
	baseURL  string
	maxPages int
	logger   *log.Logger
	http     []integrations.Option
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithMaxPages caps how many log pages FetchAllLogs requests.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithLogger sets the logger for pagination warnings and debug output.
// Without it the client logs nothing.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPOptions forwards options to the shared integrations client.
func WithHTTPOptions(opts ...integrations.Option) Option {
	return func(o *options) { o.http = append(o.http, opts...) }
}

// NewClient creates a 6529 API client.
//
// Parameters:
//   - c: Cache for API responses. Use [cache.NewNullCache] to disable caching.
//   - ttl: How long cached responses are valid. Typical: 1 hour.
//   - opts: Base URL, page cap, logger and HTTP client options.
//
// The returned Client is safe for concurrent use.
func NewClient(c cache.Cache, ttl time.Duration, opts ...Option) *Client {
	o := options{baseURL: DefaultBaseURL, maxPages: MaxLogPages}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return &Client{
		Client:   integrations.NewClient(c, namespace, ttl, nil, o.http...),
		baseURL:  o.baseURL,
		maxPages: o.maxPages,
		logger:   o.logger,
	}
}

// FetchIdentity looks up a profile by handle. Any failure other than
// cancellation is reported as ErrCodeNotFound: the service answers unknown
// handles with a variety of statuses and the caller only needs to know that
// no identity is available.
func (c *Client) FetchIdentity(ctx context.Context, handle string, refresh bool) (*Identity, error) {
	handle = strings.TrimSpace(handle)
	key := "identity:" + strings.ToLower(handle)

	var id Identity
	err := c.Cached(ctx, key, refresh, &id, func() error {
		return c.Get(ctx, c.baseURL+"/api/identities/"+integrations.PathEscape(handle), &id)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeNotFound,
			fmt.Errorf("%w: %v", integrations.ErrNotFound, err), "identity %s not found", handle)
	}
	return &id, nil
}

// FetchLogPage returns one page (1-based) of REP rating logs for handle,
// including incoming ratings.
func (c *Client) FetchLogPage(ctx context.Context, handle string, page int, refresh bool) ([]LogEntry, error) {
	handle = strings.TrimSpace(handle)
	key := fmt.Sprintf("logs:%s:%d", strings.ToLower(handle), page)
	u := fmt.Sprintf("%s/api/profile-logs?page=%d&page_size=%d&include_incoming=true&rating_matter=REP&profile=%s",
		c.baseURL, page, LogPageSize, integrations.URLEncode(handle))

	var data logPage
	err := c.Cached(ctx, key, refresh, &data, func() error {
		return c.Get(ctx, u, &data)
	})
	if err != nil {
		return nil, err
	}
	return data.Data, nil
}

// FetchAllLogs walks the log feed from page 1 until a short page arrives or
// the page cap is reached. A failed page ends the walk and the entries
// collected so far are returned; only cancellation is reported as an error.
func (c *Client) FetchAllLogs(ctx context.Context, handle string, refresh bool) ([]LogEntry, error) {
	var all []LogEntry
	for page := 1; page <= c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		entries, err := c.FetchLogPage(ctx, handle, page, refresh)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			c.logger.Warn("rating log fetch stopped", "handle", handle, "page", page, "collected", len(all), "error", err)
			return all, nil
		}
		for _, e := range entries {
			if e.CreatedAt.Unparsed != "" {
				c.logger.Debug("unrecognized log timestamp", "handle", handle, "page", page, "id", e.ID, "created_at", e.CreatedAt.Unparsed)
			}
		}
		all = append(all, entries...)
		if len(entries) < LogPageSize {
			return all, nil
		}
	}
	c.logger.Warn("rating log page cap reached", "handle", handle, "pages", c.maxPages, "collected", len(all))
	return all, nil
}

// FetchProfileCreated returns the time of the profile's PROFILE_CREATED
// event. When several are reported the earliest wins.
func (c *Client) FetchProfileCreated(ctx context.Context, handle string, refresh bool) (time.Time, error) {
	handle = strings.TrimSpace(handle)
	key := "created:" + strings.ToLower(handle)
	u := fmt.Sprintf("%s/api/profile-logs?profile=%s&log_type=%s",
		c.baseURL, integrations.URLEncode(handle), logTypeProfileCreated)

	var data logPage
	err := c.Cached(ctx, key, refresh, &data, func() error {
		return c.Get(ctx, u, &data)
	})
	if err != nil {
		return time.Time{}, err
	}

	var created time.Time
	for _, e := range data.Data {
		if e.Type != "" && e.Type != logTypeProfileCreated {
			continue
		}
		if e.CreatedAt.IsZero() {
			continue
		}
		if created.IsZero() || e.CreatedAt.Before(created) {
			created = e.CreatedAt.Time
		}
	}
	if created.IsZero() {
		return time.Time{}, fmt.Errorf("%w: no %s event for %s", integrations.ErrNotFound, logTypeProfileCreated, handle)
	}
	return created, nil
}

// IsNotFound reports whether err means the requested resource is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, integrations.ErrNotFound) || apperrors.Is(err, apperrors.ErrCodeNotFound)
}
