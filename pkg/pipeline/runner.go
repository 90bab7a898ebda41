package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
	"github.com/matzehuels/idplease/pkg/integrations/ens"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
	"github.com/matzehuels/idplease/pkg/passport"
	"github.com/matzehuels/idplease/pkg/render/avatar"
	cardrender "github.com/matzehuels/idplease/pkg/render/passport"
)

// NameResolver resolves wallets to ENS names. *ens.Resolver implements it.
type NameResolver interface {
	Resolve(ctx context.Context, wallet string, refresh bool) ens.Resolution
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its clients and cache - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	Seize    *seize.Client
	Names    NameResolver // nil disables ENS lookups
	Avatars  *avatar.Loader
	Renderer *cardrender.Renderer

	// Gateway rewrites ipfs:// avatar references.
	Gateway string

	// RenderSettings identify font and background choices in artifact keys.
	RenderSettings cache.ArtifactKeyOpts

	// Timeout bounds each Execute call; zero means DefaultRunTimeout.
	Timeout time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithSeizeClient(c *seize.Client) RunnerOption { return func(r *Runner) { r.Seize = c } }

func WithNameResolver(n NameResolver) RunnerOption { return func(r *Runner) { r.Names = n } }

func WithAvatarLoader(l *avatar.Loader) RunnerOption { return func(r *Runner) { r.Avatars = l } }

func WithRenderer(rr *cardrender.Renderer) RunnerOption { return func(r *Runner) { r.Renderer = rr } }

// WithGateway sets the IPFS gateway for avatar references.
func WithGateway(g string) RunnerOption { return func(r *Runner) { r.Gateway = g } }

// WithRenderSettings records the font and background names so artifacts
// rendered with different settings are cached separately.
func WithRenderSettings(font, background string) RunnerOption {
	return func(r *Runner) {
		r.RenderSettings.Font = font
		r.RenderSettings.Background = background
	}
}

func WithTimeout(d time.Duration) RunnerOption { return func(r *Runner) { r.Timeout = d } }

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Clients not supplied through options are created with defaults against
// the same cache; ENS stays disabled unless a NameResolver is given.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, opts ...RunnerOption) (*Runner, error) {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	r := &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.Seize == nil {
		r.Seize = seize.NewClient(c, cache.TTLHTTP,
			seize.WithLogger(logger),
			seize.WithHTTPOptions(integrations.WithKeyer(keyer)))
	}
	if r.Avatars == nil {
		r.Avatars = avatar.NewLoader(c, cache.TTLArtifact, r.Gateway, integrations.WithKeyer(keyer))
	}
	if r.Renderer == nil {
		rr, err := cardrender.New(cardrender.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create renderer: %w", err)
		}
		r.Renderer = rr
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultRunTimeout
	}
	return r, nil
}

// Execute runs the complete resolve → build → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	logger := r.logger(opts)

	result := &Result{}
	resolveStart := time.Now()
	switch {
	case opts.Document != nil:
		result.RunID = uuid.NewString()
		result.Record = opts.Document.Rebuild(opts.Overrides)
		result.handle = opts.Document.Handle
		result.resolved = opts.Document.Resolved
		logger.Debug("rebuilt saved record", "run", result.RunID, "handle", opts.Document.Handle)

	default:
		res, err := r.resolve(ctx, opts.Handle, opts.Refresh, logger)
		if err != nil {
			return nil, err
		}
		result.RunID = res.RunID
		result.Resolution = res
		result.Stats.LogCount = res.LogCount
		result.Record = Build(res, opts.Overrides)
	}
	result.Stats.ResolveTime = time.Since(resolveStart)

	src := opts.Avatar
	if src.Empty() {
		src = avatar.Parse(result.Record.Avatar)
	}

	renderStart := time.Now()
	png, hit, avatarErr, err := r.render(ctx, result.RunID, result.Record, src, logger)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.PNG = png
	result.AvatarErr = avatarErr
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(renderStart)
	result.Filename = passport.Filename(handleOf(opts), time.Now())

	logger.Info("rendered passport",
		"run", result.RunID,
		"bytes", len(png),
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return result, nil
}

// Resolve runs the resolve stage only.
func (r *Runner) Resolve(ctx context.Context, handle string, refresh bool) (*Resolution, error) {
	return r.resolve(ctx, handle, refresh, r.Logger)
}

// Render runs the render stage for an already built record. The bool
// reports an artifact cache hit.
func (r *Runner) Render(ctx context.Context, rec passport.Record, src avatar.Source) ([]byte, bool, error) {
	png, hit, _, err := r.render(ctx, uuid.NewString(), rec, src, r.Logger)
	return png, hit, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	var errs []error
	if closer, ok := r.Names.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	return errors.Join(errs...)
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func handleOf(opts Options) string {
	if opts.Document != nil {
		return opts.Document.Handle
	}
	return opts.Handle
}

// canceled maps context errors to coded errors for the CLI.
func canceled(ctx context.Context, err error) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return apperrors.Wrap(apperrors.ErrCodeTimeout, err, "run timed out")
	case context.Canceled:
		return apperrors.Wrap(apperrors.ErrCodeCanceled, err, "run canceled")
	}
	return err
}
