package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/idplease/pkg/buildinfo"
	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/fonts"
	"github.com/matzehuels/idplease/pkg/integrations"
	"github.com/matzehuels/idplease/pkg/integrations/ens"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
	"github.com/matzehuels/idplease/pkg/pipeline"
	cardrender "github.com/matzehuels/idplease/pkg/render/passport"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "idplease"

	// redisPrefix namespaces keys when several tools share one Redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "idplease renders 6529 Network digital passports",
		Long: `idplease looks up a 6529 Network profile, gathers its reputation, wallet
and ENS name, and renders the result as a passport-style PNG card.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath, c.Logger)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/idplease/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.interactiveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cfg returns the loaded config, or defaults when a command runs outside
// the root command (tests).
func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = defaultConfig()
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects optional runner features per command.
type runnerOpts struct {
	noCache bool // bypass the configured cache backend
	offline bool // skip dialing the chain RPC
}

// newRunner creates a pipeline runner for CLI use from the loaded config.
func (c *CLI) newRunner(ctx context.Context, opts runnerOpts) (*pipeline.Runner, error) {
	cfg := c.cfg()

	store, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return nil, err
	}
	keyer := cacheKeyer(cfg.APIURL)

	textFont, err := fonts.LoadOrDefault(cfg.Font)
	if textFont == nil {
		store.Close()
		return nil, fmt.Errorf("load font: %w", err)
	}
	if err != nil {
		c.Logger.Warn("font unavailable, using default", "font", cfg.Font, "err", err)
	}

	renderOpts := []cardrender.Option{cardrender.WithFont(textFont), cardrender.WithLogger(c.Logger)}
	if cfg.Background != "" {
		bg, err := cardrender.LoadBackground(cfg.Background)
		if err != nil {
			c.Logger.Warn("background unavailable, using guilloche", "path", cfg.Background, "err", err)
		} else {
			renderOpts = append(renderOpts, cardrender.WithBackground(bg))
		}
	}
	renderer, err := cardrender.New(renderOpts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	seizeClient := seize.NewClient(store, cfg.CacheTTL,
		seize.WithBaseURL(cfg.APIURL),
		seize.WithLogger(c.Logger),
		seize.WithHTTPOptions(integrations.WithKeyer(keyer)))

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithSeizeClient(seizeClient),
		pipeline.WithRenderer(renderer),
		pipeline.WithGateway(cfg.IPFSGateway),
		pipeline.WithRenderSettings(textFont.Name(), cfg.Background),
		pipeline.WithTimeout(cfg.RunTimeout),
	}
	if !opts.offline && cfg.RPCURL != "" {
		names, err := ens.Dial(ctx, cfg.RPCURL,
			ens.WithLogger(c.Logger),
			ens.WithRetry(),
			ens.WithCache(store, cache.TTLArtifact))
		if err != nil {
			c.Logger.Warn("ENS lookups disabled", "rpc", cfg.RPCURL, "err", err)
		} else {
			runnerOpts = append(runnerOpts, pipeline.WithNameResolver(names))
		}
	}

	return pipeline.NewRunner(store, keyer, c.Logger, runnerOpts...)
}

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg()
	if noCache || cfg.Cache.Backend == backendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == backendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   redisPrefix,
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, err, "cache backend unavailable")
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/idplease/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// draftsDir returns where interactive override drafts are kept.
func draftsDir() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "drafts")
}

// cacheKeyer scopes cache keys by API host when a non-default API is
// configured, so a staging server never serves entries to production runs.
func cacheKeyer(apiURL string) cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if apiURL == "" || apiURL == seize.DefaultBaseURL {
		return keyer
	}
	host := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return cache.NewScopedKeyer(keyer, host+":")
}
