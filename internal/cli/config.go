package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
	"github.com/matzehuels/idplease/pkg/integrations"
	"github.com/matzehuels/idplease/pkg/integrations/seize"
	"github.com/matzehuels/idplease/pkg/pipeline"
)

// Cache backends accepted in [CacheConfig.Backend].
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// DefaultRPCURL is the public mainnet endpoint used for ENS reads.
const DefaultRPCURL = "https://ethereum-rpc.publicnode.com"

// Config is the contents of config.toml. Every key is optional.
//
//	api_url      = "https://api.6529.io"
//	rpc_url      = "https://ethereum-rpc.publicnode.com"
//	ipfs_gateway = "https://dweb.link/ipfs/"
//	font         = "OCR-B"
//	background   = "~/Pictures/watermark.png"
//	run_timeout  = "60s"
//	cache_ttl    = "10m"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
type Config struct {
	APIURL      string        `toml:"api_url"`
	RPCURL      string        `toml:"rpc_url"`
	IPFSGateway string        `toml:"ipfs_gateway"`
	Font        string        `toml:"font"`
	Background  string        `toml:"background"`
	RunTimeout  time.Duration `toml:"run_timeout"`
	CacheTTL    time.Duration `toml:"cache_ttl"`
	Cache       CacheConfig   `toml:"cache"`
}

// CacheConfig selects the response and artifact cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// defaultConfig returns the settings used when no file is present.
func defaultConfig() *Config {
	return &Config{
		APIURL:      seize.DefaultBaseURL,
		RPCURL:      DefaultRPCURL,
		IPFSGateway: integrations.DefaultIPFSGateway,
		RunTimeout:  pipeline.DefaultRunTimeout,
		CacheTTL:    cache.TTLHTTP,
		Cache:       CacheConfig{Backend: backendFile},
	}
}

// loadConfig reads path over the defaults. An empty path means the default
// location, where a missing file is fine; an explicit path must exist.
func loadConfig(path string, logger *log.Logger) (*Config, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		logger.Warn("unknown config keys", "file", path, "keys", strings.Join(keys, ", "))
	}

	cfg.Background = expandHome(cfg.Background)
	cfg.Font = expandHome(cfg.Font)
	if err := cfg.validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid config %s", path)
	}
	logger.Debug("loaded config", "file", path)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q, %q or %q, got %q", backendFile, backendRedis, backendNone, c.Cache.Backend)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	return nil
}

// configPath returns the config file location using XDG standard
// (~/.config/idplease/config.toml).
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
