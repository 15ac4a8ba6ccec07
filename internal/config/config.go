package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/hooks"
	"github.com/dmitrijs2005/consolecache/internal/store"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings for cachectl.
type Config struct {
	APIBaseURL string
	APIToken   string
	// Principal overrides the email taken from APIToken.
	Principal string

	StoreDriver string
	StoreDSN    string

	SyncConcurrency int
	SyncInterval    time.Duration
	RequestTimeout  time.Duration

	DemoMode     bool
	AccessPolicy string
	CacheVersion string

	LogLevel  string
	LogFormat string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.StoreDriver = store.DriverSQLite
	c.StoreDSN = defaultDSN()
	c.SyncConcurrency = 4
	c.SyncInterval = 0
	c.RequestTimeout = 10 * time.Second
	c.AccessPolicy = hooks.DefaultPolicy
	c.CacheVersion = hooks.DefaultCacheVersion
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

func defaultDSN() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "consolecache.db"
	}
	return filepath.Join(dir, "consolecache", "cache.db")
}

// Load applies defaults, then the config file at path (if not empty), then
// the environment read through lookup.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := parseFile(cfg, path); err != nil {
			return nil, err
		}
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.StoreDriver != store.DriverSQLite && c.StoreDriver != store.DriverPostgres:
		return fmt.Errorf("%w: unsupported store driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDSN == "":
		return fmt.Errorf("%w: store dsn is empty", ErrInvalidConfig)
	case c.SyncConcurrency < 1:
		return fmt.Errorf("%w: sync concurrency must be at least 1", ErrInvalidConfig)
	case c.SyncInterval < 0, c.RequestTimeout < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	case c.CacheVersion == "" || strings.Contains(c.CacheVersion, "_"):
		return fmt.Errorf("%w: cache version %q must be non-empty and must not contain '_'", ErrInvalidConfig, c.CacheVersion)
	case !c.DemoMode && c.APIBaseURL == "":
		return fmt.Errorf("%w: api base url is required outside demo mode", ErrInvalidConfig)
	}
	return nil
}

// S3 is true when snapshots can go to a bucket.
func (c *Config) S3() bool {
	return c.S3Bucket != ""
}
