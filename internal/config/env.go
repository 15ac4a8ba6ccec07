package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/common"
)

type setter func(cfg *Config, v string) error

func str(field func(*Config) *string) setter {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func integer(field func(*Config) *int) setter {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(cfg) = n
		return nil
	}
}

func boolean(field func(*Config) *bool) setter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

func duration(field func(*Config) *time.Duration) setter {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(cfg) = d
		return nil
	}
}

// envVars maps variable names, without common.EnvPrefix, to fields.
var envVars = map[string]setter{
	"API_BASE_URL":     str(func(c *Config) *string { return &c.APIBaseURL }),
	"API_TOKEN":        str(func(c *Config) *string { return &c.APIToken }),
	"PRINCIPAL":        str(func(c *Config) *string { return &c.Principal }),
	"STORE_DRIVER":     str(func(c *Config) *string { return &c.StoreDriver }),
	"STORE_DSN":        str(func(c *Config) *string { return &c.StoreDSN }),
	"SYNC_CONCURRENCY": integer(func(c *Config) *int { return &c.SyncConcurrency }),
	"SYNC_INTERVAL":    duration(func(c *Config) *time.Duration { return &c.SyncInterval }),
	"REQUEST_TIMEOUT":  duration(func(c *Config) *time.Duration { return &c.RequestTimeout }),
	"DEMO_MODE":        boolean(func(c *Config) *bool { return &c.DemoMode }),
	"ACCESS_POLICY":    str(func(c *Config) *string { return &c.AccessPolicy }),
	"CACHE_VERSION":    str(func(c *Config) *string { return &c.CacheVersion }),
	"LOG_LEVEL":        str(func(c *Config) *string { return &c.LogLevel }),
	"LOG_FORMAT":       str(func(c *Config) *string { return &c.LogFormat }),
	"S3_BUCKET":        str(func(c *Config) *string { return &c.S3Bucket }),
	"S3_REGION":        str(func(c *Config) *string { return &c.S3Region }),
	"S3_ENDPOINT":      str(func(c *Config) *string { return &c.S3Endpoint }),
	"S3_ACCESS_KEY":    str(func(c *Config) *string { return &c.S3AccessKey }),
	"S3_SECRET_KEY":    str(func(c *Config) *string { return &c.S3SecretKey }),
	"METRICS_ADDR":     str(func(c *Config) *string { return &c.MetricsAddr }),
}

func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for name, set := range envVars {
		v, ok := lookup(common.EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, common.EnvPrefix, name, err)
		}
	}
	return nil
}
