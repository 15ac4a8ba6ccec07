package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers a flag for every setting on fs. The defaults shown in
// help come from LoadDefaults; ApplyFlags copies only flags that were set.
func BindFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
	fs.String("api-url", d.APIBaseURL, "base URL of the console API")
	fs.String("token", "", "API bearer token")
	fs.String("principal", "", "principal email (defaults to the token's email claim)")
	fs.String("store-driver", d.StoreDriver, "store engine: sqlite or postgres")
	fs.String("store-dsn", d.StoreDSN, "sqlite file path or postgres connection string")
	fs.Int("concurrency", d.SyncConcurrency, "resources fetched in parallel during a sync pass")
	fs.Duration("timeout", d.RequestTimeout, "per-request timeout")
	fs.Bool("demo", false, "serve embedded demo data, never touch the network")
	fs.String("policy", d.AccessPolicy, "access policy expression")
	fs.String("cache-version", d.CacheVersion, "cache key version")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "text or json")
	fs.String("metrics-addr", "", "serve prometheus metrics on this address")
}

// ApplyFlags overlays cfg with every flag of fs that was set explicitly.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	visit := func(name string, apply func() error) {
		if err == nil && fs.Changed(name) {
			err = apply()
		}
	}

	visit("api-url", func() (e error) { cfg.APIBaseURL, e = fs.GetString("api-url"); return })
	visit("token", func() (e error) { cfg.APIToken, e = fs.GetString("token"); return })
	visit("principal", func() (e error) { cfg.Principal, e = fs.GetString("principal"); return })
	visit("store-driver", func() (e error) { cfg.StoreDriver, e = fs.GetString("store-driver"); return })
	visit("store-dsn", func() (e error) { cfg.StoreDSN, e = fs.GetString("store-dsn"); return })
	visit("concurrency", func() (e error) { cfg.SyncConcurrency, e = fs.GetInt("concurrency"); return })
	visit("timeout", func() (e error) { cfg.RequestTimeout, e = fs.GetDuration("timeout"); return })
	visit("demo", func() (e error) { cfg.DemoMode, e = fs.GetBool("demo"); return })
	visit("policy", func() (e error) { cfg.AccessPolicy, e = fs.GetString("policy"); return })
	visit("cache-version", func() (e error) { cfg.CacheVersion, e = fs.GetString("cache-version"); return })
	visit("log-level", func() (e error) { cfg.LogLevel, e = fs.GetString("log-level"); return })
	visit("log-format", func() (e error) { cfg.LogFormat, e = fs.GetString("log-format"); return })
	visit("metrics-addr", func() (e error) { cfg.MetricsAddr, e = fs.GetString("metrics-addr"); return })
	return err
}
