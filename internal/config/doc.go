// Package config loads runtime configuration for cachectl.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config. Files ending in .yaml
//     or .yml are read with yaml.v3, anything else as JSON.
//  3. CONSOLECACHE_* environment variables.
//  4. Command-line flags that were set explicitly.
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://console.example.com/api",
//	  "store_dsn": "/var/lib/consolecache/cache.db",
//	  "request_timeout": "10s",
//	  "sync_interval": "5m"
//	}
package config
